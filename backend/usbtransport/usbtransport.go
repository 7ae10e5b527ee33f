// Package usbtransport implements backend.Transport over a USB bulk
// endpoint pair using google/gousb, for devices that expose the command
// link as a vendor-specific USB interface instead of a CDC-ACM serial
// port. Context/device/config/interface/endpoint lifecycle follows the
// open/claim/close chain in the HASHER project's internal/driver/device
// package.
package usbtransport

import (
	"fmt"

	"github.com/google/gousb"

	"eeprombridge/backend"
)

// Transport wraps a claimed USB interface's bulk IN/OUT endpoint pair.
type Transport struct {
	ctx   *gousb.Context
	dev   *gousb.Device
	cfg   *gousb.Config
	intf  *gousb.Interface
	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint

	pending []byte
}

// Open claims configuration/interface/endpoint confNum/intfNum/altNum on
// the first device matching vid/pid and returns a Transport wrapping its
// epOut/epIn bulk endpoints.
func Open(vid, pid gousb.ID, confNum, intfNum, altNum int, epOut, epIn gousb.EndpointAddress) (*Transport, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: open device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: device %04x:%04x not found", vid, pid)
	}

	cfg, err := dev.Config(confNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: config: %w", err)
	}

	intf, err := cfg.Interface(intfNum, altNum)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: claim interface: %w", err)
	}

	out, err := intf.OutEndpoint(int(epOut))
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: out endpoint: %w", err)
	}

	in, err := intf.InEndpoint(int(epIn))
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: in endpoint: %w", err)
	}

	return &Transport{ctx: ctx, dev: dev, cfg: cfg, intf: intf, epOut: out, epIn: in}, nil
}

func (t *Transport) Close() error {
	t.intf.Close()
	t.cfg.Close()
	if err := t.dev.Close(); err != nil {
		t.ctx.Close()
		return err
	}
	t.ctx.Close()
	return nil
}

// DataWaiting pulls one bulk-IN transfer (sized to the endpoint's max
// packet size) into pending and reports whether it yielded any bytes.
// gousb has no peek primitive, so the probed bytes are held back here
// and handed out first by the next ReadFull.
func (t *Transport) DataWaiting() (bool, error) {
	if len(t.pending) > 0 {
		return true, nil
	}
	buf := make([]byte, t.epIn.Desc.MaxPacketSize)
	n, err := t.epIn.Read(buf)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	t.pending = buf[:n]
	return true, nil
}

func (t *Transport) ReadFull(buf []byte) error {
	read := copy(buf, t.pending)
	t.pending = t.pending[read:]
	for read < len(buf) {
		n, err := t.epIn.Read(buf[read:])
		if err != nil {
			return err
		}
		read += n
	}
	return nil
}

func (t *Transport) Write(buf []byte) error {
	_, err := t.epOut.Write(buf)
	return err
}

func (t *Transport) Flush() error {
	t.pending = nil
	return nil
}

var _ backend.Transport = (*Transport)(nil)
