//go:build !(rp2040 || rp2350)

// Package uarttransport implements backend.Transport over a UART. The
// host build opens a serial device with go.bug.st/serial; the MCU build
// (uarttransport_mcu.go) drives github.com/jangala-dev/tinygo-uartx
// directly. Grounded in the Greaseweazle floppy-controller client's use
// of go.bug.st/serial for exactly this kind of host<->MCU command link.
//
// Received bytes are pumped off the port by a single reader goroutine
// into an x/shmring ring buffer, the same SPSC handoff the teacher's
// services/hal/devices/serial_raw builder uses between a raw serial
// device and its consumers. ReadFull is the sole consumer.
package uarttransport

import (
	"errors"
	"sync/atomic"

	"go.bug.st/serial"

	"eeprombridge/backend"
	"eeprombridge/x/shmring"
)

const ringSize = 4096

// Transport wraps a serial.Port as a backend.Transport.
type Transport struct {
	port serial.Port
	ring *shmring.Ring
	hdl  shmring.Handle

	readErr atomic.Value // error
	done    chan struct{}
}

// Open opens the named serial device (e.g. "/dev/ttyACM0", "COM3") at
// baud and starts the background reader goroutine that feeds the ring.
// The ring is registered with x/shmring so a diagnostics endpoint can
// later inspect its fill level by Handle without reaching into the
// Transport itself; see RingHandle.
func Open(name string, baud int) (*Transport, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, err
	}
	hdl, ring := shmring.NewRegistered(ringSize)
	t := &Transport{
		port: port,
		ring: ring,
		hdl:  hdl,
		done: make(chan struct{}),
	}
	go t.pump()
	return t, nil
}

// RingHandle returns the shmring.Handle for this Transport's RX ring.
func (t *Transport) RingHandle() shmring.Handle { return t.hdl }

// pump is the ring's sole producer: it blocks on port.Read and copies
// whatever comes back into the ring, backing off on Writable() when the
// ring is momentarily full.
func (t *Transport) pump() {
	defer close(t.done)
	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if err != nil {
			t.readErr.Store(err)
			return
		}
		off := 0
		for off < n {
			w := t.ring.TryWriteFrom(buf[off:n])
			if w == 0 {
				<-t.ring.Writable()
				continue
			}
			off += w
		}
	}
}

// DataWaiting reports whether any bytes are already sitting in the ring.
func (t *Transport) DataWaiting() (bool, error) {
	if t.ring.Available() > 0 {
		return true, nil
	}
	return false, t.pumpErr()
}

func (t *Transport) pumpErr() error {
	if v := t.readErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (t *Transport) ReadFull(buf []byte) error {
	filled := 0
	for filled < len(buf) {
		n := t.ring.TryReadInto(buf[filled:])
		if n == 0 {
			if err := t.pumpErr(); err != nil {
				return err
			}
			select {
			case <-t.ring.Readable():
			case <-t.done:
				if err := t.pumpErr(); err != nil {
					return err
				}
				return errors.New("uarttransport: port closed")
			}
			continue
		}
		filled += n
	}
	return nil
}

func (t *Transport) Write(buf []byte) error {
	_, err := t.port.Write(buf)
	return err
}

// Flush discards anything buffered in the ring and in the OS input
// queue.
func (t *Transport) Flush() error {
	scratch := make([]byte, 256)
	for t.ring.TryReadInto(scratch) > 0 {
	}
	return t.port.ResetInputBuffer()
}

var _ backend.Transport = (*Transport)(nil)
