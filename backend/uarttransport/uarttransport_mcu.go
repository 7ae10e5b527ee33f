//go:build rp2040 || rp2350

// Package uarttransport implements backend.Transport over a UART. The MCU
// build drives the teacher's own github.com/jangala-dev/tinygo-uartx
// directly (no machine.UART wrapper needed — uartx already owns the ring
// buffer and RX interrupt); the host build (uarttransport_host.go) opens a
// serial device with go.bug.st/serial, grounded in the Greaseweazle
// client's command/ACK-over-serial pattern.
package uarttransport

import (
	"errors"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"eeprombridge/backend"
)

// Transport wraps a *uartx.UART as a backend.Transport.
type Transport struct {
	u *uartx.UART
}

// Open configures and returns the named UART ("uart0" or "uart1") at baud.
func Open(name string, baud uint32) (*Transport, error) {
	var u *uartx.UART
	switch name {
	case "uart0":
		u = uartx.UART0
	case "uart1":
		u = uartx.UART1
	default:
		return nil, errors.New("uarttransport: unknown uart " + name)
	}
	if err := u.Configure(uartx.UARTConfig{}); err != nil {
		return nil, err
	}
	u.SetBaudRate(baud)
	return &Transport{u: u}, nil
}

func (t *Transport) DataWaiting() (bool, error) {
	return t.u.Buffered() > 0, nil
}

func (t *Transport) ReadFull(buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := t.u.Read(buf[read:])
		if err != nil {
			return err
		}
		read += n
		if n == 0 {
			<-t.u.Readable()
		}
	}
	return nil
}

func (t *Transport) Write(buf []byte) error {
	_, err := t.u.Write(buf)
	return err
}

func (t *Transport) Flush() error {
	var scratch [64]byte
	for t.u.Buffered() > 0 {
		if _, err := t.u.Read(scratch[:]); err != nil {
			return err
		}
	}
	return nil
}

var _ backend.Transport = (*Transport)(nil)
