// Package simtransport adapts any io.Reader/io.Writer pair (most commonly
// an io.Pipe, as used by protocol's tests and cmd/eepromctl's -sim mode)
// into a backend.Transport. It is grounded in the teacher's
// services/bridge framedReader/framedWriter helpers, which wrap a plain
// io.ReadWriteCloser the same way — simtransport just has no frame
// header of its own, since protocol.Session already frames each command.
package simtransport

import "io"

// Transport is a synchronous backend.Transport over r/w. Unlike a real
// UART or USB backend, DataWaiting cannot peek without blocking on a
// bare io.Reader, so it always reports true: callers (tests, the
// in-process harness used by cmd/eepromctl -sim) are expected to write a
// full command before calling protocol.Tick, so the subsequent blocking
// read never stalls.
type Transport struct {
	r io.Reader
	w io.Writer
}

// New wraps r and w as a backend.Transport.
func New(r io.Reader, w io.Writer) *Transport {
	return &Transport{r: r, w: w}
}

func (t *Transport) DataWaiting() (bool, error) { return true, nil }

func (t *Transport) ReadFull(buf []byte) error {
	_, err := io.ReadFull(t.r, buf)
	return err
}

func (t *Transport) Write(buf []byte) error {
	_, err := t.w.Write(buf)
	return err
}

func (t *Transport) Flush() error { return nil }
