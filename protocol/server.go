package protocol

import (
	"context"
	"time"

	"eeprombridge/backend"
)

// Tick services at most one command. It returns immediately with
// (false, nil) if no data is waiting on the transport — callers on a
// microcontroller call this from a tight superloop, callers on a host
// typically wrap it in Serve. A decoded-but-invalid command still
// produces a NAK reply but is reported as ok=false, err=nil, the same as
// an idle poll; only a transport failure is reported as err.
func Tick(s *Session, t backend.Transport) (ok bool, err error) {
	waiting, err := t.DataWaiting()
	if err != nil {
		return false, err
	}
	if !waiting {
		return false, nil
	}

	op, valid, code, err := decodeCommand(s, t)
	if err != nil {
		return false, err
	}

	var n int
	if valid {
		n, code = dispatch(op, s, t)
	} else {
		s.TxBuf[0] = nak
		n = 1
	}

	if werr := t.Write(s.TxBuf[:n]); werr != nil {
		return valid, werr
	}

	s.trace(op, valid, s.TxBuf[0] == ack, code)
	return valid, nil
}

// Serve runs Tick in a loop until ctx is cancelled or the transport
// reports a fatal error. idle is how long to pause between polls when no
// data was waiting; callers on a host daemon typically pass a few
// milliseconds.
func Serve(ctx context.Context, s *Session, t backend.Transport, idle time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		serviced, err := Tick(s, t)
		if err != nil {
			return err
		}
		if !serviced && idle > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idle):
			}
		}
	}
}
