package protocol

import (
	"fmt"

	"eeprombridge/backend"
	"eeprombridge/bus"
)

// InterfaceVersion is the protocol revision this package implements,
// reported verbatim by GetInterfaceVersion.
const InterfaceVersion uint16 = 0x0001

// minRxTxBufSize is the smallest buffer that can hold any single decoded
// command header: the largest fixed-argument command is ParallelWrite's
// 1 (opcode) + 8 (address, count) = 9 bytes.
const minRxTxBufSize = 9

// Session holds everything the protocol engine needs to serve commands:
// the RX/TX scratch buffers, the persistent configuration state a host
// builds up over the life of a connection, and the backend that actually
// moves bits. There is exactly one Session per server; nothing here is
// package-global, so tests can run many sessions concurrently against
// independent backends.
type Session struct {
	RxBuf []byte
	TxBuf []byte

	Programmer backend.Programmer

	SupportedBusMask uint8
	BusMode          BusMode

	AddressBusWidth uint8
	AddressHoldNs   uint32
	CEPulseWidthNs  uint32

	SpiMode       uint8
	SpiFrequency  uint32

	// Diag, when non-nil, receives a retained state snapshot and a
	// trace event after every dispatched command. Nil is the common
	// case on the MCU build, where there is no host-side tooling
	// listening and the publish would only cost RAM.
	Diag *bus.Connection
}

// NewSession validates buffer sizes and returns a ready-to-serve Session.
// supportedBusMask advertises which BusMode bits the programmer backend
// actually implements (GetSupportedBusTypes echoes it unchanged).
func NewSession(rx, tx []byte, prog backend.Programmer, supportedBusMask uint8) (*Session, error) {
	if len(rx) < minRxTxBufSize {
		return nil, fmt.Errorf("protocol: rx buffer too small: got %d bytes, need at least %d", len(rx), minRxTxBufSize)
	}
	if len(tx) < minRxTxBufSize {
		return nil, fmt.Errorf("protocol: tx buffer too small: got %d bytes, need at least %d", len(tx), minRxTxBufSize)
	}
	return &Session{
		RxBuf:            rx,
		TxBuf:            tx,
		Programmer:       prog,
		SupportedBusMask: supportedBusMask,
		BusMode:          BusModeNotSet,
		SpiMode:          uint8(SpiMode0),
	}, nil
}
