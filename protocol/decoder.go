package protocol

import (
	"encoding/binary"

	"eeprombridge/backend"
	"eeprombridge/errcode"
)

// decodeCommand reads one command from t into s.RxBuf. It mirrors the
// original firmware's parseCommand switch opcode-for-opcode: zero-arg
// queries read nothing further, 1- and 4-byte setters read their fixed
// argument, and the three variable-length commands (ParallelRead,
// ParallelWrite, SpiTransmit) additionally bounds-check the declared
// trailing payload against the RX/TX capacities before touching it.
//
// If a command is invalid (unknown opcode, or a declared payload that
// would overflow rx_cap/tx_cap), decodeCommand returns ok=false without
// reading the trailing payload off the transport — a confused host is
// expected to resynchronize with Sync, per invariant 5. code classifies
// why, for the diagnostics trace: errcode.Unsupported for an opcode
// byte this server doesn't implement, errcode.InvalidPayload for a
// declared length that overflows a buffer.
//
// A non-nil err means the transport itself failed (e.g. the underlying
// connection dropped); the caller should treat that as fatal to the
// current tick, not as an invalid command.
func decodeCommand(s *Session, t backend.Transport) (op Opcode, ok bool, code errcode.Code, err error) {
	if err = t.ReadFull(s.RxBuf[:1]); err != nil {
		return 0, false, errcode.OK, err
	}
	op = Opcode(s.RxBuf[0])
	if !op.valid() {
		return op, false, errcode.Unsupported, nil
	}

	switch op {
	case OpNop, OpSync, OpGetInterfaceVersion, OpGetMaxRxSize, OpGetMaxTxSize,
		OpGetSupportedBusTypes, OpGetSupportedSpiModes:
		// no further bytes

	case OpToggleIO, OpSetAddressBusWidth, OpSetSpiMode:
		if err = t.ReadFull(s.RxBuf[1:2]); err != nil {
			return op, false, errcode.OK, err
		}

	case OpSetAddressHoldTime, OpSetPulseWidthTime, OpSetSpiClockFreq:
		if err = t.ReadFull(s.RxBuf[1:5]); err != nil {
			return op, false, errcode.OK, err
		}

	case OpParallelWrite:
		if err = t.ReadFull(s.RxBuf[1:9]); err != nil {
			return op, false, errcode.OK, err
		}
		count := binary.LittleEndian.Uint32(s.RxBuf[5:9])
		if int(count)+9 > len(s.RxBuf) {
			return op, false, errcode.InvalidPayload, nil
		}
		if err = t.ReadFull(s.RxBuf[9 : 9+count]); err != nil {
			return op, false, errcode.OK, err
		}

	case OpParallelRead:
		if err = t.ReadFull(s.RxBuf[1:9]); err != nil {
			return op, false, errcode.OK, err
		}
		count := binary.LittleEndian.Uint32(s.RxBuf[5:9])
		if int(count)+1 > len(s.TxBuf) {
			return op, false, errcode.InvalidPayload, nil
		}

	case OpSpiTransmit:
		if err = t.ReadFull(s.RxBuf[1:5]); err != nil {
			return op, false, errcode.OK, err
		}
		count := binary.LittleEndian.Uint32(s.RxBuf[1:5])
		if int(count)+5 > len(s.RxBuf) || int(count)+1 > len(s.TxBuf) {
			return op, false, errcode.InvalidPayload, nil
		}
		if err = t.ReadFull(s.RxBuf[5 : 5+count]); err != nil {
			return op, false, errcode.OK, err
		}
	}

	return op, true, errcode.OK, nil
}
