package protocol

import (
	"eeprombridge/backend"
	"eeprombridge/errcode"
)

// handlerFunc processes one already-decoded command in s.RxBuf and writes
// its reply into s.TxBuf, returning the reply length and a diagnostics
// classification (errcode.OK on ACK, the reason why on NAK). Every
// handler must write at least one byte (the ACK/NAK status) and return
// len >= 1.
type handlerFunc func(s *Session, t backend.Transport) (int, errcode.Code)

// handlers is a closed dispatch table indexed by Opcode, built once at
// package init instead of a runtime map lookup or a function-pointer
// array threaded through C-style casts.
var handlers = [opcodeCount]handlerFunc{
	OpNop:                  handleNop,
	OpSync:                 handleSync,
	OpGetInterfaceVersion:  handleGetInterfaceVersion,
	OpGetMaxRxSize:         handleGetMaxRxSize,
	OpGetMaxTxSize:         handleGetMaxTxSize,
	OpToggleIO:             handleToggleIO,
	OpGetSupportedBusTypes: handleGetSupportedBusTypes,
	OpSetAddressBusWidth:   handleSetAddressBusWidth,
	OpSetAddressHoldTime:   handleSetAddressHoldTime,
	OpSetPulseWidthTime:    handleSetPulseWidthTime,
	OpParallelRead:         handleParallelRead,
	OpParallelWrite:        handleParallelWrite,
	OpSetSpiClockFreq:      handleSetSpiClockFreq,
	OpSetSpiMode:           handleSetSpiMode,
	OpGetSupportedSpiModes: handleGetSupportedSpiModes,
	OpSpiTransmit:          handleSpiTransmit,
}

// dispatch runs the handler for op and returns the reply length and the
// diagnostics classification for the trace event.
func dispatch(op Opcode, s *Session, t backend.Transport) (int, errcode.Code) {
	return handlers[op](s, t)
}
