package protocol

import (
	"time"

	"eeprombridge/bus"
	"eeprombridge/errcode"
)

var (
	stateTopic = bus.T("eeprom", "state")
	traceTopic = bus.T("eeprom", "trace")
)

// stateSnapshot is the retained payload published to T("eeprom","state").
type stateSnapshot struct {
	BusMode         uint8  `json:"bus_mode"`
	AddressBusWidth uint8  `json:"address_bus_width"`
	AddressHoldNs   uint32 `json:"address_hold_ns"`
	CEPulseWidthNs  uint32 `json:"ce_pulse_width_ns"`
	SpiMode         uint8  `json:"spi_mode"`
	SpiFrequencyHz  uint32 `json:"spi_frequency_hz"`
}

// traceEvent is the non-retained payload published to T("eeprom","trace").
// Code classifies the outcome for a NAK (errcode.OK on ACK), mirroring
// what the handler itself reported to dispatch.
type traceEvent struct {
	Opcode  Opcode       `json:"opcode"`
	Valid   bool         `json:"valid"`
	Acked   bool         `json:"acked"`
	Code    errcode.Code `json:"code"`
	TsMilli int64        `json:"ts_ms"`
}

// trace publishes a state snapshot and a trace event if a diagnostics
// sink is attached. It is a no-op (and touches nothing) when s.Diag is
// nil, which is the common case on the MCU build. Publishing never
// blocks: the bus's own channels are bounded and drop-oldest, the same
// best-effort semantics the teacher's bridge service relies on for its
// heartbeat traffic. code is the classification decodeCommand or the
// opcode's handler attached to this outcome.
func (s *Session) trace(op Opcode, valid, acked bool, code errcode.Code) {
	if s.Diag == nil {
		return
	}
	snap := stateSnapshot{
		BusMode:         uint8(s.BusMode),
		AddressBusWidth: s.AddressBusWidth,
		AddressHoldNs:   s.AddressHoldNs,
		CEPulseWidthNs:  s.CEPulseWidthNs,
		SpiMode:         s.SpiMode,
		SpiFrequencyHz:  s.SpiFrequency,
	}
	s.Diag.Publish(s.Diag.NewMessage(stateTopic, snap, true))

	evt := traceEvent{Opcode: op, Valid: valid, Acked: acked, Code: code, TsMilli: time.Now().UnixMilli()}
	s.Diag.Publish(s.Diag.NewMessage(traceTopic, evt, false))
}
