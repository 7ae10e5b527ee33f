package protocol

import (
	"encoding/binary"

	"eeprombridge/backend"
	"eeprombridge/errcode"
)

const (
	ack byte = 0x05
	nak byte = 0x06
)

// handleNop acknowledges without touching any state.
func handleNop(s *Session, _ backend.Transport) (int, errcode.Code) {
	s.TxBuf[0] = ack
	return 1, errcode.OK
}

// handleSync flushes any buffered input on the transport so a host that
// has lost frame alignment can resynchronize, then acknowledges.
func handleSync(s *Session, t backend.Transport) (int, errcode.Code) {
	_ = t.Flush()
	s.TxBuf[0] = ack
	return 1, errcode.OK
}

func handleGetInterfaceVersion(s *Session, _ backend.Transport) (int, errcode.Code) {
	s.TxBuf[0] = ack
	binary.LittleEndian.PutUint16(s.TxBuf[1:3], InterfaceVersion)
	return 3, errcode.OK
}

func handleGetMaxRxSize(s *Session, _ backend.Transport) (int, errcode.Code) {
	s.TxBuf[0] = ack
	binary.LittleEndian.PutUint32(s.TxBuf[1:5], uint32(len(s.RxBuf)))
	return 5, errcode.OK
}

func handleGetMaxTxSize(s *Session, _ backend.Transport) (int, errcode.Code) {
	s.TxBuf[0] = ack
	binary.LittleEndian.PutUint32(s.TxBuf[1:5], uint32(len(s.TxBuf)))
	return 5, errcode.OK
}

func handleGetSupportedBusTypes(s *Session, _ backend.Transport) (int, errcode.Code) {
	s.TxBuf[0] = ack
	s.TxBuf[1] = s.SupportedBusMask
	return 2, errcode.OK
}

// handleToggleIO enables or disables the programmer's IO pins. Disabling
// drops the session back to BusModeNotSet; re-enabling does not restore
// whatever bus mode was previously selected — the next parallel or SPI
// command re-initializes it.
func handleToggleIO(s *Session, _ backend.Transport) (int, errcode.Code) {
	state := s.RxBuf[1]
	if state == 0 {
		s.Programmer.DisableIOPins()
		s.BusMode = BusModeNotSet
	} else {
		_ = s.Programmer.Init()
	}
	s.TxBuf[0] = ack
	s.TxBuf[1] = state
	return 2, errcode.OK
}

func handleSetAddressBusWidth(s *Session, _ backend.Transport) (int, errcode.Code) {
	width := s.RxBuf[1]
	if width > s.Programmer.AddressPinCount() {
		s.TxBuf[0] = nak
		return 1, errcode.InvalidParams
	}
	s.AddressBusWidth = width
	s.TxBuf[0] = ack
	s.TxBuf[1] = width
	return 2, errcode.OK
}

func handleSetAddressHoldTime(s *Session, _ backend.Transport) (int, errcode.Code) {
	ns := binary.LittleEndian.Uint32(s.RxBuf[1:5])
	if ns == 0 {
		s.TxBuf[0] = nak
		return 1, errcode.InvalidParams
	}
	s.AddressHoldNs = ns
	s.TxBuf[0] = ack
	binary.LittleEndian.PutUint32(s.TxBuf[1:5], ns)
	return 5, errcode.OK
}

func handleSetPulseWidthTime(s *Session, _ backend.Transport) (int, errcode.Code) {
	ns := binary.LittleEndian.Uint32(s.RxBuf[1:5])
	if ns == 0 {
		s.TxBuf[0] = nak
		return 1, errcode.InvalidParams
	}
	s.CEPulseWidthNs = ns
	s.TxBuf[0] = ack
	binary.LittleEndian.PutUint32(s.TxBuf[1:5], ns)
	return 5, errcode.OK
}
