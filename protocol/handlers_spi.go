package protocol

import (
	"encoding/binary"

	"eeprombridge/backend"
	"eeprombridge/errcode"
)

func handleSetSpiClockFreq(s *Session, _ backend.Transport) (int, errcode.Code) {
	freq := binary.LittleEndian.Uint32(s.RxBuf[1:5])
	if !s.switchBusMode(BusModeSPI) {
		s.TxBuf[0] = nak
		return 1, errcode.Unsupported
	}
	if !s.Programmer.SetSpiClockFreq(freq) {
		s.TxBuf[0] = nak
		return 1, errcode.InvalidParams
	}
	s.SpiFrequency = freq
	s.TxBuf[0] = ack
	binary.LittleEndian.PutUint32(s.TxBuf[1:5], freq)
	return 5, errcode.OK
}

func handleSetSpiMode(s *Session, _ backend.Transport) (int, errcode.Code) {
	mode := s.RxBuf[1]
	if !s.switchBusMode(BusModeSPI) {
		s.TxBuf[0] = nak
		return 1, errcode.Unsupported
	}
	if !s.Programmer.SetSpiMode(mode) {
		s.TxBuf[0] = nak
		return 1, errcode.InvalidParams
	}
	s.SpiMode = mode
	s.TxBuf[0] = ack
	s.TxBuf[1] = mode
	return 2, errcode.OK
}

func handleGetSupportedSpiModes(s *Session, _ backend.Transport) (int, errcode.Code) {
	s.TxBuf[0] = ack
	s.TxBuf[1] = s.Programmer.SupportedSpiModes()
	return 2, errcode.OK
}

// handleSpiTransmit performs a full-duplex transfer: count bytes of
// trailing payload in RxBuf go out, and the simultaneously-received bytes
// come back in the reply after the status byte.
func handleSpiTransmit(s *Session, _ backend.Transport) (int, errcode.Code) {
	count := binary.LittleEndian.Uint32(s.RxBuf[1:5])
	tx := s.RxBuf[5 : 5+count]
	rx := s.TxBuf[1 : 1+count]

	if !s.switchBusMode(BusModeSPI) {
		s.TxBuf[0] = nak
		return 1, errcode.Unsupported
	}
	if !s.Programmer.SpiTransmit(tx, rx) {
		s.TxBuf[0] = nak
		return 1, errcode.Busy
	}
	s.TxBuf[0] = ack
	return 1 + int(count), errcode.OK
}
