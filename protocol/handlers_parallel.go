package protocol

import (
	"encoding/binary"

	"eeprombridge/backend"
	"eeprombridge/errcode"
)

// handleParallelRead drives a sequence of read cycles: for each address in
// [address, address+count), set the address bus, hold for
// AddressHoldNs, then sample the data bus. CE and OE are asserted once
// for the whole burst and deasserted afterward.
func handleParallelRead(s *Session, _ backend.Transport) (int, errcode.Code) {
	address := binary.LittleEndian.Uint32(s.RxBuf[1:5])
	count := binary.LittleEndian.Uint32(s.RxBuf[5:9])

	if s.AddressHoldNs < s.Programmer.MinimumDelayNs() {
		s.TxBuf[0] = nak
		return 1, errcode.InvalidParams
	}
	if !s.switchBusMode(BusModeParallel) {
		s.TxBuf[0] = nak
		return 1, errcode.Unsupported
	}

	s.TxBuf[0] = ack
	data := s.TxBuf[1:]

	s.Programmer.SetDataDirection(false)
	s.Programmer.SetOutputEnable(true)
	s.Programmer.SetChipEnable(true)
	for i := uint32(0); i < count; i++ {
		s.Programmer.SetAddress(s.AddressBusWidth, address+i)
		s.Programmer.DelayNs(s.AddressHoldNs)
		data[i] = s.Programmer.Data()
	}
	s.Programmer.SetChipEnable(false)
	s.Programmer.SetOutputEnable(false)

	return 1 + int(count), errcode.OK
}

// handleParallelWrite drives a sequence of write cycles: for each address
// in [address, address+count), drive the address and data bus, hold, then
// pulse CE for CEPulseWidthNs.
func handleParallelWrite(s *Session, _ backend.Transport) (int, errcode.Code) {
	address := binary.LittleEndian.Uint32(s.RxBuf[1:5])
	count := binary.LittleEndian.Uint32(s.RxBuf[5:9])
	data := s.RxBuf[9 : 9+count]

	if s.AddressHoldNs < s.Programmer.MinimumDelayNs() || s.CEPulseWidthNs < s.Programmer.MinimumDelayNs() {
		s.TxBuf[0] = nak
		return 1, errcode.InvalidParams
	}
	if !s.switchBusMode(BusModeParallel) {
		s.TxBuf[0] = nak
		return 1, errcode.Unsupported
	}

	s.TxBuf[0] = ack

	s.Programmer.SetDataDirection(true)
	s.Programmer.SetOutputEnable(false)
	s.Programmer.SetWriteEnable(true)
	for i := uint32(0); i < count; i++ {
		s.Programmer.SetAddress(s.AddressBusWidth, address+i)
		s.Programmer.SetData(data[i])
		s.Programmer.DelayNs(s.AddressHoldNs)
		s.Programmer.SetChipEnable(true)
		s.Programmer.DelayNs(s.CEPulseWidthNs)
		s.Programmer.SetChipEnable(false)
	}
	s.Programmer.SetWriteEnable(false)
	s.Programmer.SetDataDirection(false)

	return 1, errcode.OK
}
