// Package backend defines the hardware-facing interfaces the protocol
// engine is built against. Nothing in this package touches a wire format;
// it only describes the primitives a bus-mode state machine needs to drive
// a parallel memory device or an SPI flash, and the byte-stream primitives
// the server tick loop needs to talk to a host.
//
// Concrete implementations live in sibling packages: simprog/simtransport
// for tests and desktop development, rp2prog/uarttransport for the MCU
// build, and periphprog/usbtransport/uarttransport (host build) for a
// Linux SBC daemon.
package backend

// Programmer drives the physical bus: address/data lines and control
// signals (CE, OE, WE) for parallel devices, plus a full-duplex transfer
// for SPI. Control-line polarity is fixed active-low at the protocol
// layer; a Set*Enable(true) call here must assert (drive the line low).
type Programmer interface {
	// Init enables the backend's IO pins with every control line
	// deasserted. Called at server start and by ToggleIO with a
	// non-zero state.
	Init() error

	// InitParallel configures pins for parallel bus access. Called
	// whenever the session transitions into BusModeParallel.
	InitParallel() error

	// InitSpi configures pins and peripheral for SPI access. Called
	// whenever the session transitions into BusModeSPI.
	InitSpi() error

	// DisableIOPins tri-states every pin the backend owns. Called on
	// ToggleIO(0).
	DisableIOPins()

	// AddressPinCount reports how many address lines the backend
	// physically has wired, the ceiling for SetAddressBusWidth.
	AddressPinCount() uint8

	// SetDataDirection switches the data bus between input (reading a
	// device) and output (driving a device during a write cycle).
	SetDataDirection(output bool)

	// SetAddress drives the low busWidth address lines with address.
	SetAddress(busWidth uint8, address uint32)

	// SetData drives the data bus with b. Only valid when the data
	// direction is output.
	SetData(b byte)

	// Data samples the data bus. Only valid when the data direction is
	// input.
	Data() byte

	// SetChipEnable, SetOutputEnable and SetWriteEnable assert (active)
	// or deassert their respective control line.
	SetChipEnable(active bool)
	SetOutputEnable(active bool)
	SetWriteEnable(active bool)

	// MinimumDelayNs is the smallest delay the backend can honor with
	// DelayNs; address_hold_ns and ce_pulse_width_ns are rejected below
	// this floor.
	MinimumDelayNs() uint32

	// DelayNs busy-waits (or otherwise blocks) for at least ns
	// nanoseconds, reporting whether the requested delay was honored.
	DelayNs(ns uint32) bool

	// SetSpiClockFreq configures the SPI clock, reporting success.
	SetSpiClockFreq(hz uint32) bool
	// SpiClockFreq reports the currently configured SPI clock.
	SpiClockFreq() uint32

	// SetSpiMode configures clock polarity/phase, reporting success.
	SetSpiMode(mode uint8) bool
	// SupportedSpiModes is a one-hot bitmask of SpiMode values this
	// backend can run.
	SupportedSpiModes() uint8

	// SpiTransmit performs a full-duplex transfer of len(tx) bytes,
	// writing the simultaneously-received bytes into rx (len(rx) must
	// equal len(tx)). Reports success.
	SpiTransmit(tx, rx []byte) bool
}

// Transport is the byte-stream half of the server: whatever carries
// framed commands and replies between host and device (UART, USB CDC, an
// in-process pipe for tests).
type Transport interface {
	// DataWaiting reports whether at least one byte is available to
	// read without blocking.
	DataWaiting() (bool, error)

	// ReadFull blocks until len(buf) bytes have been read into buf, or
	// an error occurs.
	ReadFull(buf []byte) error

	// Write sends buf in its entirety.
	Write(buf []byte) error

	// Flush discards any buffered input, used to let a confused host
	// resynchronize via Sync.
	Flush() error
}
