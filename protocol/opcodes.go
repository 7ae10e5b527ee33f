package protocol

// Opcode identifies a command. Values and ordering are part of the wire
// format: a host and device must agree on this table byte-for-byte.
type Opcode uint8

const (
	OpNop Opcode = iota
	OpSync
	OpGetInterfaceVersion
	OpGetMaxRxSize
	OpGetMaxTxSize
	OpToggleIO
	OpGetSupportedBusTypes
	OpSetAddressBusWidth
	OpSetAddressHoldTime
	OpSetPulseWidthTime
	OpParallelRead
	OpParallelWrite
	OpSetSpiClockFreq
	OpSetSpiMode
	OpGetSupportedSpiModes
	OpSpiTransmit

	opcodeCount
)

// BusMode is the session's current bus arbitration state.
type BusMode uint8

const (
	BusModeNotSet BusMode = 0
	BusModeParallel BusMode = 1
	BusModeSPI      BusMode = 2
	BusModeI2C      BusMode = 4 // reserved, never selected by this server
)

// SpiMode is a one-hot encoding so GetSupportedSpiModes can report a mask.
type SpiMode uint8

const (
	SpiMode0 SpiMode = 1 << iota
	SpiMode1
	SpiMode2
	SpiMode3
)

func (o Opcode) valid() bool { return o < opcodeCount }
