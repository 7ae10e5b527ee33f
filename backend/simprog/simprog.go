// Package simprog is an in-memory Programmer test double: a simulated
// parallel memory array plus an SPI loopback slave. It exists so
// protocol's tests (and cmd/eepromctl's -sim flag) can exercise every
// bus cycle without real hardware, the same role the teacher's fakeI2C
// and fakeFactories test doubles play for services/hal's integration
// test.
package simprog

import "eeprombridge/backend"

// Programmer is a Programmer backed by a plain byte slice. SetAddress
// masks the address down to the busWidth bits it is given (and the
// array index is further taken modulo len(Mem)), so a
// ParallelRead/Write that walks past 2^width
// addresses silently wraps, matching real hardware with a narrower
// address bus than its memory array.
type Programmer struct {
	Mem []byte

	addressPins       uint8
	minDelayNs        uint32
	supportedSpiModes uint8

	spiMode uint8
	spiFreq uint32

	ioEnabled bool
	output    bool
	addr      uint32
	data      byte
	ce, oe, we bool

	// InitErr, when set, is returned by InitParallel/InitSpi, letting
	// tests force a bus-mode switch failure.
	InitErr error
}

// New returns a Programmer with a memSize-byte array addressable by the
// low addressPins bits.
func New(memSize int, addressPins uint8, supportedSpiModes uint8, minDelayNs uint32) *Programmer {
	return &Programmer{
		Mem:               make([]byte, memSize),
		addressPins:       addressPins,
		minDelayNs:        minDelayNs,
		supportedSpiModes: supportedSpiModes,
		spiMode:           1, // SpiMode0, one-hot bit 0
	}
}

func (p *Programmer) Init() error         { p.ioEnabled = true; return nil }
func (p *Programmer) InitParallel() error { p.ioEnabled = true; return p.InitErr }
func (p *Programmer) InitSpi() error      { p.ioEnabled = true; return p.InitErr }

func (p *Programmer) DisableIOPins() {
	p.ioEnabled = false
	p.ce, p.oe, p.we = false, false, false
}

func (p *Programmer) AddressPinCount() uint8 { return p.addressPins }

func (p *Programmer) SetDataDirection(output bool) { p.output = output }

func (p *Programmer) SetAddress(busWidth uint8, address uint32) {
	mask := uint32(1)<<busWidth - 1
	p.addr = address & mask
}

func (p *Programmer) SetData(b byte) {
	p.data = b
	if p.we && len(p.Mem) > 0 {
		p.Mem[int(p.addr)%len(p.Mem)] = b
	}
}

func (p *Programmer) Data() byte {
	if p.oe && len(p.Mem) > 0 {
		return p.Mem[int(p.addr)%len(p.Mem)]
	}
	return 0xFF
}

func (p *Programmer) SetChipEnable(active bool) {
	p.ce = active
	// Parallel write commits on the falling (asserted) edge of CE.
	if active && p.output && len(p.Mem) > 0 {
		p.Mem[int(p.addr)%len(p.Mem)] = p.data
	}
}

func (p *Programmer) SetOutputEnable(active bool) { p.oe = active }
func (p *Programmer) SetWriteEnable(active bool)  { p.we = active }

func (p *Programmer) MinimumDelayNs() uint32 { return p.minDelayNs }

func (p *Programmer) DelayNs(ns uint32) bool { return ns >= p.minDelayNs }

func (p *Programmer) SetSpiClockFreq(hz uint32) bool {
	if hz == 0 {
		return false
	}
	p.spiFreq = hz
	return true
}
func (p *Programmer) SpiClockFreq() uint32 { return p.spiFreq }

func (p *Programmer) SetSpiMode(mode uint8) bool {
	if mode&p.supportedSpiModes == 0 {
		return false
	}
	p.spiMode = mode
	return true
}
func (p *Programmer) SupportedSpiModes() uint8 { return p.supportedSpiModes }

// SpiTransmit loops each transmitted byte back as the received byte,
// standing in for an attached SPI flash echoing its last shifted-in byte.
func (p *Programmer) SpiTransmit(tx, rx []byte) bool {
	if len(tx) != len(rx) {
		return false
	}
	copy(rx, tx)
	return true
}

var _ backend.Programmer = (*Programmer)(nil)
