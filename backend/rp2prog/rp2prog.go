//go:build rp2040 || rp2350

// Package rp2prog implements backend.Programmer on a Raspberry Pi
// Pico/Pico 2 by bit-banging the parallel bus on plain machine.Pin GPIOs
// and driving SPI through the on-chip peripheral. Pin assignment follows
// the teacher's rp2Pin/rp2PinFactory style from
// services/hal/internal/platform/factories_rp2xxx.go, generalized from a
// fixed capability registry to an explicit address/data/control pinout
// the caller supplies at construction.
package rp2prog

import (
	"machine"
	"time"

	"tinygo.org/x/drivers"

	"eeprombridge/backend"
)

// Pinout names every GPIO the programmer drives. AddressPins and
// DataPins are ordered LSB-first.
type Pinout struct {
	AddressPins []machine.Pin
	DataPins    []machine.Pin
	CE, OE, WE  machine.Pin
}

// Programmer drives a parallel bus over Pinout and SPI over an
// already-configured drivers.SPI (typically machine.SPI0 or SPI1, which
// satisfy drivers.SPI's Tx(w, r []byte) error).
type Programmer struct {
	pins Pinout
	spi  drivers.SPI

	supportedSpiModes uint8
	minDelayNs        uint32

	dataOutput bool
}

// New returns a Programmer. minDelayNs is the smallest delay the RP2's
// busy-wait loop can reliably honor; callers typically measure this
// empirically for their clock speed.
func New(pins Pinout, spi drivers.SPI, supportedSpiModes uint8, minDelayNs uint32) *Programmer {
	return &Programmer{pins: pins, spi: spi, supportedSpiModes: supportedSpiModes, minDelayNs: minDelayNs}
}

func (p *Programmer) Init() error {
	p.pins.CE.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pins.OE.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pins.WE.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pins.CE.High()
	p.pins.OE.High()
	p.pins.WE.High()
	for _, a := range p.pins.AddressPins {
		a.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	p.SetDataDirection(false)
	return nil
}

func (p *Programmer) InitParallel() error { return p.Init() }
func (p *Programmer) InitSpi() error      { return nil } // SPI peripheral is configured by the caller before New

func (p *Programmer) DisableIOPins() {
	for _, a := range p.pins.AddressPins {
		a.Configure(machine.PinConfig{Mode: machine.PinInput})
	}
	for _, d := range p.pins.DataPins {
		d.Configure(machine.PinConfig{Mode: machine.PinInput})
	}
	p.pins.CE.Configure(machine.PinConfig{Mode: machine.PinInput})
	p.pins.OE.Configure(machine.PinConfig{Mode: machine.PinInput})
	p.pins.WE.Configure(machine.PinConfig{Mode: machine.PinInput})
}

func (p *Programmer) AddressPinCount() uint8 { return uint8(len(p.pins.AddressPins)) }

func (p *Programmer) SetDataDirection(output bool) {
	p.dataOutput = output
	mode := machine.PinInput
	if output {
		mode = machine.PinOutput
	}
	for _, d := range p.pins.DataPins {
		d.Configure(machine.PinConfig{Mode: mode})
	}
}

func (p *Programmer) SetAddress(busWidth uint8, address uint32) {
	for i, a := range p.pins.AddressPins {
		if uint8(i) >= busWidth {
			a.Low()
			continue
		}
		a.Set(address&(1<<uint(i)) != 0)
	}
}

func (p *Programmer) SetData(b byte) {
	for i, d := range p.pins.DataPins {
		d.Set(b&(1<<uint(i)) != 0)
	}
}

func (p *Programmer) Data() byte {
	var b byte
	for i, d := range p.pins.DataPins {
		if d.Get() {
			b |= 1 << uint(i)
		}
	}
	return b
}

// SetChipEnable, SetOutputEnable and SetWriteEnable drive their line low
// when active (asserted), matching the protocol's fixed active-low
// polarity.
func (p *Programmer) SetChipEnable(active bool)   { p.pins.CE.Set(!active) }
func (p *Programmer) SetOutputEnable(active bool) { p.pins.OE.Set(!active) }
func (p *Programmer) SetWriteEnable(active bool)   { p.pins.WE.Set(!active) }

func (p *Programmer) MinimumDelayNs() uint32 { return p.minDelayNs }

func (p *Programmer) DelayNs(ns uint32) bool {
	if ns < p.minDelayNs {
		return false
	}
	time.Sleep(time.Duration(ns) * time.Nanosecond)
	return true
}

func (p *Programmer) SetSpiClockFreq(hz uint32) bool {
	spi, ok := p.spi.(interface{ SetBaudRate(uint32) error })
	if !ok {
		return false
	}
	return spi.SetBaudRate(hz) == nil
}

func (p *Programmer) SpiClockFreq() uint32 { return 0 } // not readable back from the peripheral

// SetSpiMode reports whether mode is in the supported mask. It does not
// reconfigure the SPI peripheral: clock polarity/phase stay as the
// caller configured them before New.
func (p *Programmer) SetSpiMode(mode uint8) bool {
	return mode&p.supportedSpiModes != 0
}

func (p *Programmer) SupportedSpiModes() uint8 { return p.supportedSpiModes }

func (p *Programmer) SpiTransmit(tx, rx []byte) bool {
	if len(tx) != len(rx) {
		return false
	}
	return p.spi.Tx(tx, rx) == nil
}

var _ backend.Programmer = (*Programmer)(nil)
