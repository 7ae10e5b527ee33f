// Package periphprog implements backend.Programmer on a Linux SBC (e.g.
// a Raspberry Pi) using periph.io: GPIO lines for the parallel bus and
// an spi.Conn for the SPI path. Grounded on the gpio.PinIO usage in
// seedhammer's driver/wshat package and the spireg.Open/Connect
// sequence in seedhammer's lcd package.
package periphprog

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"eeprombridge/backend"
)

// Pinout names every GPIO line the programmer drives, in address/data
// LSB-first order, plus the three control lines.
type Pinout struct {
	AddressPins []gpio.PinIO
	DataPins    []gpio.PinIO
	CE, OE, WE  gpio.PinIO
}

// Programmer drives a parallel bus over Pinout and SPI over a port
// opened from the periph.io SPI registry.
type Programmer struct {
	pins     Pinout
	spiName  string
	spiPort  spi.PortCloser
	spiConn  spi.Conn
	spiHz    physic.Frequency
	spiMode  spi.Mode
	supModes uint8

	dataOutput bool
	minDelayNs uint32
}

// New returns a Programmer. spiName selects the SPI port via spireg
// (empty string picks the first available port, per spireg.Open's own
// convention). minDelayNs is the smallest delay host timer resolution
// can reliably honor. Callers that already hold resolved gpio.PinIO
// values (e.g. bcm283x constants) use this directly; callers with only
// pin names (e.g. from config) use NewFromNames instead.
func New(pins Pinout, spiName string, supportedSpiModes uint8, minDelayNs uint32) (*Programmer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periphprog: host.Init: %w", err)
	}
	return &Programmer{pins: pins, spiName: spiName, supModes: supportedSpiModes, minDelayNs: minDelayNs, spiHz: 1 * physic.MegaHertz}, nil
}

// PinoutNames is Pinout expressed as periph.io gpio registry names (e.g.
// "GPIO6"), the shape config.GPIOConfig publishes.
type PinoutNames struct {
	AddressPins []string
	DataPins    []string
	CE, OE, WE  string
}

// NewFromNames resolves names against the periph.io gpio registry
// (initializing host drivers first, since gpioreg.ByName only finds
// pins a platform driver has already registered) and returns a
// Programmer wired to them.
func NewFromNames(names PinoutNames, spiName string, supportedSpiModes uint8, minDelayNs uint32) (*Programmer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periphprog: host.Init: %w", err)
	}
	addr, err := resolveNames(names.AddressPins)
	if err != nil {
		return nil, err
	}
	data, err := resolveNames(names.DataPins)
	if err != nil {
		return nil, err
	}
	ce, err := resolveName(names.CE)
	if err != nil {
		return nil, err
	}
	oe, err := resolveName(names.OE)
	if err != nil {
		return nil, err
	}
	we, err := resolveName(names.WE)
	if err != nil {
		return nil, err
	}
	return &Programmer{
		pins:     Pinout{AddressPins: addr, DataPins: data, CE: ce, OE: oe, WE: we},
		spiName:  spiName,
		supModes: supportedSpiModes,
		minDelayNs: minDelayNs,
		spiHz:      1 * physic.MegaHertz,
	}, nil
}

func resolveNames(names []string) ([]gpio.PinIO, error) {
	pins := make([]gpio.PinIO, len(names))
	for i, n := range names {
		p, err := resolveName(n)
		if err != nil {
			return nil, err
		}
		pins[i] = p
	}
	return pins, nil
}

func resolveName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("periphprog: unknown gpio pin %q", name)
	}
	return p, nil
}

func (p *Programmer) Init() error {
	if err := p.pins.CE.Out(gpio.High); err != nil {
		return err
	}
	if err := p.pins.OE.Out(gpio.High); err != nil {
		return err
	}
	if err := p.pins.WE.Out(gpio.High); err != nil {
		return err
	}
	for _, a := range p.pins.AddressPins {
		if err := a.Out(gpio.Low); err != nil {
			return err
		}
	}
	p.SetDataDirection(false)
	return nil
}

func (p *Programmer) InitParallel() error { return p.Init() }

func (p *Programmer) InitSpi() error {
	if p.spiPort != nil {
		return nil
	}
	port, err := spireg.Open(p.spiName)
	if err != nil {
		return fmt.Errorf("periphprog: spireg.Open(%q): %w", p.spiName, err)
	}
	conn, err := port.Connect(p.spiHz, p.spiMode, 8)
	if err != nil {
		port.Close()
		return fmt.Errorf("periphprog: connect: %w", err)
	}
	p.spiPort = port
	p.spiConn = conn
	return nil
}

func (p *Programmer) DisableIOPins() {
	for _, a := range p.pins.AddressPins {
		a.In(gpio.PullNoChange, gpio.NoEdge)
	}
	for _, d := range p.pins.DataPins {
		d.In(gpio.PullNoChange, gpio.NoEdge)
	}
	p.pins.CE.In(gpio.PullNoChange, gpio.NoEdge)
	p.pins.OE.In(gpio.PullNoChange, gpio.NoEdge)
	p.pins.WE.In(gpio.PullNoChange, gpio.NoEdge)
	if p.spiPort != nil {
		p.spiPort.Close()
		p.spiPort = nil
		p.spiConn = nil
	}
}

func (p *Programmer) AddressPinCount() uint8 { return uint8(len(p.pins.AddressPins)) }

func (p *Programmer) SetDataDirection(output bool) {
	p.dataOutput = output
	for _, d := range p.pins.DataPins {
		if output {
			d.Out(gpio.Low)
			continue
		}
		d.In(gpio.PullNoChange, gpio.NoEdge)
	}
}

func (p *Programmer) SetAddress(busWidth uint8, address uint32) {
	for i, a := range p.pins.AddressPins {
		if uint8(i) >= busWidth {
			a.Out(gpio.Low)
			continue
		}
		a.Out(gpio.Level(address&(1<<uint(i)) != 0))
	}
}

func (p *Programmer) SetData(b byte) {
	for i, d := range p.pins.DataPins {
		d.Out(gpio.Level(b&(1<<uint(i)) != 0))
	}
}

func (p *Programmer) Data() byte {
	var b byte
	for i, d := range p.pins.DataPins {
		if d.Read() {
			b |= 1 << uint(i)
		}
	}
	return b
}

func (p *Programmer) SetChipEnable(active bool)   { p.pins.CE.Out(gpio.Level(!active)) }
func (p *Programmer) SetOutputEnable(active bool) { p.pins.OE.Out(gpio.Level(!active)) }
func (p *Programmer) SetWriteEnable(active bool)  { p.pins.WE.Out(gpio.Level(!active)) }

func (p *Programmer) MinimumDelayNs() uint32 { return p.minDelayNs }

func (p *Programmer) DelayNs(ns uint32) bool {
	if ns < p.minDelayNs {
		return false
	}
	time.Sleep(time.Duration(ns) * time.Nanosecond)
	return true
}

func (p *Programmer) SetSpiClockFreq(hz uint32) bool {
	p.spiHz = physic.Frequency(hz) * physic.Hertz
	p.spiPort = nil // force reconnect at the new frequency on next InitSpi
	return true
}

func (p *Programmer) SpiClockFreq() uint32 { return uint32(p.spiHz / physic.Hertz) }

func (p *Programmer) SetSpiMode(mode uint8) bool {
	if mode&p.supModes == 0 {
		return false
	}
	m, ok := spiModeOf(mode)
	if !ok {
		return false
	}
	p.spiMode = m
	p.spiPort = nil
	return true
}

func spiModeOf(mode uint8) (spi.Mode, bool) {
	switch mode {
	case 1:
		return spi.Mode0, true
	case 2:
		return spi.Mode1, true
	case 4:
		return spi.Mode2, true
	case 8:
		return spi.Mode3, true
	default:
		return 0, false
	}
}

func (p *Programmer) SupportedSpiModes() uint8 { return p.supModes }

func (p *Programmer) SpiTransmit(tx, rx []byte) bool {
	if len(tx) != len(rx) {
		return false
	}
	if p.spiConn == nil {
		return false
	}
	return p.spiConn.Tx(tx, rx) == nil
}

var _ backend.Programmer = (*Programmer)(nil)
