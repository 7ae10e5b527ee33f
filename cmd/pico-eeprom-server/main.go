//go:build rp2040 || rp2350

// Command pico-eeprom-server is the MCU firmware entrypoint: it wires
// rp2prog's GPIO/SPI backend and uarttransport's UART backend to a
// protocol.Session and runs the server tick loop forever. Structure
// follows the teacher's root main.go (bus bring-up, then a blocking
// run loop) trimmed to what a single-purpose protocol server needs —
// no HAL, no rail sequencing, no telemetry JSON.
package main

import (
	"context"
	"machine"
	"time"

	"tinygo.org/x/drivers"

	"eeprombridge/backend/rp2prog"
	"eeprombridge/backend/uarttransport"
	"eeprombridge/bus"
	"eeprombridge/logx"
	"eeprombridge/protocol"
	"eeprombridge/services/config"
	"eeprombridge/services/heartbeat"
)

const (
	rxBufSize = 512
	txBufSize = 512
	board     = "pico"
)

var addressPins = []machine.Pin{
	machine.GPIO2, machine.GPIO3, machine.GPIO4, machine.GPIO5,
	machine.GPIO6, machine.GPIO7, machine.GPIO8, machine.GPIO9,
	machine.GPIO10, machine.GPIO11, machine.GPIO12, machine.GPIO13,
	machine.GPIO14, machine.GPIO15, machine.GPIO16, machine.GPIO17,
}

var dataPins = []machine.Pin{
	machine.GPIO18, machine.GPIO19, machine.GPIO20, machine.GPIO21,
	machine.GPIO22, machine.GPIO26, machine.GPIO27, machine.GPIO28,
}

const (
	cePin = machine.GPIO0
	oePin = machine.GPIO1
	wePin = machine.GPIO29
)

func main() {
	time.Sleep(2 * time.Second)

	cfg, err := config.Load(board)
	if err != nil {
		logx.Default.Error("config load failed", "err", err)
		return
	}

	b := bus.NewBus(4)
	conn := b.NewConnection("pico-eeprom-server")

	hb := &heartbeat.Service{}
	_ = hb.Start(context.Background(), conn)

	pinout := rp2prog.Pinout{AddressPins: addressPins, DataPins: dataPins, CE: cePin, OE: oePin, WE: wePin}
	spi := configureSPI(cfg.Session.SpiFrequencyHz)
	prog := rp2prog.New(pinout, spi, 0x0F, 60)
	if err := prog.Init(); err != nil {
		logx.Default.Error("programmer init failed", "err", err)
		return
	}

	t, err := uarttransport.Open("uart0", uint32(cfg.Transport.Baud))
	if err != nil {
		logx.Default.Error("uart open failed", "err", err)
		return
	}

	sess, err := protocol.NewSession(make([]byte, rxBufSize), make([]byte, txBufSize), prog, cfg.Session.SupportedBusMask)
	if err != nil {
		logx.Default.Error("session init failed", "err", err)
		return
	}
	sess.AddressBusWidth = cfg.Session.AddressBusWidth
	sess.AddressHoldNs = cfg.Session.AddressHoldNs
	sess.CEPulseWidthNs = cfg.Session.CEPulseWidthNs
	sess.SpiMode = cfg.Session.SpiMode
	sess.SpiFrequency = cfg.Session.SpiFrequencyHz
	sess.Diag = conn

	logx.Default.Info("pico-eeprom-server serving")
	if err := protocol.Serve(context.Background(), sess, t, time.Millisecond); err != nil {
		logx.Default.Error("serve exited", "err", err)
	}
}

func configureSPI(freqHz uint32) drivers.SPI {
	if freqHz == 0 {
		freqHz = 1_000_000
	}
	machine.SPI0.Configure(machine.SPIConfig{Frequency: freqHz, Mode: 0})
	return machine.SPI0
}
