// Package config loads a board's startup configuration from embedded JSON
// and publishes it onto the diagnostics bus as retained messages, one per
// top-level key: session defaults (address width, timings, SPI mode and
// frequency, supported bus mask), transport settings, and the diagnostics
// heartbeat interval. Adapted from the teacher's services/config, keeping
// its embedded-JSON-via-tinyjson lookup and per-key retained publish.
package config

import (
	"context"
	"encoding/json"
	"errors"

	"eeprombridge/bus"

	"github.com/andreyvit/tinyjson"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxBoardKey  = "board" // context key used for board name
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig reads the board config from embedded data and publishes it as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	board, _ := ctx.Value(CtxBoardKey).(string)
	if board == "" {
		return errors.New("missing board name in context")
	}

	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for board: " + board)
	}

	r := tinyjson.Raw(raw)
	val := r.Value() // should be a map[string]any
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return errors.New("embedded config is not a JSON object")
	}

	for k, v := range m {
		msg := &bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  v,
			Retained: true,
		}
		conn.Publish(msg)
	}

	return nil
}

// Start launches the config publisher in a goroutine. It runs once and
// exits; a new board config requires a restart.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		_ = s.publishConfig(ctx, conn) // replace with logging if needed
	}()
}

// SessionDefaults is the shape of the "session" key in a board's embedded
// config, matching the fields protocol.Session seeds at startup.
type SessionDefaults struct {
	SupportedBusMask uint8  `json:"supported_bus_mask"`
	AddressBusWidth  uint8  `json:"address_bus_width"`
	AddressHoldNs    uint32 `json:"address_hold_ns"`
	CEPulseWidthNs   uint32 `json:"ce_pulse_width_ns"`
	SpiMode          uint8  `json:"spi_mode"`
	SpiFrequencyHz   uint32 `json:"spi_frequency_hz"`
}

// TransportConfig is the shape of the "transport" key: either a UART
// ("uart" + baud) or an in-process pipe ("pipe", used by the -sim board).
type TransportConfig struct {
	Type string `json:"type"`
	Baud int    `json:"baud"`
}

// HeartbeatConfig is the shape of the "heartbeat" key.
type HeartbeatConfig struct {
	IntervalSeconds int `json:"interval"`
}

// GPIOConfig names the periph.io pin (e.g. "GPIO6") wired to each bus
// line, used by cmd/eepromd's periphprog backend on boards where the
// host itself drives the parallel/SPI bus. Absent (all fields empty) on
// boards that talk to a separate MCU programmer instead.
type GPIOConfig struct {
	AddressPins []string `json:"address_pins"`
	DataPins    []string `json:"data_pins"`
	CE          string   `json:"ce"`
	OE          string   `json:"oe"`
	WE          string   `json:"we"`
	SPIPort     string   `json:"spi_port"`
}

// BoardConfig is the fully-typed decode of a board's embedded config,
// used by cmd/eepromd and cmd/pico-eeprom-server at startup instead of
// the raw bus publish path publishConfig uses for diagnostics.
type BoardConfig struct {
	Session   SessionDefaults
	Transport TransportConfig
	Heartbeat HeartbeatConfig
	GPIO      GPIOConfig
}

// Load resolves board's embedded JSON into a typed BoardConfig. It reuses
// tinyjson for the initial decode (the same no-alloc-friendly path
// publishConfig uses) and re-marshals each section with encoding/json to
// populate the typed structs, since by that point the values are already
// plain Go types (map[string]any, float64, string).
func Load(board string) (BoardConfig, error) {
	var cfg BoardConfig

	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return cfg, errors.New("no embedded config for board: " + board)
	}

	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return cfg, errors.New("embedded config is not a JSON object")
	}

	if err := decodeSection(m, "session", &cfg.Session); err != nil {
		return cfg, err
	}
	if err := decodeSection(m, "transport", &cfg.Transport); err != nil {
		return cfg, err
	}
	if err := decodeSection(m, "heartbeat", &cfg.Heartbeat); err != nil {
		return cfg, err
	}
	if err := decodeSection(m, "gpio", &cfg.GPIO); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeSection(m map[string]any, key string, dst any) error {
	section, ok := m[key]
	if !ok {
		return nil
	}
	b, err := json.Marshal(section)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
