package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: board name (same value placed in ctx under CtxBoardKey)
// Val: raw JSON bytes for that board
// -----------------------------------------------------------------------------

const cfgPico = `{
  "session": {
    "supported_bus_mask": 3,
    "address_bus_width": 0,
    "address_hold_ns": 0,
    "ce_pulse_width_ns": 0,
    "spi_mode": 1,
    "spi_frequency_hz": 0
  },
  "transport": {
    "type": "uart",
    "baud": 1000000
  },
  "heartbeat": {
    "interval": 2
  }
}`

const cfgSim = `{
  "session": {
    "supported_bus_mask": 3,
    "address_bus_width": 16,
    "address_hold_ns": 100,
    "ce_pulse_width_ns": 100,
    "spi_mode": 1,
    "spi_frequency_hz": 1000000
  },
  "transport": {
    "type": "pipe"
  },
  "heartbeat": {
    "interval": 5
  }
}`

const cfgRpi = `{
  "session": {
    "supported_bus_mask": 3,
    "address_bus_width": 17,
    "address_hold_ns": 150,
    "ce_pulse_width_ns": 150,
    "spi_mode": 1,
    "spi_frequency_hz": 1000000
  },
  "transport": {
    "type": "pipe"
  },
  "heartbeat": {
    "interval": 5
  },
  "gpio": {
    "address_pins": ["GPIO2", "GPIO3", "GPIO4", "GPIO17", "GPIO27", "GPIO22", "GPIO10", "GPIO9",
                      "GPIO11", "GPIO5", "GPIO6", "GPIO13", "GPIO19", "GPIO26", "GPIO18", "GPIO23", "GPIO24"],
    "data_pins": ["GPIO14", "GPIO15", "GPIO25", "GPIO8", "GPIO7", "GPIO12", "GPIO16", "GPIO20"],
    "ce": "GPIO21",
    "oe": "GPIO0",
    "we": "GPIO1",
    "spi_port": ""
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"sim":  []byte(cfgSim),
	"rpi":  []byte(cfgRpi),
}
