// Package metrics exposes protocol activity as Prometheus counters by
// subscribing to the diagnostics trace topic the same way
// services/heartbeat subscribes to config changes, rather than wiring
// prometheus into the protocol package directly. Grounded on the
// runZeroInc sockstats exporter's prometheus.MustRegister +
// promhttp.Handler pattern.
package metrics

import (
	"context"
	"encoding/json"

	"eeprombridge/bus"

	"github.com/prometheus/client_golang/prometheus"
)

var traceTopic = bus.Topic{"eeprom", "trace"}

// traceEvent mirrors the JSON shape of protocol's own (unexported)
// trace payload. Round-tripping through encoding/json lets metrics
// decode it without depending on protocol's internal type, whether the
// bus delivered the original struct in-process or a map[string]any from
// a decoded wire message.
type traceEvent struct {
	Opcode uint8  `json:"opcode"`
	Valid  bool   `json:"valid"`
	Acked  bool   `json:"acked"`
	Code   string `json:"code"`
}

// Service counts dispatched commands by opcode and outcome, plus NAK
// reasons by the errcode classification the handler reported.
type Service struct {
	commands *prometheus.CounterVec
	naks     *prometheus.CounterVec
}

// NewService registers its counters with reg and returns a Service ready
// to Start.
func NewService(reg prometheus.Registerer) (*Service, error) {
	s := &Service{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eeprombridge",
			Name:      "commands_total",
			Help:      "Commands serviced by the protocol engine, by opcode and outcome.",
		}, []string{"opcode", "outcome"}),
		naks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eeprombridge",
			Name:      "nak_reasons_total",
			Help:      "NAKed commands, by opcode and errcode classification.",
		}, []string{"opcode", "code"}),
	}
	if err := reg.Register(s.commands); err != nil {
		return nil, err
	}
	if err := reg.Register(s.naks); err != nil {
		return nil, err
	}
	return s, nil
}

// Start subscribes to the trace topic and updates counters until ctx is
// cancelled.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(traceTopic)
	go func() {
		defer conn.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-sub.Channel():
				s.observe(msg.Payload)
			}
		}
	}()
}

func (s *Service) observe(payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	var ev traceEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return
	}
	s.count(ev.Opcode, ev.Valid, ev.Acked, ev.Code)
}

func (s *Service) count(opcode uint8, valid, acked bool, code string) {
	outcome := "nak"
	switch {
	case !valid:
		outcome = "invalid"
	case acked:
		outcome = "ack"
	}
	label := opcodeLabel(opcode)
	s.commands.WithLabelValues(label, outcome).Inc()
	if outcome != "ack" && code != "" {
		s.naks.WithLabelValues(label, code).Inc()
	}
}

func opcodeLabel(op uint8) string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "unknown"
}

var opcodeNames = [...]string{
	"nop", "sync", "get_interface_version", "get_max_rx_size", "get_max_tx_size",
	"toggle_io", "get_supported_bus_types", "set_address_bus_width",
	"set_address_hold_time", "set_pulse_width_time", "parallel_read",
	"parallel_write", "set_spi_clock_freq", "set_spi_mode",
	"get_supported_spi_modes", "spi_transmit",
}
