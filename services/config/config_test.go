// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"eeprombridge/bus"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(board string) ([]byte, bool) {
		if board != "pico" {
			return nil, false
		}
		return []byte(`{
			"session": {"address_bus_width": 16},
			"transport": {"type": "uart"},
			"heartbeat": {"interval": 2}
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxBoardKey, "pico")
	svc.Start(ctx, conn)

	sub := conn.Subscribe(bus.Topic{configPrefix, "#"})

	wantCount := 3 // session, transport, heartbeat
	got := map[string]any{}

	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < wantCount && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if len(m.Topic) < 2 {
				t.Fatalf("unexpected topic length: %#v", m.Topic)
			}
			key, ok := m.Topic[1].(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic[1])
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != wantCount {
		t.Fatalf("expected %d retained messages, got %d (%v)", wantCount, len(got), got)
	}

	session, ok := got["session"].(map[string]any)
	if !ok {
		t.Fatalf("session payload type = %T, want map[string]any", got["session"])
	}
	if w, ok := session["address_bus_width"].(float64); !ok || w != 16 {
		t.Fatalf("session.address_bus_width = %#v, want 16", session["address_bus_width"])
	}
}

func TestConfig_PublishConfig_MissingBoard(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-board")
	svc := NewConfigService()

	if err := svc.publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error for missing board name, got nil")
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(board string) ([]byte, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxBoardKey, "unknown-board")
	if err := svc.publishConfig(ctx, conn); err == nil {
		t.Fatal("expected error for missing embedded config, got nil")
	}
}
