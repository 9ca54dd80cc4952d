package itm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPortsFromList(t *testing.T) {
	cfg, err := PortsFromList([]Port{
		{Address: 0, Name: "counter", Type: TypeU32},
		{Address: 2, Type: TypeChar},
		{Address: 31, Name: "temp", Type: TypeFixed16_16},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if typ, ok := cfg.Lookup(0); !ok || typ != TypeU32 {
		t.Errorf("port 0 = %v %v", typ, ok)
	}
	if _, ok := cfg.Lookup(1); ok {
		t.Error("port 1 should be disabled")
	}
	if _, ok := cfg.Lookup(200); ok {
		t.Error("out of range port should be disabled")
	}
	if cfg.Name(0) != "counter" || cfg.Name(2) != "port2" {
		t.Errorf("unexpected names %q %q", cfg.Name(0), cfg.Name(2))
	}

	want := []Port{
		{Address: 0, Name: "counter", Type: TypeU32},
		{Address: 2, Name: "port2", Type: TypeChar},
		{Address: 31, Name: "temp", Type: TypeFixed16_16},
	}
	if diff := cmp.Diff(want, cfg.Enabled()); diff != "" {
		t.Errorf("enabled ports mismatch (-want +got):\n%s", diff)
	}
}

func TestPortsFromListRejectsBadAddress(t *testing.T) {
	if _, err := PortsFromList([]Port{{Address: 32, Type: TypeU32}}); err == nil {
		t.Error("expected error for port 32")
	}
	if _, err := PortsFromList([]Port{{Address: -1, Type: TypeU32}}); err == nil {
		t.Error("expected error for port -1")
	}
}

func TestDecoderKeepsConfigCopy(t *testing.T) {
	var types [NumPorts]DecodeType
	types[4] = TypeI32
	cfg := NewPortConfig(types)
	d := NewDecoder(cfg)

	types[4] = TypeNone
	if typ, ok := d.Ports().Lookup(4); !ok || typ != TypeI32 {
		t.Errorf("decoder config changed: %v %v", typ, ok)
	}
}
