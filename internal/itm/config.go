package itm

import (
	"fmt"

	"itmscope/internal/ocsd"
)

// NumPorts is the number of stimulus ports a software source header can address.
const NumPorts = ocsd.NumPorts

// Port binds one stimulus port address to a decode type and a display name.
type Port struct {
	Address int
	Name    string
	Type    DecodeType
}

// PortConfig represents the decode configuration of all 32 stimulus ports.
// It is a value type: a decoder keeps its own copy, so later changes by the
// caller do not reach a running decoder.
type PortConfig struct {
	types [NumPorts]DecodeType
	names [NumPorts]string
}

// NewPortConfig creates a configuration from a table indexed by port address.
func NewPortConfig(types [NumPorts]DecodeType) PortConfig {
	return PortConfig{types: types}
}

// PortsFromList builds a configuration from a sparse port list.
// Ports not listed are disabled. A later entry for the same address wins.
func PortsFromList(ports []Port) (PortConfig, error) {
	var cfg PortConfig
	for _, p := range ports {
		if !ocsd.IsValidPort(p.Address) {
			return PortConfig{}, fmt.Errorf("port address %d out of range 0..%d", p.Address, NumPorts-1)
		}
		cfg.types[p.Address] = p.Type
		cfg.names[p.Address] = p.Name
	}
	return cfg, nil
}

// Lookup returns the decode type of a port. ok is false when the port is disabled.
func (c PortConfig) Lookup(addr uint8) (t DecodeType, ok bool) {
	if int(addr) >= NumPorts {
		return TypeNone, false
	}
	t = c.types[addr]
	return t, t != TypeNone
}

// Name returns the display name of a port, "port<N>" when none was given.
func (c PortConfig) Name(addr uint8) string {
	if int(addr) < NumPorts && c.names[addr] != "" {
		return c.names[addr]
	}
	return fmt.Sprintf("port%d", addr)
}

// Enabled lists the ports that have a decode type, in address order.
func (c PortConfig) Enabled() []Port {
	var out []Port
	for addr, t := range c.types {
		if t == TypeNone {
			continue
		}
		out = append(out, Port{Address: addr, Name: c.Name(uint8(addr)), Type: t})
	}
	return out
}
