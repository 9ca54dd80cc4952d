package sinks

import (
	"sort"
	"sync"

	"itmscope/internal/daq"
	"itmscope/internal/itm"
)

// Latest keeps the most recent sample per port.
type Latest struct {
	mu      sync.RWMutex
	ports   itm.PortConfig
	samples map[uint8]Sample
}

func NewLatest(ports itm.PortConfig) *Latest {
	return &Latest{ports: ports, samples: make(map[uint8]Sample)}
}

func (l *Latest) HandleEvent(ev daq.Event) {
	if ev.Kind != daq.EventValue {
		return
	}
	s := NewSample(l.ports, ev)
	l.mu.Lock()
	l.samples[s.Port] = s
	l.mu.Unlock()
}

// Get returns the latest sample of port.
func (l *Latest) Get(port uint8) (Sample, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.samples[port]
	return s, ok
}

// All returns the latest sample of every port that produced one, by port.
func (l *Latest) All() []Sample {
	l.mu.RLock()
	out := make([]Sample, 0, len(l.samples))
	for _, s := range l.samples {
		out = append(out, s)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Port < out[j].Port
	})
	return out
}

// Ports returns the port table the samples are named from.
func (l *Latest) Ports() itm.PortConfig {
	return l.ports
}
