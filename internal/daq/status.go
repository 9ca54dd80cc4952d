package daq

import (
	"sync"
	"time"

	ierr "itmscope/internal/common"
	"itmscope/internal/tpiu"
)

// StatusSnapshot is a point-in-time copy of Status.
type StatusSnapshot struct {
	Source    string            `json:"source"`
	Connected bool              `json:"connected"`
	Since     time.Time         `json:"since"`
	Values    uint64            `json:"values"`
	Outcomes  map[string]uint64 `json:"outcomes"`
	LastError string            `json:"last_error,omitempty"`
	TPIU      *TPIUStats        `json:"tpiu,omitempty"`
}

// TPIUStats are the deformatter counters.
type TPIUStats struct {
	TraceID uint8  `json:"trace_id"`
	Frames  uint64 `json:"frames"`
	FSyncs  uint64 `json:"fsyncs"`
	Dropped uint64 `json:"dropped"`
}

// Status tracks connection state and counters for health reporting.
type Status struct {
	mu   sync.RWMutex
	snap StatusSnapshot
	tpiu *tpiu.Deformatter
}

func NewStatus() *Status {
	return &Status{snap: StatusSnapshot{Outcomes: make(map[string]uint64)}}
}

func (s *Status) HandleEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case EventConnected:
		s.snap.Source = ev.Source
		s.snap.Connected = true
		s.snap.Since = ev.Time
		s.snap.LastError = ""
	case EventDisconnected:
		s.snap.Connected = false
		s.snap.Since = ev.Time
		if ev.Err != nil {
			s.snap.LastError = ev.Err.Error()
		}
	case EventConnectionError:
		s.snap.Source = ev.Source
		s.snap.Connected = false
		if ev.Err != nil {
			s.snap.LastError = ev.Err.Error()
		}
	case EventValue:
		s.snap.Values++
	case EventOutcome:
		s.snap.Outcomes[ierr.CodeName(ierr.CodeOf(ev.Err))]++
	}
}

// TrackDeformatter adds the counters of d to every snapshot.
func (s *Status) TrackDeformatter(d *tpiu.Deformatter) {
	s.mu.Lock()
	s.tpiu = d
	s.mu.Unlock()
}

func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.snap
	out.Outcomes = make(map[string]uint64, len(s.snap.Outcomes))
	for k, v := range s.snap.Outcomes {
		out.Outcomes[k] = v
	}
	if s.tpiu != nil {
		frames, fsyncs, dropped := s.tpiu.Stats()
		out.TPIU = &TPIUStats{
			TraceID: s.tpiu.TraceID(),
			Frames:  frames,
			FSyncs:  fsyncs,
			Dropped: dropped,
		}
	}
	return out
}
