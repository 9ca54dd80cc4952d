// Package sinks delivers decoded ITM values to consumers other than the
// console: websocket subscribers, a sqlite history and a latest-value store.
package sinks

import (
	"encoding/json"
	"math"
	"time"

	"itmscope/internal/daq"
	"itmscope/internal/itm"
)

// Sample is the JSON form of one decoded packet. Values holds the numeric
// projection of numeric types; NaN and infinities encode as null and are
// spelled out in Text.
type Sample struct {
	Port   uint8
	Name   string
	Type   string
	Time   time.Time
	Values []float64
	Text   string
}

type sampleJSON struct {
	Port   uint8      `json:"port"`
	Name   string     `json:"name"`
	Type   string     `json:"type"`
	Time   time.Time  `json:"time"`
	Values []*float64 `json:"values,omitempty"`
	Text   string     `json:"text"`
}

// NewSample converts a value event; ports supplies the display name.
func NewSample(ports itm.PortConfig, ev daq.Event) Sample {
	v := ev.Value
	s := Sample{
		Port: v.Port,
		Name: ports.Name(v.Port),
		Type: v.Type().String(),
		Time: ev.Time,
		Text: v.Text(),
	}
	if v.Type().IsNumeric() {
		s.Values = make([]float64, v.Len())
		for i := range s.Values {
			s.Values[i] = v.At(i).Float64()
		}
	}
	return s
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (s Sample) MarshalJSON() ([]byte, error) {
	out := sampleJSON{Port: s.Port, Name: s.Name, Type: s.Type, Time: s.Time, Text: s.Text}
	if s.Values != nil {
		out.Values = make([]*float64, len(s.Values))
		for i := range s.Values {
			if isFinite(s.Values[i]) {
				out.Values[i] = &s.Values[i]
			}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads null values back as NaN.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var in sampleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Sample{Port: in.Port, Name: in.Name, Type: in.Type, Time: in.Time, Text: in.Text}
	if in.Values != nil {
		s.Values = make([]float64, len(in.Values))
		for i, v := range in.Values {
			if v == nil {
				s.Values[i] = math.NaN()
				continue
			}
			s.Values[i] = *v
		}
	}
	return nil
}
