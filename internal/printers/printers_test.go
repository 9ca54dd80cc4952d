package printers

import (
	"bytes"
	"strings"
	"testing"

	"itmscope/common"
	"itmscope/internal/daq"
	"itmscope/internal/itm"
	"itmscope/internal/ocsd"
	"itmscope/internal/tpiu"
)

type mockLogger struct {
	common.NoOpLogger
	bytes.Buffer
}

func (m *mockLogger) Info(msg string) {
	m.WriteString(msg)
}

func TestItemPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewItemPrinter(&buf)

	p.SetMute(true)
	if !p.IsMuted() {
		t.Error("expected muted")
	}

	p.MutePortPrint(true)
	if !p.PortPrintMuted() {
		t.Error("expected port print muted")
	}

	ml := &mockLogger{}
	p.SetMessageLogger(ml)

	p.ItemPrintLine("Hello Test\n")
	if buf.String() != "Hello Test\n" {
		t.Errorf("buf string mismatch: %q", buf.String())
	}
	if ml.String() != "Hello Test\n" {
		t.Errorf("logger string mismatch: %q", ml.String())
	}
}

func TestRawBytePrinter(t *testing.T) {
	var buf bytes.Buffer
	rp := NewRawBytePrinter(&buf)

	rp.SetMute(true)
	rp.TraceRawIn(0, []byte{0x01})
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
	rp.SetMute(false)

	tests := []struct {
		desc    string
		index   uint64
		data    []byte
		exptStr string
	}{
		{
			desc:    "empty",
			index:   10,
			exptStr: "Raw Data; Index     10; \n",
		},
		{
			desc:    "short",
			index:   9999999,
			data:    []byte{0x70, 0x11, 0x41},
			exptStr: "Raw Data; Index9999999; 70 11 41 \n",
		},
		{
			desc:    "wraps",
			index:   42,
			data:    []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x12, 0x34},
			exptStr: "Raw Data; Index     42; 00 11 22 33 44 55 66 77 88 99 aa bb cc dd ee ff \n12 34 \n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			buf.Reset()
			rp.TraceRawIn(ocsd.TrcIndex(tc.index), tc.data)
			if buf.String() != tc.exptStr {
				t.Errorf("\nexpected:\n%q\nactual:\n%q", tc.exptStr, buf.String())
			}
		})
	}
}

func examplePorts(t *testing.T) itm.PortConfig {
	t.Helper()
	ports, err := itm.PortsFromList([]itm.Port{
		{Address: 0, Type: itm.TypeU32, Name: "counter"},
		{Address: 1, Type: itm.TypeFixed16_16},
		{Address: 2, Type: itm.TypeChar},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ports
}

func TestValuePrinterLines(t *testing.T) {
	var buf bytes.Buffer
	vp := NewValuePrinter(&buf, examplePorts(t))

	events := []daq.Event{
		{Kind: daq.EventConnected},
		{Kind: daq.EventValue, Value: itm.NewDecodedValue(0, itm.U32Value(42))},
		{Kind: daq.EventValue, Value: itm.NewDecodedValue(1, itm.FixedValue(itm.FixedFromFloat64(1.5)))},
		{Kind: daq.EventValue, Value: itm.NewDecodedValue(2, itm.CharValue('h'), itm.CharValue('i'))},
		{Kind: daq.EventOutcome, Err: itm.ErrUnderfull},
		{Kind: daq.EventOutcome, Err: itm.ErrOverflow},
	}
	for _, ev := range events {
		vp.HandleEvent(ev)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	want := []string{"port 0: 42", "port 1: 1.5", "port 2: hi"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
	if !strings.Contains(lines[3], "ITM_OVERFLOW") {
		t.Errorf("overflow line = %q", lines[3])
	}
}

func TestValuePrinterOptions(t *testing.T) {
	var buf bytes.Buffer
	vp := NewValuePrinter(&buf, examplePorts(t))
	unconfigured := daq.Event{Kind: daq.EventOutcome, Err: itm.ErrUnconfiguredPort}
	value := daq.Event{Kind: daq.EventValue, Value: itm.NewDecodedValue(0, itm.U32Value(7))}

	vp.ShowNames(true)
	vp.HandleEvent(value)
	if buf.String() != "port 0 (counter): 7\n" {
		t.Errorf("named line = %q", buf.String())
	}
	buf.Reset()

	vp.MutePortPrint(true)
	vp.HandleEvent(value)
	if buf.String() != "7\n" {
		t.Errorf("port-muted line = %q", buf.String())
	}
	buf.Reset()

	vp.HideQuiet(true)
	vp.HandleEvent(unconfigured)
	if buf.Len() != 0 {
		t.Errorf("quiet outcome printed: %q", buf.String())
	}

	vp.SetMute(true)
	vp.HandleEvent(value)
	if buf.Len() != 0 {
		t.Errorf("muted printer wrote %q", buf.String())
	}
}

func TestValuePrinterStats(t *testing.T) {
	var buf bytes.Buffer
	vp := NewValuePrinter(&buf, examplePorts(t))
	vp.SetCollectStats()
	vp.SetMute(true)

	vp.HandleEvent(daq.Event{Kind: daq.EventValue, Value: itm.NewDecodedValue(0, itm.U32Value(1))})
	vp.HandleEvent(daq.Event{Kind: daq.EventValue, Value: itm.NewDecodedValue(0, itm.U32Value(2))})
	vp.HandleEvent(daq.Event{Kind: daq.EventOutcome, Err: itm.ErrOverflow})

	vp.PrintStats()
	out := buf.String()
	for _, want := range []string{"port 0 (counter) : 2", "port 1 (port1) : 0", "ITM_OVERFLOW : 1", "ITM_SIZE_MISMATCH : 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestValuePrinterDeformatterStats(t *testing.T) {
	var buf bytes.Buffer
	vp := NewValuePrinter(&buf, itm.PortConfig{})
	vp.SetMute(true)

	d := tpiu.NewDeformatter(3)
	d.Write(make([]byte, tpiu.FrameSize))
	vp.PrintDeformatterStats(d)

	want := "TPIU trace ID 3:-\nframes : 1\nfsyncs : 0\nother ID bytes : 15\n\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
