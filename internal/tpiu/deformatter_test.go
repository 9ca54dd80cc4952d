package tpiu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fsyncFrame() []byte {
	f := make([]byte, FrameSize)
	for i := 0; i < FrameSize; i += 4 {
		f[i], f[i+1], f[i+2], f[i+3] = 0xFF, 0xFF, 0xFF, 0x7F
	}
	return f
}

// itmFrame carries ID 1 followed by 14 data bytes; byte 2 has its LSB
// restored from the flag byte.
func itmFrame() []byte {
	return []byte{
		0x03, 0x09, 0x2A, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x02,
	}
}

var itmFrameData = []byte{0x09, 0x2B, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x10}

func TestDeformatterSingleFrame(t *testing.T) {
	d := NewDeformatter(1)

	got := d.Write(itmFrame())
	if diff := cmp.Diff(itmFrameData, got); diff != "" {
		t.Errorf("extracted data mismatch (-want +got):\n%s", diff)
	}

	frames, fsyncs, dropped := d.Stats()
	if frames != 1 || fsyncs != 0 || dropped != 0 {
		t.Errorf("Stats() = %d, %d, %d", frames, fsyncs, dropped)
	}
}

func TestDeformatterOtherIDFiltered(t *testing.T) {
	d := NewDeformatter(1)
	f := itmFrame()
	f[0] = 0x05 // ID 2

	if got := d.Write(f); len(got) != 0 {
		t.Errorf("expected no data for ID 1, got %v", got)
	}
	if _, _, dropped := d.Stats(); dropped != 14 {
		t.Errorf("dropped = %d, want 14", dropped)
	}
}

func TestDeformatterSplitFrames(t *testing.T) {
	stream := append(itmFrame(), itmFrame()...)

	whole := NewDeformatter(1)
	want := append([]byte(nil), whole.Write(stream)...)

	for _, chunk := range []int{1, 3, 7, 15, 17} {
		d := NewDeformatter(1)
		var got []byte
		for off := 0; off < len(stream); off += chunk {
			end := min(off+chunk, len(stream))
			got = append(got, d.Write(stream[off:end])...)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("chunk %d: mismatch (-want +got):\n%s", chunk, diff)
		}
		if d.Pending() != 0 {
			t.Errorf("chunk %d: Pending() = %d", chunk, d.Pending())
		}
	}
}

func TestDeformatterPartialFrameHeld(t *testing.T) {
	d := NewDeformatter(1)
	f := itmFrame()

	if got := d.Write(f[:10]); len(got) != 0 {
		t.Fatalf("partial frame produced data: %v", got)
	}
	if d.Pending() != 10 {
		t.Fatalf("Pending() = %d, want 10", d.Pending())
	}
	got := d.Write(f[10:])
	if diff := cmp.Diff(itmFrameData, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDeformatterIDChangeWithFlag(t *testing.T) {
	d := NewDeformatter(1)
	f := []byte{
		0x05, 0x11, 0x03, 0x22, 0x44, 0x55, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x66, 0x02,
	}

	got := d.Write(f)
	want := []byte{0x44, 0x55, 0, 0, 0, 0, 0, 0, 0, 0, 0x66}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDeformatterFSyncResetsID(t *testing.T) {
	noIDFrame := make([]byte, FrameSize)
	noIDFrame[1] = 0xAA

	tests := []struct {
		name  string
		reset bool
		want  int
	}{
		{"reset", true, 0},
		{"keep", false, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeformatter(1)
			d.ResetOnFSync = tt.reset

			var stream []byte
			stream = append(stream, itmFrame()...)
			stream = append(stream, fsyncFrame()...)

			d.Write(stream)
			got := d.Write(noIDFrame)
			if len(got) != tt.want {
				t.Errorf("got %d bytes after FSYNC, want %d", len(got), tt.want)
			}
			if _, fsyncs, _ := d.Stats(); fsyncs != 1 {
				t.Errorf("fsyncs = %d, want 1", fsyncs)
			}
		})
	}
}

func TestIsFSyncFrame(t *testing.T) {
	if !isFSyncFrame(fsyncFrame()) {
		t.Error("Should recognize FSYNC frame")
	}

	notFsync := make([]byte, FrameSize)
	notFsync[0] = 0x27 // ID byte
	if isFSyncFrame(notFsync) {
		t.Error("Should not recognize as FSYNC frame")
	}
}

func TestDeformatterReset(t *testing.T) {
	d := NewDeformatter(1)
	d.Write(itmFrame()[:5])
	d.Reset()
	if d.Pending() != 0 {
		t.Errorf("Pending() after Reset = %d", d.Pending())
	}
	if got := d.Write(itmFrame()); len(got) != len(itmFrameData) {
		t.Errorf("got %d bytes after Reset, want %d", len(got), len(itmFrameData))
	}
}

func fsyncWordBytes() []byte { return []byte{0xFF, 0xFF, 0xFF, 0x7F} }

func TestStreamDeformatterJoinsMidFrame(t *testing.T) {
	var stream []byte
	stream = append(stream, itmFrame()[9:]...) // tail of a frame sent before we connected
	stream = append(stream, fsyncWordBytes()...)
	stream = append(stream, itmFrame()...)
	stream = append(stream, itmFrame()...)

	want := append(append([]byte(nil), itmFrameData...), itmFrameData...)

	for _, chunk := range []int{1, 2, 5, 16, len(stream)} {
		d := NewStreamDeformatter(1)
		var got []byte
		for off := 0; off < len(stream); off += chunk {
			end := min(off+chunk, len(stream))
			got = append(got, d.Write(stream[off:end])...)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("chunk %d: mismatch (-want +got):\n%s", chunk, diff)
		}
		if !d.Synced() {
			t.Errorf("chunk %d: not synced", chunk)
		}
	}
}

func TestStreamDeformatterNeedsFSync(t *testing.T) {
	d := NewStreamDeformatter(1)
	if got := d.Write(append(itmFrame(), itmFrame()...)); len(got) != 0 {
		t.Errorf("unsynced stream produced %v", got)
	}
	if d.Synced() {
		t.Error("Synced() without an FSYNC")
	}
	if !NewDeformatter(1).Synced() {
		t.Error("aligned deformatter should always report synced")
	}
}

func TestStreamDeformatterSkipsFSyncBetweenFrames(t *testing.T) {
	var stream []byte
	stream = append(stream, fsyncWordBytes()...)
	stream = append(stream, itmFrame()...)
	stream = append(stream, fsyncWordBytes()...)
	stream = append(stream, fsyncWordBytes()...)
	stream = append(stream, itmFrame()...)

	d := NewStreamDeformatter(1)
	got := d.Write(stream)
	want := append(append([]byte(nil), itmFrameData...), itmFrameData...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	frames, fsyncs, _ := d.Stats()
	if frames != 2 || fsyncs != 3 {
		t.Errorf("Stats() frames=%d fsyncs=%d, want 2, 3", frames, fsyncs)
	}
}

func TestStreamDeformatterFullFSyncResetsID(t *testing.T) {
	noIDFrame := make([]byte, FrameSize)
	noIDFrame[1] = 0xAA

	d := NewStreamDeformatter(1)
	d.Write(fsyncWordBytes())
	d.Write(itmFrame())
	d.Write(fsyncFrame())
	if got := d.Write(noIDFrame); len(got) != 0 {
		t.Errorf("got %d bytes after full FSYNC frame, want 0", len(got))
	}
}

func TestStreamDeformatterResetNeedsResync(t *testing.T) {
	d := NewStreamDeformatter(1)
	d.Write(fsyncWordBytes())
	if got := d.Write(itmFrame()); len(got) != len(itmFrameData) {
		t.Fatalf("got %d bytes, want %d", len(got), len(itmFrameData))
	}

	d.Reset()
	if got := d.Write(itmFrame()); len(got) != 0 {
		t.Errorf("got %d bytes before resync, want 0", len(got))
	}
	got := d.Write(append(fsyncWordBytes(), itmFrame()...))
	if diff := cmp.Diff(itmFrameData, got); diff != "" {
		t.Errorf("after resync (-want +got):\n%s", diff)
	}
}
