// Package tpiu strips CoreSight TPIU formatter framing from a byte stream.
// The TPIU wraps every trace source in 16-byte frames with embedded trace
// source IDs. The Deformatter keeps the bytes of a single ID, typically the
// ITM stimulus stream.
package tpiu

import "sync/atomic"

// FrameSize is the size of a TPIU formatter frame in bytes
const FrameSize = 16

// noID marks "no current trace source"; valid IDs are 0-127.
const noID uint8 = 0xFF

// DefaultTraceID is the ATB ID conventionally assigned to ITM.
const DefaultTraceID uint8 = 1

// fsyncWord is FF FF FF 7F shifted in byte by byte.
const fsyncWord uint32 = 0xFFFFFF7F

// Deformatter extracts the data of one trace ID from formatted frames.
// Frames may arrive split across any number of Write calls.
type Deformatter struct {
	traceID uint8

	// ResetOnFSync drops the current ID when a full FSYNC frame arrives.
	ResetOnFSync bool

	// FrameSync selects continuous-mode streams: frame boundaries are found
	// from the first FSYNC and 4-byte FSYNCs between frames are skipped.
	// When false every 16 bytes from the start of the stream are a frame.
	FrameSync bool

	currID  uint8
	frame   [FrameSize]byte
	pending int
	out     []byte

	synced  bool
	window  uint32
	syncRun int

	// counters may be read from other goroutines through Stats
	frames  atomic.Uint64
	fsyncs  atomic.Uint64
	dropped atomic.Uint64
}

// NewDeformatter creates a deformatter that keeps bytes for traceID.
func NewDeformatter(traceID uint8) *Deformatter {
	return &Deformatter{
		traceID:      traceID & 0x7F,
		ResetOnFSync: true,
		currID:       noID,
	}
}

// TraceID returns the trace source ID being extracted.
func (d *Deformatter) TraceID() uint8 {
	return d.traceID
}

// NewStreamDeformatter creates a deformatter for a live continuous-mode
// stream that may be joined mid-frame.
func NewStreamDeformatter(traceID uint8) *Deformatter {
	d := NewDeformatter(traceID)
	d.FrameSync = true
	return d
}

// Reset clears frame alignment and the current ID.
func (d *Deformatter) Reset() {
	d.currID = noID
	d.pending = 0
	d.out = d.out[:0]
	d.synced = false
	d.window = 0
	d.syncRun = 0
}

// Synced reports whether frame boundaries are known. Always true unless
// FrameSync is set.
func (d *Deformatter) Synced() bool {
	return !d.FrameSync || d.synced
}

// Pending returns the number of bytes of an incomplete frame held back.
func (d *Deformatter) Pending() int {
	return d.pending
}

// Stats returns frames processed, FSYNCs seen (whole frames when aligned,
// 4-byte words with FrameSync) and data bytes discarded because they
// belonged to other IDs or to no ID yet.
func (d *Deformatter) Stats() (frames, fsyncs, dropped uint64) {
	return d.frames.Load(), d.fsyncs.Load(), d.dropped.Load()
}

// Write consumes raw formatted bytes and returns the extracted data for the
// configured trace ID. The returned slice is reused by the next call.
func (d *Deformatter) Write(p []byte) []byte {
	d.out = d.out[:0]
	if d.FrameSync {
		d.writeSynced(p)
	} else {
		d.writeAligned(p)
	}
	return d.out
}

func (d *Deformatter) writeAligned(p []byte) {
	for len(p) > 0 {
		n := copy(d.frame[d.pending:], p)
		d.pending += n
		p = p[n:]

		if d.pending < FrameSize {
			break
		}
		d.pending = 0
		d.frames.Add(1)

		if isFSyncFrame(d.frame[:]) {
			d.fsyncs.Add(1)
			if d.ResetOnFSync {
				d.currID = noID
			}
			continue
		}
		d.unpackFrame(d.frame[:])
	}
}

func (d *Deformatter) writeSynced(p []byte) {
	for _, b := range p {
		if !d.synced {
			d.window = d.window<<8 | uint32(b)
			if d.window == fsyncWord {
				d.synced = true
				d.pending = 0
				d.fsyncs.Add(1)
				d.syncRun = 1
			}
			continue
		}

		d.frame[d.pending] = b
		d.pending++
		if d.pending == 4 && isFSync(d.frame[:4]) {
			d.pending = 0
			d.fsyncs.Add(1)
			d.syncRun++
			// four in a row form a full FSYNC frame
			if d.syncRun%4 == 0 && d.ResetOnFSync {
				d.currID = noID
			}
			continue
		}
		if d.pending < FrameSize {
			continue
		}
		d.pending = 0
		d.syncRun = 0
		d.frames.Add(1)
		d.unpackFrame(d.frame[:])
	}
}

// isFSyncFrame checks if a 16-byte frame is all FSYNCs.
func isFSyncFrame(frame []byte) bool {
	if len(frame) < FrameSize {
		return false
	}
	// FSYNC pattern is 0x7FFFFFFF in little-endian
	for i := 0; i < FrameSize; i += 4 {
		if !isFSync(frame[i : i+4]) {
			return false
		}
	}
	return true
}

func isFSync(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0xFF && data[1] == 0xFF &&
		data[2] == 0xFF && data[3] == 0x7F
}

func (d *Deformatter) emit(id, b uint8) {
	if id == d.traceID {
		d.out = append(d.out, b)
		return
	}
	d.dropped.Add(1)
}

// unpackFrame extracts data bytes from a 16-byte frame.
// Frame format:
// - Bytes 0-14: Data or ID bytes
// - Byte 15: Flag bits for bytes 0,2,4,6,8,10,12,14
//
// ID byte: LSB=1, bits[7:1] = trace ID
// Data byte: LSB=0, bits[7:1] = data (combined with flag bit)
func (d *Deformatter) unpackFrame(frame []byte) {
	flags := frame[15]
	flagBit := uint8(0x01)

	for i := 0; i < 14; i += 2 {
		b0 := frame[i]
		b1 := frame[i+1]

		prevIDChange := false

		if (b0 & 0x01) != 0 {
			newID := (b0 >> 1) & 0x7F

			if newID != d.currID {
				// flag set: b1 still belongs to the previous ID
				prevIDChange = (flags & flagBit) != 0
				if prevIDChange {
					d.emit(d.currID, b1)
				}
				d.currID = newID
			}
		} else {
			dataByte := b0
			if (flags & flagBit) != 0 {
				dataByte |= 0x01
			}
			d.emit(d.currID, dataByte)
		}

		if !prevIDChange {
			d.emit(d.currID, b1)
		}

		flagBit <<= 1
	}

	b14 := frame[14]
	if (b14 & 0x01) != 0 {
		d.currID = (b14 >> 1) & 0x7F
		return
	}
	dataByte := b14
	if (flags & flagBit) != 0 {
		dataByte |= 0x01
	}
	d.emit(d.currID, dataByte)
}
