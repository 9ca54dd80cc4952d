package itm

import (
	"itmscope/internal/ocsd"
)

// Header byte patterns.
const (
	hdrOverflow  = 0x70 // whole byte: ITM FIFO overflowed
	hdrHWSource  = 0x04 // bit 2: 0 = software stimulus, 1 = hardware source
	hdrSizeMask  = 0x03 // bits 1:0: payload size code
	hdrAddrShift = 3    // bits 7:3: port address
	hdrAddrMask  = 0x1F
)

var syncPacket = [lookaheadSize]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x80}

// Decoder converts a byte stream into typed stimulus port values.
//
// Step is called once per incoming byte in arrival order. A Decoder is not
// safe for concurrent use; construct one per trace session.
type Decoder struct {
	ports PortConfig
	buf   lookahead
	index ocsd.TrcIndex
}

// NewDecoder creates a decoder with its own copy of the port configuration.
func NewDecoder(ports PortConfig) *Decoder {
	return &Decoder{ports: ports}
}

// Ports returns the configuration the decoder was built with.
func (d *Decoder) Ports() PortConfig { return d.ports }

// Buffered returns the number of bytes held for the packet being framed.
func (d *Decoder) Buffered() int { return d.buf.len() }

// Index returns the number of bytes stepped since construction or Reset.
func (d *Decoder) Index() ocsd.TrcIndex { return d.index }

// Reset drops any partially framed packet, as after a transport reconnect.
func (d *Decoder) Reset() {
	d.buf.reset()
	d.index = 0
}

// Step feeds one byte to the decoder.
//
// A nil error means a packet completed and the DecodedValue is valid. Every
// other outcome is a *common.Error; none of them stop the decoder, which is
// always ready for the next byte. Use IsQuiet, IsUnsupported and IsFatal, or
// errors.Is against the Err* sentinels, to classify them.
func (d *Decoder) Step(b byte) (DecodedValue, error) {
	d.index++

	// A full buffer means the previous packet never resolved: the source was
	// reset or we lost sync. Start over from this byte.
	if d.buf.full() {
		d.buf.reset()
		d.buf.push(b)
		return DecodedValue{}, outcome(ocsd.ErrParseBufOverrun)
	}
	d.buf.push(b)

	head := d.buf.at(0)
	switch {
	case d.buf.equals(syncPacket[:]):
		d.buf.pop(lookaheadSize, 0)
		return DecodedValue{}, outcome(ocsd.ErrUnsuppSyncPkt)

	case head == hdrOverflow:
		d.buf.pop(1, 0)
		return DecodedValue{}, outcome(ocsd.ErrITMOverflow)

	case head&hdrHWSource != 0:
		return d.hwSourcePacket(head)

	case head&hdrHWSource == 0:
		return d.swSourcePacket(head)
	}
	return DecodedValue{}, outcome(ocsd.ErrUnknown)
}

// payloadSize maps the header size code to a byte count, 0 for the invalid code.
func payloadSize(head byte) int {
	switch head & hdrSizeMask {
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 4
	}
	return 0
}

func headerAddr(head byte) uint8 {
	return (head >> hdrAddrShift) & hdrAddrMask
}

func (d *Decoder) swSourcePacket(head byte) (DecodedValue, error) {
	addr := headerAddr(head)
	size := payloadSize(head)
	if size == 0 {
		d.buf.pop(1, 0)
		return DecodedValue{}, portOutcome(ocsd.ErrInvalidHeaderSize, addr)
	}

	// Header stays buffered until the payload is complete.
	if d.buf.len() < 1+size {
		return DecodedValue{}, portOutcome(ocsd.ErrUnderfull, addr)
	}

	d.buf.pop(1, 0)
	payload := d.buf.pop(size, 0)

	typ, ok := d.ports.Lookup(addr)
	if !ok {
		return DecodedValue{}, portOutcome(ocsd.ErrUnconfiguredPort, addr)
	}

	// Only one packet to many values is supported.
	width := typ.Width()
	if size%width != 0 {
		return DecodedValue{}, portOutcome(ocsd.ErrSizeMismatch, addr)
	}

	out := DecodedValue{Port: addr}
	for off := 0; off < size; off += width {
		out.data[out.n] = typ.Decode(payload[off : off+width])
		out.n++
	}
	return out, nil
}

// hwSourcePacket frames hardware source packets with the same size rule as
// stimulus packets and reports them as unsupported.
func (d *Decoder) hwSourcePacket(head byte) (DecodedValue, error) {
	addr := headerAddr(head)
	size := payloadSize(head)
	if size != 0 && d.buf.len() < 1+size {
		return DecodedValue{}, portOutcome(ocsd.ErrUnderfull, addr)
	}
	d.buf.pop(1+size, 0)
	return DecodedValue{}, portOutcome(ocsd.ErrUnsuppHWSrcPkt, addr)
}
