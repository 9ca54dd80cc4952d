package itm

// lookaheadSize is long enough to hold a full SYNC frame before committing to
// a shorter packet interpretation.
const lookaheadSize = 6

// lookahead is a front-aligned byte buffer: slots [0,n) are occupied.
type lookahead struct {
	buf [lookaheadSize]byte
	n   int
}

func (l *lookahead) len() int   { return l.n }
func (l *lookahead) full() bool { return l.n == lookaheadSize }
func (l *lookahead) at(i int) byte {
	return l.buf[i]
}

// push appends b to the first empty slot. It reports false when the buffer is full.
func (l *lookahead) push(b byte) bool {
	if l.full() {
		return false
	}
	l.buf[l.n] = b
	l.n++
	return true
}

// reset discards every buffered byte.
func (l *lookahead) reset() {
	l.buf = [lookaheadSize]byte{}
	l.n = 0
}

// pop removes size bytes starting at start and shifts the remaining bytes
// down so the buffer stays front-aligned. Only the first MaxValuesPerPacket
// removed bytes are returned.
func (l *lookahead) pop(size, start int) (out [MaxValuesPerPacket]byte) {
	copy(out[:], l.buf[start:start+size])
	copy(l.buf[start:], l.buf[start+size:l.n])
	for i := l.n - size; i < l.n; i++ {
		l.buf[i] = 0
	}
	l.n -= size
	return out
}

// equals compares the occupied slots with p.
func (l *lookahead) equals(p []byte) bool {
	if l.n != len(p) {
		return false
	}
	for i, b := range p {
		if l.buf[i] != b {
			return false
		}
	}
	return true
}
