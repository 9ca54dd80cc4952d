package itm

import (
	"errors"
	"strings"

	"itmscope/internal/common"
	"itmscope/internal/ocsd"
)

// MaxValuesPerPacket is the most values one packet can carry: a 4 byte payload of 1 byte chars.
const MaxValuesPerPacket = 4

// DecodedValue is the typed content of one software stimulus packet.
type DecodedValue struct {
	Port uint8
	data [MaxValuesPerPacket]Value
	n    int
}

// NewDecodedValue builds a DecodedValue; values beyond MaxValuesPerPacket are dropped.
func NewDecodedValue(port uint8, values ...Value) DecodedValue {
	d := DecodedValue{Port: port}
	for _, v := range values {
		if d.n == MaxValuesPerPacket {
			break
		}
		d.data[d.n] = v
		d.n++
	}
	return d
}

// Len returns the number of values in the packet.
func (d DecodedValue) Len() int { return d.n }

// Values returns a copy of the decoded values.
func (d DecodedValue) Values() []Value {
	out := make([]Value, d.n)
	copy(out, d.data[:d.n])
	return out
}

// Equal reports whether both packets came from the same port with the same values.
func (d DecodedValue) Equal(o DecodedValue) bool {
	return d == o
}

// At returns value i; it panics when i is out of range.
func (d DecodedValue) At(i int) Value {
	if i < 0 || i >= d.n {
		panic("itm: value index out of range")
	}
	return d.data[i]
}

// Type returns the decode type shared by all values, TypeNone for an empty packet.
func (d DecodedValue) Type() DecodeType {
	if d.n == 0 {
		return TypeNone
	}
	return d.data[0].typ
}

// Text joins the values without separators, the way a console prints a char port.
func (d DecodedValue) Text() string {
	var sb strings.Builder
	for i := 0; i < d.n; i++ {
		sb.WriteString(d.data[i].String())
	}
	return sb.String()
}

// Sentinel outcomes for errors.Is; they match the same code on any port.
var (
	ErrUnderfull         = common.NewError(ocsd.ErrSevInfo, ocsd.ErrUnderfull)
	ErrUnconfiguredPort  = common.NewError(ocsd.ErrSevInfo, ocsd.ErrUnconfiguredPort)
	ErrInvalidHeaderSize = common.NewError(ocsd.ErrSevWarn, ocsd.ErrInvalidHeaderSize)
	ErrSizeMismatch      = common.NewError(ocsd.ErrSevWarn, ocsd.ErrSizeMismatch)
	ErrOverflow          = common.NewError(ocsd.ErrSevWarn, ocsd.ErrITMOverflow)
	ErrParseBufOverrun   = common.NewError(ocsd.ErrSevWarn, ocsd.ErrParseBufOverrun)
	ErrUnsupportedSync   = common.NewError(ocsd.ErrSevWarn, ocsd.ErrUnsuppSyncPkt)
	ErrUnsupportedHWSrc  = common.NewError(ocsd.ErrSevWarn, ocsd.ErrUnsuppHWSrcPkt)
	ErrUnknown           = common.NewError(ocsd.ErrSevError, ocsd.ErrUnknown)
)

// outcomes holds one immutable error per code and port so Step never allocates.
var outcomes = func() (t [ocsd.ErrLast][NumPorts + 1]*common.Error) {
	for code := ocsd.ErrUnderfull; code < ocsd.ErrLast; code++ {
		sev := ocsd.DefaultSeverity(code)
		if !ocsd.HasPort(code) {
			t[code][NumPorts] = common.NewError(sev, code)
			continue
		}
		for port := 0; port < NumPorts; port++ {
			t[code][port] = common.NewErrorWithPort(sev, code, uint8(port))
		}
	}
	return t
}()

func outcome(code ocsd.Err) error {
	return outcomes[code][NumPorts]
}

func portOutcome(code ocsd.Err, port uint8) error {
	return outcomes[code][port&0x1F]
}

// IsQuiet reports outcomes a caller normally ignores: Underfull means more bytes
// are needed and UnconfiguredPort means the port is not observed.
func IsQuiet(err error) bool {
	return errors.Is(err, ErrUnderfull) || errors.Is(err, ErrUnconfiguredPort)
}

// IsUnsupported reports packet kinds the decoder recognises but does not decode.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedSync) || errors.Is(err, ErrUnsupportedHWSrc)
}

// IsFatal reports an invariant violation in header matching.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnknown)
}

// PortOf returns the port an outcome refers to, ok is false for portless outcomes.
func PortOf(err error) (port uint8, ok bool) {
	var e *common.Error
	if errors.As(err, &e) && e.Port != ocsd.BadPort {
		return e.Port, true
	}
	return 0, false
}
