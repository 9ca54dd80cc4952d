package itm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodeType selects how the payload bytes of a port are interpreted.
type DecodeType uint8

const (
	TypeNone DecodeType = iota // port disabled
	TypeChar
	TypeU32
	TypeI32
	TypeF32
	TypeFixed16_16
)

// AllDecodeTypes lists every selectable decode type, disabled first.
var AllDecodeTypes = [...]DecodeType{TypeNone, TypeChar, TypeU32, TypeI32, TypeF32, TypeFixed16_16}

// Width returns the encoded byte width of one value of this type.
// TypeNone has no width.
func (t DecodeType) Width() int {
	switch t {
	case TypeChar:
		return 1
	case TypeU32, TypeI32, TypeF32, TypeFixed16_16:
		return 4
	default:
		return 0
	}
}

func (t DecodeType) String() string {
	switch t {
	case TypeNone:
		return "off"
	case TypeChar:
		return "char"
	case TypeU32:
		return "u32"
	case TypeI32:
		return "i32"
	case TypeF32:
		return "f32"
	case TypeFixed16_16:
		return "i16f16"
	default:
		return fmt.Sprintf("DecodeType(%d)", uint8(t))
	}
}

// IsNumeric reports whether values of this type have a numeric projection.
func (t DecodeType) IsNumeric() bool {
	switch t {
	case TypeU32, TypeI32, TypeF32, TypeFixed16_16:
		return true
	}
	return false
}

// ParseDecodeType converts a configuration name into a DecodeType.
func ParseDecodeType(s string) (DecodeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none", "disabled":
		return TypeNone, nil
	case "char":
		return TypeChar, nil
	case "u32":
		return TypeU32, nil
	case "i32":
		return TypeI32, nil
	case "f32":
		return TypeF32, nil
	case "i16f16", "fixed16_16", "q16.16":
		return TypeFixed16_16, nil
	}
	return TypeNone, fmt.Errorf("unknown decode type %q", s)
}

// MarshalText lets DecodeType appear directly in TOML and JSON documents.
func (t DecodeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (t *DecodeType) UnmarshalText(text []byte) error {
	v, err := ParseDecodeType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Decode reads one value from exactly Width() little-endian bytes.
// Passing a slice of another length, or decoding TypeNone, is a caller bug and panics.
func (t DecodeType) Decode(raw []byte) Value {
	if w := t.Width(); w == 0 || len(raw) != w {
		panic(fmt.Sprintf("itm: decode %v from %d bytes", t, len(raw)))
	}
	if t == TypeChar {
		return Value{typ: TypeChar, bits: uint32(raw[0])}
	}
	return Value{typ: t, bits: binary.LittleEndian.Uint32(raw)}
}

// Fixed16_16 is a signed Q16.16 fixed point number: 16 integer bits, 16 fraction bits.
type Fixed16_16 int32

const fixedOne = 1 << 16

// FixedFromFloat64 converts f to the nearest representable Q16.16 value, saturating at the range limits.
func FixedFromFloat64(f float64) Fixed16_16 {
	scaled := math.Round(f * fixedOne)
	if scaled >= math.MaxInt32 {
		return Fixed16_16(math.MaxInt32)
	}
	if scaled <= math.MinInt32 {
		return Fixed16_16(math.MinInt32)
	}
	return Fixed16_16(int32(scaled))
}

// Float64 is exact: every Q16.16 value fits the float64 mantissa.
func (f Fixed16_16) Float64() float64 {
	return float64(f) / fixedOne
}

// String renders the exact decimal value; 16 fraction bits never need more
// than 16 decimal places.
func (f Fixed16_16) String() string {
	s := strconv.FormatFloat(f.Float64(), 'f', 16, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Value is one decoded scalar. The decode type is the variant tag and bits
// holds the little-endian payload reinterpreted as uint32.
type Value struct {
	typ  DecodeType
	bits uint32
}

func CharValue(c byte) Value        { return Value{typ: TypeChar, bits: uint32(c)} }
func U32Value(v uint32) Value       { return Value{typ: TypeU32, bits: v} }
func I32Value(v int32) Value        { return Value{typ: TypeI32, bits: uint32(v)} }
func F32Value(v float32) Value      { return Value{typ: TypeF32, bits: math.Float32bits(v)} }
func FixedValue(v Fixed16_16) Value { return Value{typ: TypeFixed16_16, bits: uint32(v)} }

// Type returns the variant tag.
func (v Value) Type() DecodeType { return v.typ }

// Width returns the encoded byte width of v.
func (v Value) Width() int { return v.typ.Width() }

// WithData decodes raw as a new value of the same variant as v.
func (v Value) WithData(raw []byte) Value { return v.typ.Decode(raw) }

func (v Value) Uint32() uint32    { return v.bits }
func (v Value) Int32() int32      { return int32(v.bits) }
func (v Value) Float32() float32  { return math.Float32frombits(v.bits) }
func (v Value) Fixed() Fixed16_16 { return Fixed16_16(int32(v.bits)) }

// Equal compares variant and payload bits.
func (v Value) Equal(o Value) bool { return v == o }

// Bytes returns the little-endian encoding of v; only the first Width() bytes are meaningful.
func (v Value) Bytes() [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v.bits)
	return b
}

// Float64 projects a numeric value onto float64.
// Char values are text, not measurements, and panic.
func (v Value) Float64() float64 {
	switch v.typ {
	case TypeU32:
		return float64(v.bits)
	case TypeI32:
		return float64(int32(v.bits))
	case TypeF32:
		return float64(math.Float32frombits(v.bits))
	case TypeFixed16_16:
		return v.Fixed().Float64()
	default:
		panic(fmt.Sprintf("itm: numeric projection of %v value", v.typ))
	}
}

// Byte returns the character of a Char value and panics for any other type.
func (v Value) Byte() byte {
	if v.typ != TypeChar {
		panic(fmt.Sprintf("itm: byte projection of %v value", v.typ))
	}
	return byte(v.bits)
}

func (v Value) String() string {
	switch v.typ {
	case TypeChar:
		return string(rune(byte(v.bits)))
	case TypeU32:
		return strconv.FormatUint(uint64(v.bits), 10)
	case TypeI32:
		return strconv.FormatInt(int64(int32(v.bits)), 10)
	case TypeF32:
		return strconv.FormatFloat(float64(math.Float32frombits(v.bits)), 'f', -1, 32)
	case TypeFixed16_16:
		return v.Fixed().String()
	default:
		return "<none>"
	}
}
