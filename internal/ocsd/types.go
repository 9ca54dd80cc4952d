package ocsd

// Trace Indexing and Port IDs

// TrcIndex is the byte offset of a packet within a trace session.
type TrcIndex uint64

const (
	// BadTrcIndex is an invalid trace index value
	BadTrcIndex TrcIndex = ^TrcIndex(0)

	// BadPort marks an outcome that is not tied to a stimulus port.
	BadPort uint8 = 0xFF

	// NumPorts is the number of ITM stimulus ports addressable by a software source header.
	NumPorts = 32
)

// IsValidPort returns true if the port address fits the 5 bit header field.
func IsValidPort(port int) bool {
	return port >= 0 && port < NumPorts
}

// Decode outcome codes

// Err represents a decode outcome code. OK means a value was produced.
type Err uint32

const (
	OK                   Err = 0
	ErrUnderfull         Err = 1
	ErrUnconfiguredPort  Err = 2
	ErrInvalidHeaderSize Err = 3
	ErrSizeMismatch      Err = 4
	ErrITMOverflow       Err = 5
	ErrParseBufOverrun   Err = 6
	ErrUnsuppSyncPkt     Err = 7
	ErrUnsuppHWSrcPkt    Err = 8
	ErrUnknown           Err = 9
	ErrLast              Err = 10
)

// ErrSeverity used to indicate the severity of an error or logger verbosity
type ErrSeverity uint32

const (
	ErrSevNone  ErrSeverity = 0
	ErrSevError ErrSeverity = 1
	ErrSevWarn  ErrSeverity = 2
	ErrSevInfo  ErrSeverity = 3
)

// DefaultSeverity returns the severity an outcome code is reported with.
// Flow control and unobserved ports are info, recoverable protocol
// conditions are warnings, and an unmatched header is an error.
func DefaultSeverity(code Err) ErrSeverity {
	switch code {
	case OK:
		return ErrSevNone
	case ErrUnderfull, ErrUnconfiguredPort:
		return ErrSevInfo
	case ErrInvalidHeaderSize, ErrSizeMismatch, ErrITMOverflow, ErrParseBufOverrun,
		ErrUnsuppSyncPkt, ErrUnsuppHWSrcPkt:
		return ErrSevWarn
	default:
		return ErrSevError
	}
}

// HasPort reports whether outcomes with this code carry a port address.
func HasPort(code Err) bool {
	switch code {
	case ErrUnderfull, ErrUnconfiguredPort, ErrInvalidHeaderSize, ErrSizeMismatch, ErrUnsuppHWSrcPkt:
		return true
	}
	return false
}
