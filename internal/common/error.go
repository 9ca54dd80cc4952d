package common

import (
	"errors"
	"fmt"
	"strings"

	"itmscope/internal/ocsd"
)

// Error represents a decode outcome or a library error.
// Port is ocsd.BadPort when the outcome is not tied to a stimulus port.
type Error struct {
	Code ocsd.Err
	Sev  ocsd.ErrSeverity
	Idx  ocsd.TrcIndex
	Port uint8
}

func NewError(sev ocsd.ErrSeverity, code ocsd.Err) *Error {
	return &Error{
		Code: code,
		Sev:  sev,
		Idx:  ocsd.BadTrcIndex,
		Port: ocsd.BadPort,
	}
}

func NewErrorWithPort(sev ocsd.ErrSeverity, code ocsd.Err, port uint8) *Error {
	return &Error{
		Code: code,
		Sev:  sev,
		Idx:  ocsd.BadTrcIndex,
		Port: port,
	}
}

// WithIdx returns a copy of e located at the given trace index.
func (e *Error) WithIdx(idx ocsd.TrcIndex) *Error {
	c := *e
	c.Idx = idx
	return &c
}

// Error implements the standard error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	switch e.Sev {
	case ocsd.ErrSevNone:
		return "LIBRARY INTERNAL ERROR: Invalid Error Object"
	case ocsd.ErrSevError:
		sb.WriteString("ERROR:")
	case ocsd.ErrSevWarn:
		sb.WriteString("WARN :")
	case ocsd.ErrSevInfo:
		sb.WriteString("INFO :")
	default:
		return "LIBRARY INTERNAL ERROR: Invalid Error Object"
	}

	sb.WriteString(fmt.Sprintf("0x%04x ", e.Code))

	if desc, ok := errorCodeDesc[e.Code]; ok {
		sb.WriteString(fmt.Sprintf("(%s) [%s]; ", desc.name, desc.msg))
	} else {
		sb.WriteString("(unknown); ")
	}

	if e.Idx != ocsd.BadTrcIndex {
		sb.WriteString(fmt.Sprintf("TrcIdx=%d; ", e.Idx))
	}

	if e.Port != ocsd.BadPort {
		sb.WriteString(fmt.Sprintf("Port=%d; ", e.Port))
	}
	return sb.String()
}

// Is matches another *Error with the same code. A target without a port
// matches every port.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Port == ocsd.BadPort || t.Port == e.Port
}

// CodeOf extracts the outcome code carried by err. A nil error is ocsd.OK,
// and errors that are not *Error report ocsd.ErrUnknown.
func CodeOf(err error) ocsd.Err {
	if err == nil {
		return ocsd.OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ocsd.ErrUnknown
}

// CodeName returns the short name of an outcome code.
func CodeName(code ocsd.Err) string {
	if desc, ok := errorCodeDesc[code]; ok {
		return desc.name
	}
	return "UNKNOWN"
}

// CodeDescription returns the one-line description of an outcome code.
func CodeDescription(code ocsd.Err) string {
	if desc, ok := errorCodeDesc[code]; ok {
		return desc.msg
	}
	return "Unknown error code."
}

type errDesc struct {
	name string
	msg  string
}

var errorCodeDesc = map[ocsd.Err]errDesc{
	ocsd.OK:                   {"ITM_OK", "No Error."},
	ocsd.ErrUnderfull:         {"ITM_UNDERFULL", "Not enough bytes buffered to decode packet."},
	ocsd.ErrUnconfiguredPort:  {"ITM_UNCONFIGURED_PORT", "Dropping packet on unconfigured port."},
	ocsd.ErrInvalidHeaderSize: {"ITM_INVALID_HEADER_SIZE", "Invalid size field in packet header."},
	ocsd.ErrSizeMismatch:      {"ITM_SIZE_MISMATCH", "Packet size is not a multiple of the port decode type width."},
	ocsd.ErrITMOverflow:       {"ITM_OVERFLOW", "ITM hardware buffer overflowed, trace lost."},
	ocsd.ErrParseBufOverrun:   {"ITM_PARSE_BUF_OVERRUN", "Flushed full parse buffer, assuming ITM/TPIU was reset."},
	ocsd.ErrUnsuppSyncPkt:     {"ITM_UNSUPP_SYNC_PKT", "Synchronisation packet not supported."},
	ocsd.ErrUnsuppHWSrcPkt:    {"ITM_UNSUPP_HW_SRC_PKT", "Hardware source packet not supported."},
	ocsd.ErrUnknown:           {"ITM_UNKNOWN", "Unmatched packet header."},
	ocsd.ErrLast:              {"ITM_LAST", "No error - error code end marker"},
}
