package common

import (
	"errors"
	"fmt"
	"testing"

	"itmscope/internal/ocsd"
)

func TestErrorStrings(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "Invalid SevNone",
			err:      NewError(ocsd.ErrSevNone, ocsd.OK),
			expected: "LIBRARY INTERNAL ERROR: Invalid Error Object",
		},
		{
			name:     "Invalid Sev Out of Bounds",
			err:      NewError(ocsd.ErrSeverity(99), ocsd.OK),
			expected: "LIBRARY INTERNAL ERROR: Invalid Error Object",
		},
		{
			name:     "Warning Basic",
			err:      NewError(ocsd.ErrSevWarn, ocsd.ErrITMOverflow),
			expected: "WARN :0x0005 (ITM_OVERFLOW) [ITM hardware buffer overflowed, trace lost.]; ",
		},
		{
			name:     "Info with port",
			err:      NewErrorWithPort(ocsd.ErrSevInfo, ocsd.ErrUnconfiguredPort, 3),
			expected: "INFO :0x0002 (ITM_UNCONFIGURED_PORT) [Dropping packet on unconfigured port.]; Port=3; ",
		},
		{
			name:     "Warning with index",
			err:      NewError(ocsd.ErrSevWarn, ocsd.ErrParseBufOverrun).WithIdx(12345),
			expected: "WARN :0x0006 (ITM_PARSE_BUF_OVERRUN) [Flushed full parse buffer, assuming ITM/TPIU was reset.]; TrcIdx=12345; ",
		},
		{
			name:     "Warning with index and port",
			err:      NewErrorWithPort(ocsd.ErrSevWarn, ocsd.ErrSizeMismatch, 22).WithIdx(10),
			expected: "WARN :0x0004 (ITM_SIZE_MISMATCH) [Packet size is not a multiple of the port decode type width.]; TrcIdx=10; Port=22; ",
		},
		{
			name:     "Unknown error code",
			err:      NewError(ocsd.ErrSevError, 9999),
			expected: "ERROR:0x270f (unknown); ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.err.Error()
			if got != tc.expected {
				t.Errorf("Expected string: %q, got: %q", tc.expected, got)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	anyPort := NewError(ocsd.ErrSevInfo, ocsd.ErrUnderfull)
	port4 := NewErrorWithPort(ocsd.ErrSevInfo, ocsd.ErrUnderfull, 4)
	port5 := NewErrorWithPort(ocsd.ErrSevInfo, ocsd.ErrUnderfull, 5)

	if !errors.Is(port4, anyPort) {
		t.Error("port error should match portless sentinel")
	}
	if errors.Is(port4, port5) {
		t.Error("different ports should not match")
	}
	if errors.Is(port4, NewError(ocsd.ErrSevWarn, ocsd.ErrITMOverflow)) {
		t.Error("different codes should not match")
	}
	wrapped := fmt.Errorf("session: %w", port4)
	if !errors.Is(wrapped, anyPort) {
		t.Error("wrapped error should still match")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != ocsd.OK {
		t.Errorf("CodeOf(nil) = %d", got)
	}
	if got := CodeOf(errors.New("plain")); got != ocsd.ErrUnknown {
		t.Errorf("CodeOf(plain) = %d", got)
	}
	err := fmt.Errorf("wrap: %w", NewError(ocsd.ErrSevWarn, ocsd.ErrSizeMismatch))
	if got := CodeOf(err); got != ocsd.ErrSizeMismatch {
		t.Errorf("CodeOf(wrapped) = %d", got)
	}
}

func TestWithIdxCopies(t *testing.T) {
	base := NewErrorWithPort(ocsd.ErrSevWarn, ocsd.ErrSizeMismatch, 1)
	at := base.WithIdx(77)
	if base.Idx != ocsd.BadTrcIndex {
		t.Errorf("base mutated: %d", base.Idx)
	}
	if at.Idx != 77 || at.Port != 1 || at.Code != ocsd.ErrSizeMismatch {
		t.Errorf("unexpected copy: %+v", at)
	}
}

func TestCodeName(t *testing.T) {
	if CodeName(ocsd.ErrITMOverflow) != "ITM_OVERFLOW" {
		t.Errorf("unexpected name %q", CodeName(ocsd.ErrITMOverflow))
	}
	if CodeName(ocsd.Err(500)) != "UNKNOWN" {
		t.Errorf("unexpected name for unknown code")
	}
}

func TestCodeDescription(t *testing.T) {
	if got := CodeDescription(ocsd.ErrUnsuppSyncPkt); got != "Synchronisation packet not supported." {
		t.Errorf("unexpected description %q", got)
	}
	if got := CodeDescription(ocsd.Err(500)); got != "Unknown error code." {
		t.Errorf("unexpected description %q", got)
	}
}
