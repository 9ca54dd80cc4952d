package ocsd

import "testing"

func TestDefaultSeverity(t *testing.T) {
	tests := []struct {
		code Err
		sev  ErrSeverity
	}{
		{OK, ErrSevNone},
		{ErrUnderfull, ErrSevInfo},
		{ErrUnconfiguredPort, ErrSevInfo},
		{ErrInvalidHeaderSize, ErrSevWarn},
		{ErrSizeMismatch, ErrSevWarn},
		{ErrITMOverflow, ErrSevWarn},
		{ErrParseBufOverrun, ErrSevWarn},
		{ErrUnsuppSyncPkt, ErrSevWarn},
		{ErrUnsuppHWSrcPkt, ErrSevWarn},
		{ErrUnknown, ErrSevError},
		{Err(99), ErrSevError},
	}
	for _, tc := range tests {
		if got := DefaultSeverity(tc.code); got != tc.sev {
			t.Errorf("DefaultSeverity(%d) = %d, want %d", tc.code, got, tc.sev)
		}
	}
}

func TestHasPort(t *testing.T) {
	withPort := map[Err]bool{
		ErrUnderfull:         true,
		ErrUnconfiguredPort:  true,
		ErrInvalidHeaderSize: true,
		ErrSizeMismatch:      true,
		ErrUnsuppHWSrcPkt:    true,
	}
	for code := OK; code < ErrLast; code++ {
		if got := HasPort(code); got != withPort[code] {
			t.Errorf("HasPort(%d) = %v, want %v", code, got, withPort[code])
		}
	}
}

func TestIsValidPort(t *testing.T) {
	if !IsValidPort(0) || !IsValidPort(31) {
		t.Error("ports 0 and 31 should be valid")
	}
	if IsValidPort(-1) || IsValidPort(32) {
		t.Error("ports -1 and 32 should be invalid")
	}
}
