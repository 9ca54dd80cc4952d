// Package source opens the byte streams that carry SWO/ITM trace.
package source

import (
	"context"
	"fmt"
	"io"

	"itmscope/internal/config"
)

// Source produces a raw trace byte stream. Each Open starts a new
// connection; the caller owns the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// Finite is implemented by sources whose stream has a natural end, such as
// a capture file. EOF from any other source means the remote side closed.
type Finite interface {
	Finite() bool
}

// IsFinite reports whether EOF from src is a clean end of data.
func IsFinite(src Source) bool {
	f, ok := src.(Finite)
	return ok && f.Finite()
}

// New builds the source selected by cfg.Kind.
func New(cfg config.Source) (Source, error) {
	switch cfg.Kind {
	case config.SourceTCP:
		return &TCP{Addr: cfg.Address, NoDelay: cfg.NoDelay}, nil
	case config.SourceSerial:
		return &Serial{Device: cfg.Device, Baud: cfg.Baud}, nil
	case config.SourceFile:
		return &File{Path: cfg.Path}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
