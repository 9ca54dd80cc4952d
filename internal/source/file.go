package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// File replays a captured raw stream. EOF ends the session.
type File struct {
	Path string
}

func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fp, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	return fp, nil
}

// Finite implements Finite: a capture ends at EOF.
func (f *File) Finite() bool { return true }

func (f *File) String() string {
	return "file://" + f.Path
}
