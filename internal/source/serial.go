package source

import (
	"context"
	"fmt"
	"io"

	"github.com/jacobsa/go-serial/serial"
)

// Serial reads SWO from a UART-mode debug adapter or USB CDC device.
type Serial struct {
	Device string
	Baud   int
}

func (s *Serial) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := serial.OpenOptions{
		PortName:        s.Device,
		BaudRate:        uint(s.Baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}

	port, err := serial.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", s.Device, err)
	}
	return port, nil
}

func (s *Serial) String() string {
	return fmt.Sprintf("serial://%s@%d", s.Device, s.Baud)
}
