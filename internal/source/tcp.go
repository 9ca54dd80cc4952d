package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// TCP connects to a debug adapter's SWO stream server, e.g. the raw SWO port
// exported by a GDB server or similar.
type TCP struct {
	Addr    string
	NoDelay bool

	// DialTimeout bounds the connect attempt; zero means 5s.
	DialTimeout time.Duration
}

func (t *TCP) Open(ctx context.Context) (io.ReadCloser, error) {
	timeout := t.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.Addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(t.NoDelay); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set nodelay: %w", err)
		}
	}
	return conn, nil
}

func (t *TCP) String() string {
	return "tcp://" + t.Addr
}
