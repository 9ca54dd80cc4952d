package daq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"itmscope/common"
)

// Supervisor reruns a session after transport failures.
type Supervisor struct {
	Session       *Session
	RetryInterval time.Duration
	// MaxAttempts bounds consecutive failed opens; 0 retries forever.
	MaxAttempts int
}

// Run returns nil when ctx is cancelled or a finite source ends. A live
// source that closes (ErrRemoteClosed) is reopened like any other
// transport failure.
func (s *Supervisor) Run(ctx context.Context) error {
	log := s.Session.logger()
	failures := 0

	for {
		err := s.Session.Run(ctx)
		if ctx.Err() != nil || err == nil {
			return nil
		}

		var openErr *OpenError
		if errors.As(err, &openErr) {
			failures++
		} else {
			// the session was up; count from scratch
			failures = 0
		}
		if s.MaxAttempts > 0 && failures >= s.MaxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", failures, err)
		}

		log.Logf(common.SeverityWarning, "%v; retrying in %s", err, s.RetryInterval)
		if !sleepCtx(ctx, s.RetryInterval) {
			return nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
