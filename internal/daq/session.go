package daq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"itmscope/common"
	ierr "itmscope/internal/common"
	"itmscope/internal/itm"
	"itmscope/internal/observability"
	"itmscope/internal/ocsd"
	"itmscope/internal/source"
	"itmscope/internal/tpiu"
)

const defaultReadSize = 4096

// ErrRemoteClosed reports EOF on a live source: the SWO server or the
// serial device went away.
var ErrRemoteClosed = errors.New("remote closed the stream")

// OpenError reports that the source could not be opened at all.
type OpenError struct {
	Source string
	Err    error
}

func (e *OpenError) Error() string { return fmt.Sprintf("open %s: %v", e.Source, e.Err) }
func (e *OpenError) Unwrap() error { return e.Err }

// RawTap observes the undecoded stream, chunk by chunk, at its byte offset.
type RawTap interface {
	TraceRawIn(index ocsd.TrcIndex, data []byte)
}

// Session is one connection to a trace source. Each Run starts with a
// fresh decoder so no partial packet survives a reconnect.
type Session struct {
	Source   source.Source
	Ports    itm.PortConfig
	TPIU     *tpiu.Deformatter // nil when the stream is not TPIU formatted
	Handlers []Handler
	Logger   common.Logger
	Raw      RawTap

	// ReadSize is the read chunk size, defaultReadSize when zero.
	ReadSize int

	now func() time.Time
}

func (s *Session) logger() common.Logger {
	if s.Logger == nil {
		return common.NewNoOpLogger()
	}
	return s.Logger
}

func (s *Session) timestamp() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Session) emit(ev Event) {
	ev.Time = s.timestamp()
	ev.Source = s.Source.String()
	for _, h := range s.Handlers {
		h.HandleEvent(ev)
	}
}

// Run reads the source until ctx is cancelled, a finite source reaches
// EOF, or the transport fails. Only the last case returns an error; EOF on
// a live source is reported as ErrRemoteClosed.
func (s *Session) Run(ctx context.Context) error {
	if s.Source == nil {
		return errors.New("session has no source")
	}
	log := s.logger()

	rc, err := s.Source.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		openErr := &OpenError{Source: s.Source.String(), Err: err}
		s.emit(Event{Kind: EventConnectionError, Err: openErr})
		return openErr
	}
	defer rc.Close()

	// unblock a pending Read on cancellation
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			rc.Close()
		case <-done:
		}
	}()

	dec := itm.NewDecoder(s.Ports)
	if s.TPIU != nil {
		s.TPIU.Reset()
	}

	log.Logf(common.SeverityInfo, "connected to %s", s.Source)
	observability.SetConnected(true)
	s.emit(Event{Kind: EventConnected})

	runErr := s.pump(ctx, rc, dec)
	if s.TPIU != nil {
		if !s.TPIU.Synced() {
			log.Logf(common.SeverityWarning, "no TPIU frame sync seen on %s", s.Source)
		} else if s.TPIU.Pending() > 0 {
			log.Logf(common.SeverityDebug, "dropping %d bytes of an incomplete TPIU frame", s.TPIU.Pending())
		}
	}
	if dec.Buffered() > 0 {
		log.Logf(common.SeverityDebug, "dropping %d bytes of an incomplete ITM packet", dec.Buffered())
	}

	observability.SetConnected(false)
	s.emit(Event{Kind: EventDisconnected, Err: runErr})
	if runErr != nil {
		log.Logf(common.SeverityWarning, "disconnected from %s: %v", s.Source, runErr)
	} else {
		log.Logf(common.SeverityInfo, "disconnected from %s", s.Source)
	}
	return runErr
}

func (s *Session) pump(ctx context.Context, r io.Reader, dec *itm.Decoder) error {
	size := s.ReadSize
	if size <= 0 {
		size = defaultReadSize
	}
	buf := make([]byte, size)
	var offset ocsd.TrcIndex

	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := buf[:n]
			if s.Raw != nil {
				s.Raw.TraceRawIn(offset, data)
			}
			offset += ocsd.TrcIndex(n)
			if s.TPIU != nil {
				data = s.TPIU.Write(data)
			}
			observability.RecordBytes(len(data))
			for _, b := range data {
				v, stepErr := dec.Step(b)
				s.dispatch(dec, v, stepErr)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				if source.IsFinite(s.Source) {
					return nil
				}
				return fmt.Errorf("read %s: %w", s.Source, ErrRemoteClosed)
			}
			return fmt.Errorf("read %s: %w", s.Source, err)
		}
	}
}

func (s *Session) dispatch(dec *itm.Decoder, v itm.DecodedValue, err error) {
	if err == nil {
		observability.RecordValues(v.Port, v.Len())
		s.emit(Event{Kind: EventValue, Value: v})
		return
	}

	code := ierr.CodeOf(err)
	if code == ocsd.ErrUnderfull {
		return
	}
	observability.RecordOutcome(code)

	// locate the outcome at the byte that completed it
	var located *ierr.Error
	if errors.As(err, &located) {
		err = located.WithIdx(dec.Index() - 1)
	}

	log := s.logger()
	switch {
	case code == ocsd.ErrUnconfiguredPort:
		log.Debug(err.Error())
	case itm.IsFatal(err):
		log.Logf(common.SeverityError, "decoder invariant violated: %v", err)
	default:
		log.Warning(err.Error())
	}
	s.emit(Event{Kind: EventOutcome, Err: err})
}
