package main

import (
	"io"

	"github.com/rs/zerolog"

	"itmscope/common"
	"itmscope/internal/config"
	"itmscope/internal/daq"
	"itmscope/internal/itm"
	"itmscope/internal/observability"
	"itmscope/internal/source"
	"itmscope/internal/tpiu"
)

// pipeline is the decoding core shared by run and decode.
type pipeline struct {
	cfg     config.Config
	log     zerolog.Logger
	decLog  *common.ZeroLogger
	ports   itm.PortConfig
	session *daq.Session
}

func newPipeline(cfg config.Config, logOut io.Writer) (*pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := observability.InitLoggerTo(logOut, "itmscope", cfg.Log.Level)

	ports, err := cfg.PortConfig()
	if err != nil {
		return nil, err
	}
	src, err := source.New(cfg.Source)
	if err != nil {
		return nil, err
	}

	decLog := observability.DecoderLogger(logger).With("source", src.String())
	session := &daq.Session{
		Source: src,
		Ports:  ports,
		Logger: decLog,
	}
	if cfg.TPIU.Enabled {
		session.TPIU = tpiu.NewDeformatter(cfg.TPIU.TraceID)
		session.TPIU.FrameSync = cfg.TPIU.FrameSync
		logger.Debug().Uint8("trace_id", session.TPIU.TraceID()).Bool("frame_sync", session.TPIU.FrameSync).Msg("tpiu deformatter enabled")
	}

	for _, p := range ports.Enabled() {
		logger.Debug().Int("port", p.Address).Str("name", p.Name).Stringer("type", p.Type).Msg("port enabled")
	}
	return &pipeline{cfg: cfg, log: logger, decLog: decLog, ports: ports, session: session}, nil
}

func (p *pipeline) add(h ...daq.Handler) {
	p.session.Handlers = append(p.session.Handlers, h...)
}
