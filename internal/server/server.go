// Package server exposes decoded values and session health over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"itmscope/internal/daq"
	"itmscope/internal/itm"
	"itmscope/internal/observability"
	"itmscope/internal/sinks"
)

type Options struct {
	Ports    itm.PortConfig
	Latest   *sinks.Latest
	Hub      *sinks.Hub      // nil disables /ws
	Status   *daq.Status     // nil reports only liveness
	Recorder *sinks.Recorder // nil disables /history
	Logger   zerolog.Logger

	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string
}

type Server struct {
	opts   Options
	router *gin.Engine
}

type portInfo struct {
	Address int    `json:"address"`
	Name    string `json:"name"`
	Type    string `json:"type"`
}

type historyRow struct {
	Time  time.Time `json:"time"`
	Seq   int       `json:"seq"`
	Value *float64  `json:"value,omitempty"`
	Text  *string   `json:"text,omitempty"`
}

func New(opts Options) *Server {
	observability.RegisterMetrics()
	if opts.Latest == nil {
		opts.Latest = sinks.NewLatest(opts.Ports)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(opts.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{opts: opts, router: r}
	s.registerRoutes()
	return s
}

// Handler returns the routed engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.health)
	s.router.GET("/ports", s.ports)
	s.router.GET("/latest", s.latestAll)
	s.router.GET("/latest/:port", s.latestPort)
	s.router.GET("/history/:port", s.history)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if s.opts.Hub != nil {
		s.router.GET("/ws", gin.WrapF(s.opts.Hub.ServeWS))
	}
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.opts.Status != nil {
		body["session"] = s.opts.Status.Snapshot()
	}
	if s.opts.Hub != nil {
		body["ws_clients"] = s.opts.Hub.Clients()
	}
	if s.opts.Recorder != nil {
		body["recorder_failures"] = s.opts.Recorder.Failed()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) ports(c *gin.Context) {
	enabled := s.opts.Ports.Enabled()
	out := make([]portInfo, 0, len(enabled))
	for _, p := range enabled {
		out = append(out, portInfo{Address: p.Address, Name: p.Name, Type: p.Type.String()})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) latestAll(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Latest.All())
}

func parsePort(c *gin.Context) (uint8, bool) {
	n, err := strconv.Atoi(c.Param("port"))
	if err != nil || n < 0 || n >= itm.NumPorts {
		c.JSON(http.StatusBadRequest, gin.H{"error": "port must be 0-31"})
		return 0, false
	}
	return uint8(n), true
}

func (s *Server) latestPort(c *gin.Context) {
	port, ok := parsePort(c)
	if !ok {
		return
	}
	sample, ok := s.opts.Latest.Get(port)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no value for port yet"})
		return
	}
	c.JSON(http.StatusOK, sample)
}

func (s *Server) history(c *gin.Context) {
	if s.opts.Recorder == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recorder disabled"})
		return
	}
	port, ok := parsePort(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	rows, err := s.opts.Recorder.History(port, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]historyRow, 0, len(rows))
	for _, r := range rows {
		h := historyRow{Time: r.Time, Seq: r.Seq}
		if r.Value.Valid {
			v := r.Value.Float64
			h.Value = &v
		}
		if r.Text.Valid {
			t := r.Text.String
			h.Text = &t
		}
		out = append(out, h)
	}
	c.JSON(http.StatusOK, out)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.opts.Logger.Info().Str("addr", addr).Msg("http listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.opts.Hub != nil {
			s.opts.Hub.Close()
		}
		return srv.Shutdown(shutdownCtx)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}
