// Package config loads the itmscope TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"itmscope/internal/itm"
)

// Source kinds.
const (
	SourceTCP    = "tcp"
	SourceSerial = "serial"
	SourceFile   = "file"
)

const (
	DefaultAddress       = "127.0.0.1:3344"
	DefaultDevice        = "/dev/ttyACM0"
	DefaultBaud          = 115200
	DefaultListen        = "127.0.0.1:8087"
	DefaultRecorderPath  = "itmscope.db"
	DefaultRetryInterval = 2 * time.Second
	DefaultCORSOrigin    = "http://localhost:3000"
)

type Config struct {
	Source   Source
	TPIU     TPIU
	Ports    []itm.Port
	HTTP     HTTP
	Recorder Recorder
	Log      Log
	Session  Session
}

type Source struct {
	Kind    string
	Address string
	Device  string
	Baud    int
	Path    string
	NoDelay bool
}

// TPIU selects formatter framing. FrameSync searches for FSYNC before
// framing, as needed by live continuous-mode streams; turn it off for
// memory-aligned captures.
type TPIU struct {
	Enabled   bool
	TraceID   uint8
	FrameSync bool
}

type HTTP struct {
	Enabled     bool
	Listen      string
	CORSOrigins []string
}

type Recorder struct {
	Enabled bool
	Path    string
}

type Log struct {
	Level string
}

// Session controls reconnects. MaxAttempts of 0 retries forever.
type Session struct {
	RetryInterval time.Duration
	MaxAttempts   int
}

// DefaultPorts is the stimulus port layout of the stock firmware helpers:
// a counter, a fixed-point signal and a character console.
func DefaultPorts() []itm.Port {
	return []itm.Port{
		{Address: 0, Type: itm.TypeU32, Name: "counter"},
		{Address: 1, Type: itm.TypeFixed16_16, Name: "signal"},
		{Address: 2, Type: itm.TypeChar, Name: "console"},
	}
}

func Default() Config {
	return Config{
		Source: Source{
			Kind:    SourceTCP,
			Address: DefaultAddress,
			Device:  DefaultDevice,
			Baud:    DefaultBaud,
			NoDelay: true,
		},
		TPIU:  TPIU{TraceID: 1, FrameSync: true},
		Ports: DefaultPorts(),
		HTTP: HTTP{
			Listen:      DefaultListen,
			CORSOrigins: []string{DefaultCORSOrigin},
		},
		Recorder: Recorder{Path: DefaultRecorderPath},
		Log:      Log{Level: "info"},
		Session:  Session{RetryInterval: DefaultRetryInterval},
	}
}

type fileSource struct {
	Kind    string `toml:"kind"`
	Address string `toml:"address"`
	Device  string `toml:"device"`
	Baud    int    `toml:"baud"`
	Path    string `toml:"path"`
	NoDelay bool   `toml:"no_delay"`
}

type fileTPIU struct {
	Enabled   bool `toml:"enabled"`
	TraceID   int  `toml:"trace_id"`
	FrameSync bool `toml:"frame_sync"`
}

type filePort struct {
	Address int    `toml:"address"`
	Type    string `toml:"type"`
	Name    string `toml:"name,omitempty"`
}

type fileHTTP struct {
	Enabled     bool     `toml:"enabled"`
	Listen      string   `toml:"listen"`
	CORSOrigins []string `toml:"cors_origins"`
}

type fileRecorder struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type fileLog struct {
	Level string `toml:"level"`
}

type fileSession struct {
	RetryInterval string `toml:"retry_interval"`
	MaxAttempts   int    `toml:"max_attempts"`
}

type fileConfig struct {
	Source   fileSource   `toml:"source"`
	TPIU     fileTPIU     `toml:"tpiu"`
	Ports    []filePort   `toml:"port"`
	HTTP     fileHTTP     `toml:"http"`
	Recorder fileRecorder `toml:"recorder"`
	Log      fileLog      `toml:"log"`
	Session  fileSession  `toml:"session"`
}

// Load reads path and applies every key it defines over Default().
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return apply(Default(), raw, meta)
}

// Parse is Load for in-memory documents.
func Parse(doc string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(doc, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return apply(Default(), raw, meta)
}

func apply(cfg Config, raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("source", "kind") {
		cfg.Source.Kind = strings.ToLower(strings.TrimSpace(raw.Source.Kind))
	}
	if meta.IsDefined("source", "address") {
		cfg.Source.Address = strings.TrimSpace(raw.Source.Address)
	}
	if meta.IsDefined("source", "device") {
		cfg.Source.Device = strings.TrimSpace(raw.Source.Device)
	}
	if meta.IsDefined("source", "baud") {
		cfg.Source.Baud = raw.Source.Baud
	}
	if meta.IsDefined("source", "path") {
		cfg.Source.Path = strings.TrimSpace(raw.Source.Path)
	}
	if meta.IsDefined("source", "no_delay") {
		cfg.Source.NoDelay = raw.Source.NoDelay
	}

	if meta.IsDefined("tpiu", "enabled") {
		cfg.TPIU.Enabled = raw.TPIU.Enabled
	}
	if meta.IsDefined("tpiu", "trace_id") {
		if raw.TPIU.TraceID < 0 || raw.TPIU.TraceID > 0x7F {
			return Config{}, fmt.Errorf("tpiu trace_id %d out of range 0-127", raw.TPIU.TraceID)
		}
		cfg.TPIU.TraceID = uint8(raw.TPIU.TraceID)
	}
	if meta.IsDefined("tpiu", "frame_sync") {
		cfg.TPIU.FrameSync = raw.TPIU.FrameSync
	}

	if meta.IsDefined("port") {
		ports := make([]itm.Port, 0, len(raw.Ports))
		for i, p := range raw.Ports {
			typ, err := itm.ParseDecodeType(p.Type)
			if err != nil {
				return Config{}, fmt.Errorf("port[%d]: %w", i, err)
			}
			ports = append(ports, itm.Port{Address: p.Address, Type: typ, Name: strings.TrimSpace(p.Name)})
		}
		cfg.Ports = ports
	}

	if meta.IsDefined("http", "enabled") {
		cfg.HTTP.Enabled = raw.HTTP.Enabled
	}
	if meta.IsDefined("http", "listen") {
		cfg.HTTP.Listen = strings.TrimSpace(raw.HTTP.Listen)
	}
	if meta.IsDefined("http", "cors_origins") {
		origins := make([]string, 0, len(raw.HTTP.CORSOrigins))
		for _, o := range raw.HTTP.CORSOrigins {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.HTTP.CORSOrigins = origins
	}

	if meta.IsDefined("recorder", "enabled") {
		cfg.Recorder.Enabled = raw.Recorder.Enabled
	}
	if meta.IsDefined("recorder", "path") {
		cfg.Recorder.Path = strings.TrimSpace(raw.Recorder.Path)
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(raw.Log.Level))
	}

	if meta.IsDefined("session", "retry_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Session.RetryInterval))
		if err != nil {
			return Config{}, fmt.Errorf("parse retry_interval: %w", err)
		}
		cfg.Session.RetryInterval = d
	}
	if meta.IsDefined("session", "max_attempts") {
		cfg.Session.MaxAttempts = raw.Session.MaxAttempts
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Source.Kind {
	case SourceTCP:
		if c.Source.Address == "" {
			return errors.New("source address is empty")
		}
	case SourceSerial:
		if c.Source.Device == "" {
			return errors.New("source device is empty")
		}
		if c.Source.Baud <= 0 {
			return fmt.Errorf("invalid baud rate %d", c.Source.Baud)
		}
	case SourceFile:
		if c.Source.Path == "" {
			return errors.New("source path is empty")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	seen := make(map[int]bool, len(c.Ports))
	for _, p := range c.Ports {
		if p.Address < 0 || p.Address >= itm.NumPorts {
			return fmt.Errorf("port address %d out of range 0-%d", p.Address, itm.NumPorts-1)
		}
		if seen[p.Address] {
			return fmt.Errorf("port %d configured twice", p.Address)
		}
		seen[p.Address] = true
	}

	for _, o := range c.HTTP.CORSOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("cors origin %q must be \"*\" or start with http:// or https://", o)
		}
	}

	if c.Session.RetryInterval < 0 {
		return fmt.Errorf("negative retry_interval %v", c.Session.RetryInterval)
	}
	if c.Session.MaxAttempts < 0 {
		return fmt.Errorf("negative max_attempts %d", c.Session.MaxAttempts)
	}
	return nil
}

// PortConfig builds the decoder port table.
func (c Config) PortConfig() (itm.PortConfig, error) {
	return itm.PortsFromList(c.Ports)
}

// ParsePortFlag parses the command-line form "N=type[:name]".
func ParsePortFlag(s string) (itm.Port, error) {
	addrPart, rest, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok {
		return itm.Port{}, fmt.Errorf("port %q: expected N=type[:name]", s)
	}
	addr, err := strconv.Atoi(strings.TrimSpace(addrPart))
	if err != nil {
		return itm.Port{}, fmt.Errorf("port %q: bad address: %w", s, err)
	}
	if addr < 0 || addr >= itm.NumPorts {
		return itm.Port{}, fmt.Errorf("port %q: address out of range 0-%d", s, itm.NumPorts-1)
	}
	typePart, name, _ := strings.Cut(rest, ":")
	typ, err := itm.ParseDecodeType(typePart)
	if err != nil {
		return itm.Port{}, fmt.Errorf("port %q: %w", s, err)
	}
	return itm.Port{Address: addr, Type: typ, Name: strings.TrimSpace(name)}, nil
}

// WriteDefault writes the default configuration to path.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(toFile(Default())); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func toFile(c Config) fileConfig {
	ports := make([]filePort, 0, len(c.Ports))
	for _, p := range c.Ports {
		ports = append(ports, filePort{Address: p.Address, Type: p.Type.String(), Name: p.Name})
	}
	return fileConfig{
		Source: fileSource{
			Kind:    c.Source.Kind,
			Address: c.Source.Address,
			Device:  c.Source.Device,
			Baud:    c.Source.Baud,
			Path:    c.Source.Path,
			NoDelay: c.Source.NoDelay,
		},
		TPIU:     fileTPIU{Enabled: c.TPIU.Enabled, TraceID: int(c.TPIU.TraceID), FrameSync: c.TPIU.FrameSync},
		Ports:    ports,
		HTTP:     fileHTTP{Enabled: c.HTTP.Enabled, Listen: c.HTTP.Listen, CORSOrigins: c.HTTP.CORSOrigins},
		Recorder: fileRecorder{Enabled: c.Recorder.Enabled, Path: c.Recorder.Path},
		Log:      fileLog{Level: c.Log.Level},
		Session: fileSession{
			RetryInterval: c.Session.RetryInterval.String(),
			MaxAttempts:   c.Session.MaxAttempts,
		},
	}
}
