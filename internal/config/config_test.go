package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"itmscope/internal/itm"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, SourceTCP, cfg.Source.Kind)
	require.Equal(t, DefaultAddress, cfg.Source.Address)
	require.Equal(t, DefaultPorts(), cfg.Ports)
	require.False(t, cfg.TPIU.Enabled)
	require.False(t, cfg.HTTP.Enabled)
	require.False(t, cfg.Recorder.Enabled)
	require.True(t, cfg.TPIU.FrameSync)
	require.Equal(t, []string{DefaultCORSOrigin}, cfg.HTTP.CORSOrigins)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(`
[source]
kind = "serial"
device = "/dev/ttyUSB1"
baud = 2000000

[tpiu]
enabled = true
trace_id = 5
frame_sync = false

[[port]]
address = 4
type = "f32"
name = "temperature"

[[port]]
address = 31
type = "char"

[http]
enabled = true
listen = "0.0.0.0:9000"
cors_origins = ["https://scope.example", " "]

[log]
level = "DEBUG"

[session]
retry_interval = "500ms"
max_attempts = 3
`)
	require.NoError(t, err)

	require.Equal(t, SourceSerial, cfg.Source.Kind)
	require.Equal(t, "/dev/ttyUSB1", cfg.Source.Device)
	require.Equal(t, 2000000, cfg.Source.Baud)
	// untouched keys keep their defaults
	require.Equal(t, DefaultAddress, cfg.Source.Address)
	require.True(t, cfg.Source.NoDelay)

	require.True(t, cfg.TPIU.Enabled)
	require.Equal(t, uint8(5), cfg.TPIU.TraceID)
	require.False(t, cfg.TPIU.FrameSync)

	require.Equal(t, []itm.Port{
		{Address: 4, Type: itm.TypeF32, Name: "temperature"},
		{Address: 31, Type: itm.TypeChar},
	}, cfg.Ports)

	require.True(t, cfg.HTTP.Enabled)
	require.Equal(t, "0.0.0.0:9000", cfg.HTTP.Listen)
	require.Equal(t, []string{"https://scope.example"}, cfg.HTTP.CORSOrigins)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 500*time.Millisecond, cfg.Session.RetryInterval)
	require.Equal(t, 3, cfg.Session.MaxAttempts)

	ports, err := cfg.PortConfig()
	require.NoError(t, err)
	typ, ok := ports.Lookup(4)
	require.True(t, ok)
	require.Equal(t, itm.TypeF32, typ)
	_, ok = ports.Lookup(0)
	require.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", "[source]\nkind = \"usb\"\n"},
		{"unknown key", "[source]\nhost = \"x\"\n"},
		{"bad type", "[[port]]\naddress = 1\ntype = \"u64\"\n"},
		{"port out of range", "[[port]]\naddress = 32\ntype = \"u32\"\n"},
		{"duplicate port", "[[port]]\naddress = 1\ntype = \"u32\"\n[[port]]\naddress = 1\ntype = \"char\"\n"},
		{"trace id", "[tpiu]\ntrace_id = 200\n"},
		{"retry interval", "[session]\nretry_interval = \"soon\"\n"},
		{"empty file path", "[source]\nkind = \"file\"\n"},
		{"syntax", "[source\n"},
		{"cors origin", "[http]\ncors_origins = [\"scope.example\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			require.Error(t, err)
		})
	}
}

func TestParsePortFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    itm.Port
		wantErr bool
	}{
		{in: "0=u32", want: itm.Port{Address: 0, Type: itm.TypeU32}},
		{in: "1=i16f16:signal", want: itm.Port{Address: 1, Type: itm.TypeFixed16_16, Name: "signal"}},
		{in: " 2 = char ", want: itm.Port{Address: 2, Type: itm.TypeChar}},
		{in: "5=off", want: itm.Port{Address: 5, Type: itm.TypeNone}},
		{in: "u32", wantErr: true},
		{in: "x=u32", wantErr: true},
		{in: "32=u32", wantErr: true},
		{in: "3=double", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePortFlag(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "itmscope.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	// second write must not clobber the file
	require.Error(t, WriteDefault(path))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}
