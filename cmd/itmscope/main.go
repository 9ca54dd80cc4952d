// Command itmscope decodes ARM ITM stimulus-port traffic streamed over SWO.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"itmscope/internal/config"
	"itmscope/internal/observability"
)

const defaultConfigFile = "itmscope.toml"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "itmscope",
		Short:         "Decode ITM stimulus port values from an SWO stream",
		Long:          "itmscope connects to an SWO byte source, decodes ITM software stimulus packets into typed values and publishes them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the TOML config (default ./"+defaultConfigFile+" when present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(
		newRunCmd(opts),
		newDecodeCmd(opts),
		newInitConfigCmd(),
		newCodesCmd(),
	)
	return cmd
}

// load reads the config file, falling back to defaults when none was
// named and the default file does not exist.
func (o *rootOptions) load() (config.Config, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			cfg := config.Default()
			o.applyLogLevel(&cfg)
			return cfg, nil
		}
		path = defaultConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	o.applyLogLevel(&cfg)
	return cfg, nil
}

func (o *rootOptions) applyLogLevel(cfg *config.Config) {
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
}

func main() {
	observability.InitLogger("itmscope", "info")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("itmscope failed")
		stop()
		os.Exit(1)
	}
}
