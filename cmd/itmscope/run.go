package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"itmscope/internal/daq"
	"itmscope/internal/printers"
	"itmscope/internal/server"
	"itmscope/internal/sinks"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var quiet, logValues bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline described by the config file",
		Long: "run keeps a session to the configured source alive, reconnecting on transport errors, " +
			"and feeds the console, the websocket hub, the HTTP API and the sqlite recorder.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			p, err := newPipeline(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			status := daq.NewStatus()
			if p.session.TPIU != nil {
				status.TrackDeformatter(p.session.TPIU)
			}
			latest := sinks.NewLatest(p.ports)
			p.add(status, latest)

			if !quiet || logValues {
				out := cmd.OutOrStdout()
				if quiet {
					out = nil
				}
				vp := printers.NewValuePrinter(out, p.ports)
				vp.ShowNames(true)
				vp.HideQuiet(true)
				if logValues {
					vp.SetMessageLogger(p.decLog)
				}
				p.add(vp)
			}

			var rec *sinks.Recorder
			if cfg.Recorder.Enabled {
				rec, err = sinks.OpenRecorder(cfg.Recorder.Path, p.ports, p.decLog)
				if err != nil {
					return err
				}
				defer rec.Close()
				p.add(rec)
				p.log.Info().Str("path", cfg.Recorder.Path).Msg("recording samples")
			}

			var hub *sinks.Hub
			if cfg.HTTP.Enabled {
				hub = sinks.NewHub(p.ports, latest, p.decLog.Zerolog())
				p.add(hub)
			}

			sup := &daq.Supervisor{
				Session:       p.session,
				RetryInterval: cfg.Session.RetryInterval,
				MaxAttempts:   cfg.Session.MaxAttempts,
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return sup.Run(ctx)
			})
			if cfg.HTTP.Enabled {
				srv := server.New(server.Options{
					Ports:    p.ports,
					Latest:   latest,
					Hub:      hub,
					Status:   status,
					Recorder: rec,
					Logger:   p.log,

					CORSOrigins: cfg.HTTP.CORSOrigins,
				})
				g.Go(func() error {
					return srv.ListenAndServe(ctx, cfg.HTTP.Listen)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print values to stdout")
	cmd.Flags().BoolVar(&logValues, "log-values", false, "also write every printed value line to the log")
	return cmd
}
