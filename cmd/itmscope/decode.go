package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"itmscope/internal/config"
	"itmscope/internal/itm"
	"itmscope/internal/printers"
)

type decodeOptions struct {
	addr       string
	serial     string
	baud       int
	file       string
	ports      []string
	tpiu       bool
	aligned    bool
	traceID    uint8
	raw        bool
	names      bool
	hideQuiet  bool
	stats      bool
	quiet      bool
	noPortName bool
}

// apply overrides cfg with the flags the user actually set.
func (o *decodeOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	set := 0
	if o.addr != "" {
		cfg.Source.Kind = config.SourceTCP
		cfg.Source.Address = o.addr
		set++
	}
	if o.serial != "" {
		cfg.Source.Kind = config.SourceSerial
		cfg.Source.Device = o.serial
		set++
	}
	if o.file != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = o.file
		set++
	}
	if set > 1 {
		return errors.New("--addr, --serial and --file are mutually exclusive")
	}
	if cmd.Flags().Changed("baud") {
		cfg.Source.Baud = o.baud
	}

	if len(o.ports) > 0 {
		ports := make([]itm.Port, 0, len(o.ports))
		for _, s := range o.ports {
			p, err := config.ParsePortFlag(s)
			if err != nil {
				return err
			}
			ports = append(ports, p)
		}
		cfg.Ports = ports
	}

	if cmd.Flags().Changed("tpiu") {
		cfg.TPIU.Enabled = o.tpiu
	}
	if cmd.Flags().Changed("tpiu-aligned") {
		cfg.TPIU.FrameSync = !o.aligned
	}
	if cmd.Flags().Changed("trace-id") {
		if o.traceID > 0x7F {
			return fmt.Errorf("trace id %d out of range 0-127", o.traceID)
		}
		cfg.TPIU.TraceID = o.traceID
	}
	return cfg.Validate()
}

func newDecodeCmd(root *rootOptions) *cobra.Command {
	opts := &decodeOptions{}
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode one stream to the console",
		Long: "decode opens the source once and prints every decoded value as \"port N: <values>\" " +
			"plus every recoverable decoder condition. It exits when the stream ends.",
		Example: "  itmscope decode --addr 127.0.0.1:3344 --port 0=u32 --port 1=i16f16 --port 2=char\n" +
			"  itmscope decode --file capture.bin --tpiu --tpiu-aligned --trace-id 1 --raw",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, &cfg); err != nil {
				return err
			}
			p, err := newPipeline(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			vp := printers.NewValuePrinter(cmd.OutOrStdout(), p.ports)
			vp.ShowNames(opts.names)
			vp.HideQuiet(opts.hideQuiet)
			vp.MutePortPrint(opts.noPortName)
			vp.SetMute(opts.quiet)
			if opts.stats {
				vp.SetCollectStats()
			}
			p.add(vp)

			if opts.raw {
				p.session.Raw = printers.NewRawBytePrinter(cmd.OutOrStdout())
			}

			runErr := p.session.Run(cmd.Context())
			if opts.stats {
				vp.PrintStats()
				if p.session.TPIU != nil {
					vp.PrintDeformatterStats(p.session.TPIU)
				}
			}
			return runErr
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "SWO TCP server address (host:port)")
	f.StringVar(&opts.serial, "serial", "", "serial device carrying SWO")
	f.IntVar(&opts.baud, "baud", config.DefaultBaud, "serial baud rate")
	f.StringVar(&opts.file, "file", "", "raw SWO capture to replay")
	f.StringArrayVarP(&opts.ports, "port", "p", nil, "port decode rule N=type[:name]; types: "+typeList()+" (repeatable)")
	f.BoolVar(&opts.tpiu, "tpiu", false, "strip TPIU formatter frames")
	f.BoolVar(&opts.aligned, "tpiu-aligned", false, "TPIU frames start at byte 0 with no FSYNC search (memory dumps)")
	f.Uint8Var(&opts.traceID, "trace-id", 1, "TPIU trace source ID carrying ITM")
	f.BoolVar(&opts.raw, "raw", false, "hex dump the raw stream")
	f.BoolVar(&opts.names, "names", false, "print port names")
	f.BoolVar(&opts.noPortName, "values-only", false, "omit the port prefix")
	f.BoolVar(&opts.hideQuiet, "hide-unconfigured", false, "do not print packets dropped on unconfigured ports")
	f.BoolVar(&opts.stats, "stats", false, "print value and outcome counts at the end")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print values; use with --stats")
	return cmd
}

func typeList() string {
	s := ""
	for _, t := range itm.AllDecodeTypes {
		if t == itm.TypeNone {
			continue
		}
		if s != "" {
			s += ", "
		}
		s += t.String()
	}
	return s
}
