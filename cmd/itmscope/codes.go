package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"itmscope/internal/common"
	"itmscope/internal/ocsd"
)

func newCodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List decoder outcome codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ITM decoder outcome codes")
			fmt.Fprintln(out)
			for code := ocsd.OK; code < ocsd.ErrLast; code++ {
				fmt.Fprintf(out, "%d: %-24s %-5s %s\n", code, common.CodeName(code),
					severityName(ocsd.DefaultSeverity(code)), common.CodeDescription(code))
			}
			return nil
		},
	}
}

func severityName(sev ocsd.ErrSeverity) string {
	switch sev {
	case ocsd.ErrSevError:
		return "ERROR"
	case ocsd.ErrSevWarn:
		return "WARN"
	case ocsd.ErrSevInfo:
		return "INFO"
	default:
		return "-"
	}
}
