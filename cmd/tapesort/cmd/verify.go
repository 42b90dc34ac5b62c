package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamirms/tapesort"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <input> <output>",
		Short: "Check that output is a sorted permutation of input",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := tapesort.Verify(args[0], args[1])
			if report != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "cells: %d\ninput digest:  %016x %016x\noutput digest: %016x %016x\n",
					report.Cells,
					report.Input.XXHash, report.Input.Murmur,
					report.Output.XXHash, report.Output.Murmur)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
