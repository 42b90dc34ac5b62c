package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamirms/tapesort"
)

type genOptions struct {
	count int
	min   int32
	max   int32
	seed  uint64
}

func newGenCmd() *cobra.Command {
	opts := &genOptions{}
	cmd := &cobra.Command{
		Use:   "gen <path>",
		Short: "Write a store of uniformly random cells",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.seed = uint64(time.Now().UnixNano())
			}
			if err := tapesort.Generate(args[0], opts.count, opts.min, opts.max, opts.seed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d cells in [%d, %d] to %s (seed %d)\n",
				opts.count, opts.min, opts.max, args[0], opts.seed)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.count, "count", 1000, "number of cells")
	cmd.Flags().Int32Var(&opts.min, "min", -1000, "smallest value")
	cmd.Flags().Int32Var(&opts.max, "max", 1000, "largest value")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (default: current time)")
	return cmd
}
