package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slizzai/slizzai/pkg/scheduler"
)

// uvCommand prints the coordinates a run would assign.
func (c *CLI) uvCommand() *cobra.Command {
	var (
		count   int
		modulus uint64
		period  bool
	)

	cmd := &cobra.Command{
		Use:   "uv",
		Short: "Print the tile coordinate sequence",
		Example: `  slizzai uv -n 5 --modulus 100
  slizzai uv --modulus 10 --period`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := scheduler.New(modulus)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, uv := range gen.Assign(count) {
				fmt.Fprintf(out, "%4d  %s\n", i, uv)
			}
			if period {
				fmt.Fprintf(out, "pisano period %d (bound %d)\n", scheduler.PisanoPeriod(modulus), scheduler.PeriodBound(modulus))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of coordinates")
	cmd.Flags().Uint64Var(&modulus, "modulus", scheduler.DefaultModulus, "Fibonacci modulus")
	cmd.Flags().BoolVar(&period, "period", false, "also print the sequence period")

	return cmd
}
