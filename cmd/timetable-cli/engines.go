package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/pkg/cpsat"
)

func newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List registered constraint engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\t(built in, regular lessons only)\n", dto.StrategyHeuristic)
			for _, name := range cpsat.Engines() {
				fmt.Fprintf(out, "%s\n", name)
			}
			return nil
		},
	}
}
