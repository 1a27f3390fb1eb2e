package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/service"
	"github.com/noah-isme/timetable-engine/pkg/config"
)

type solveOptions struct {
	input         string
	output        string
	strategy      string
	engine        string
	timeout       time.Duration
	maxBacktracks int
	workers       int
	compact       bool
}

func newSolveCmd(root *rootOptions) *cobra.Command {
	opts := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a timetable request read from JSON",
		Long: `Solve reads a generate request (the same JSON accepted by
POST /timetables/generate) and prints the resulting proposal.

Examples:
  timetable-cli solve --input week.json
  timetable-cli solve -i week.json --strategy exact --timeout 30s
  cat week.json | timetable-cli solve -i - --strategy heuristic --max-backtracks 50000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Request file, or - for stdin")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "auto, heuristic or exact (overrides the request)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Constraint engine for the exact strategy")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Solver time limit")
	cmd.Flags().IntVar(&opts.maxBacktracks, "max-backtracks", 0, "Heuristic backtrack budget")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Parallel workers for the exact strategy")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print single-line JSON")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runSolve(cmd *cobra.Command, root *rootOptions, opts *solveOptions) error {
	req, err := readRequest(cmd.InOrStdin(), opts.input)
	if err != nil {
		return err
	}
	if opts.strategy != "" {
		req.Strategy = opts.strategy
	}
	if opts.engine != "" {
		req.Engine = opts.engine
	}
	if opts.timeout > 0 {
		req.TimeLimitMs = int(opts.timeout / time.Millisecond)
	}
	if opts.maxBacktracks > 0 {
		req.MaxBacktracks = opts.maxBacktracks
	}
	if opts.workers > 0 {
		req.Workers = opts.workers
	}

	logger := root.logger()
	defer logger.Sync() //nolint:errcheck

	svc := service.NewTimetableService(nil, nil, nil, nil, validator.New(), logger, config.SchedulerConfig{
		Enabled:       true,
		Engine:        "gini",
		TimeLimit:     10 * time.Second,
		MaxBacktracks: 20000,
		Workers:       4,
	})

	result, err := svc.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if !result.Solved {
		return fmt.Errorf("no timetable found: %s: %s", result.Failure.Kind, result.Failure.Message)
	}
	return nil
}

func readRequest(stdin io.Reader, path string) (dto.GenerateTimetableRequest, error) {
	var req dto.GenerateTimetableRequest
	src := stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		src = file
	}
	if err := json.NewDecoder(src).Decode(&req); err != nil {
		return req, fmt.Errorf("decode input: %w", err)
	}
	return req, nil
}
