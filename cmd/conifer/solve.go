package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/conifer-solver/conifer/internal/solver"
	"github.com/conifer-solver/conifer/pkg/conic"
)

func solveCmd() *cli.Command {
	var (
		outputJSON bool
		backend    string
		maxIter    int64
	)

	return &cli.Command{
		Name:      "solve",
		Usage:     "Solve a conic problem from a JSON file",
		ArgsUsage: "<problem.json>",
		Flags: append(loggingFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the full solution as JSON",
				Destination: &outputJSON,
			},
			&cli.StringFlag{
				Name:        "backend",
				Usage:       "direct solve method",
				Destination: &backend,
			},
			&cli.Int64Flag{
				Name:        "max-iter",
				Usage:       "iteration limit",
				Destination: &maxIter,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one problem file")
			}
			f, err := os.Open(cmd.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()

			prob, err := conic.ReadProblem(f)
			if err != nil {
				return err
			}

			settings := conic.DefaultSettings()
			if prob.Settings != nil {
				settings = *prob.Settings
			}
			applySolverConfig(loadConfig(), &settings)
			if cmd.IsSet("backend") {
				settings.DirectSolveMethod = backend
			}
			if cmd.IsSet("max-iter") {
				settings.MaxIter = int(maxIter)
			}
			prob.Settings = &settings

			s, err := solver.New(prob, newLogger())
			if err != nil {
				return err
			}
			sol := s.Solve()

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(sol)
			}

			fmt.Printf("status:     %s\n", sol.Status)
			fmt.Printf("iterations: %d\n", sol.Iterations)
			fmt.Printf("objective:  %.9g\n", sol.ObjVal)
			fmt.Printf("dual obj:   %.9g\n", sol.ObjValDual)
			fmt.Printf("solve time: %.3fs\n", sol.SolveTime)
			return nil
		},
	}
}
