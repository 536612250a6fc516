package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/conifer-solver/conifer/pkg/conic"
)

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the shape of a problem file",
		ArgsUsage: "<problem.json>",
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

			n := prob.A.Cols
			m := prob.A.Rows
			nnzP := 0
			if prob.P != nil {
				nnzP = prob.P.Nnz()
			}
			fmt.Printf("variables:   %d\n", n)
			fmt.Printf("constraints: %d\n", m)
			fmt.Printf("nnz(P):      %d\n", nnzP)
			fmt.Printf("nnz(A):      %d\n", prob.A.Nnz())

			counts := map[conic.ConeType]int{}
			dims := map[conic.ConeType]int{}
			for _, c := range prob.Cones {
				counts[c.Type]++
				dims[c.Type] += c.Dim
			}
			for _, ct := range []conic.ConeType{conic.ZeroConeT, conic.NonnegativeConeT, conic.SecondOrderConeT, conic.ExponentialConeT} {
				if counts[ct] > 0 {
					fmt.Printf("%-12s %d cones, %d rows\n", ct.String()+":", counts[ct], dims[ct])
				}
			}
			return nil
		},
	}
}
