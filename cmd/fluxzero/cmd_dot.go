package main

import (
	"fmt"
	"os"

	"github.com/gorgonia/fluxzero/fluid"
	"github.com/gorgonia/fluxzero/game"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	dotFrom      int32
	dotDepth     int
	dotOut       string
	dotLine      []int
	dotTolerance int

	dotCmd = &cobra.Command{
		Use:   "dot",
		Short: "Render a subtree as Graphviz DOT",
		RunE:  runDot,
	}
)

func init() {
	dotCmd.Flags().Int32Var(&dotFrom, "from", -1, "node to start from; the opening position's root if negative")
	dotCmd.Flags().IntVar(&dotDepth, "depth", 2, "maximum depth below the start node; negative for all")
	dotCmd.Flags().StringVarP(&dotOut, "out", "o", "", "output file; standard output if empty")
	dotCmd.Flags().IntSliceVar(&dotLine, "line", nil, "moves from the opening position to the position to render, e.g. 3,3,4")
	dotCmd.Flags().IntVar(&dotTolerance, "tolerance", 0, "how far a move of --line may be from a searched move")
}

func runDot(cmd *cobra.Command, args []string) error {
	fz, err := newFZ()
	if err != nil {
		return err
	}
	defer fz.Close()

	from := fluid.NodeID(dotFrom)
	if from < 0 {
		line := make([]game.Single, len(dotLine))
		for i, m := range dotLine {
			line[i] = game.Single(m)
		}
		if from = fz.Agent.Follow(fz.NewGame(), line, dotTolerance); from == fluid.None {
			return errors.Errorf("no searched position along %v; pass --from", dotLine)
		}
	}
	dot, err := fz.Agent.Tree().ToDot(from, dotDepth)
	if err != nil {
		return err
	}
	if dotOut == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), dot)
		return err
	}
	return os.WriteFile(dotOut, []byte(dot), 0644)
}
