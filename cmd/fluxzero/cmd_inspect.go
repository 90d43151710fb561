package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarise a saved tree and the agent's view of the opening position",
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	fz, err := newFZ()
	if err != nil {
		return err
	}
	defer fz.Close()

	out := cmd.OutOrStdout()
	tree := fz.Agent.Tree()
	fmt.Fprintf(out, "model:     %s\n", modelPath)
	fmt.Fprintf(out, "nodes:     %d\n", tree.Len())
	fmt.Fprintf(out, "positions: %d\n", fz.Agent.Positions())

	g := fz.NewGame()
	root, ok := fz.Agent.Root(g)
	if !ok {
		fmt.Fprintln(out, "the opening position has not been searched")
		return nil
	}
	fmt.Fprintf(out, "opening:   node %d, %d visits, conductivity %.3f\n", root, tree.Visits(root), tree.Conductivity(root))
	for col, p := range fz.Agent.Policy(g) {
		fmt.Fprintf(out, "  column %d: %5.1f%%\n", col, 100*p)
	}
	if best := tree.BestChild(root); best >= 0 {
		fmt.Fprintf(out, "best child: node %d\n", best)
	}
	return nil
}
