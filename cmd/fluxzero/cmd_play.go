package main

import (
	"fmt"
	"os"

	"github.com/gorgonia/fluxzero"
	"github.com/gorgonia/fluxzero/encoding/gif"
	"github.com/spf13/cobra"
)

var (
	playGames   int
	playGifPath string

	playCmd = &cobra.Command{
		Use:   "play",
		Short: "Play the agent against a random opponent",
		RunE:  runPlay,
	}
)

func init() {
	playCmd.Flags().IntVarP(&playGames, "games", "g", 10, "number of games")
	playCmd.Flags().StringVar(&playGifPath, "gif", "", "record the games to this GIF file")
}

func runPlay(cmd *cobra.Command, args []string) error {
	var opts []fluxzero.Option
	var enc *gif.Encoder
	if playGifPath != "" {
		f, err := os.Create(playGifPath)
		if err != nil {
			return err
		}
		defer f.Close()
		enc = gif.NewEncoder(f, 32)
		opts = append(opts, fluxzero.WithOutputEncoder(enc))
	}

	fz, err := newFZ(opts...)
	if err != nil {
		return err
	}
	defer fz.Close()

	if err := fz.Evaluate(cmd.Context(), playGames); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "FluxZero vs Random: %v wins, %v losses, %v draws\n", fz.A.Wins, fz.A.Loss, fz.A.Draw)

	// the arena moves the tree along; keep what it learned
	if err := fz.Save(modelPath); err != nil {
		return err
	}
	if enc != nil {
		return enc.Flush()
	}
	return nil
}
