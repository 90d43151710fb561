package main

import (
	"os"

	"github.com/gorgonia/fluxzero"
	"github.com/gorgonia/fluxzero/encoding/gif"
	"github.com/spf13/cobra"
)

var (
	trainEpochs int
	statsPath   string
	gifPath     string

	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "Erode the tree on synthetic examples, then play the arena after every epoch",
		RunE:  runTrain,
	}
)

func init() {
	trainCmd.Flags().IntVarP(&trainEpochs, "epochs", "e", 5, "training epochs")
	trainCmd.Flags().StringVar(&statsPath, "stats", "", "write arena statistics to this CSV file")
	trainCmd.Flags().StringVar(&gifPath, "gif", "", "record arena games to this GIF file")
}

func runTrain(cmd *cobra.Command, args []string) error {
	var opts []fluxzero.Option
	var enc *gif.Encoder
	if gifPath != "" {
		f, err := os.Create(gifPath)
		if err != nil {
			return err
		}
		defer f.Close()
		enc = gif.NewEncoder(f, 32)
		opts = append(opts, fluxzero.WithOutputEncoder(enc))
	}
	opts = append(opts, fluxzero.WithAugmenter(fluxzero.MirrorAugmenter))

	fz, err := newFZ(opts...)
	if err != nil {
		return err
	}
	defer fz.Close()

	if err := fz.Learn(cmd.Context(), trainEpochs); err != nil {
		return err
	}
	if err := fz.Save(modelPath); err != nil {
		return err
	}
	if statsPath != "" {
		if err := fz.Dump(statsPath); err != nil {
			return err
		}
	}
	if enc != nil {
		return enc.Flush()
	}
	return nil
}
