package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tmpim/tricolor"
	"github.com/tmpim/tricolor/config"
)

var (
	framePath     string
	frameCompress bool
)

func init() {
	rootCmd.AddCommand(frameCmd)

	frameCmd.Flags().StringVarP(&framePath, "output", "o", "image.tri",
		"Frame output")
	frameCmd.Flags().BoolVarP(&frameCompress, "compress", "z",
		config.Config.Frame.Compress, "Compress the planes with zstd")
}

var frameCmd = &cobra.Command{
	Use:   "frame [INPUT]",
	Short: "Write the packed black and red planes for a panel",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFrame,
}

func runFrame(c *cobra.Command, args []string) error {
	if c.Flags().Changed("compress") {
		config.Config.Frame.Compress = frameCompress
	}

	input := config.Config.Files.Input
	if len(args) == 1 {
		input = args[0]
	}

	ctx, cancel := signalContext()
	defer cancel()

	src, _, err := tricolor.Load(input, config.Config.Image.MaxPixels)
	if err != nil {
		return &tricolor.StageError{Stage: tricolor.StageLoad, Path: input, Err: err}
	}

	res, err := tricolor.Convert(ctx, src, convertOptions())
	if err != nil {
		return &tricolor.StageError{Stage: tricolor.StageDither, Err: err}
	}

	f := tricolor.NewFrame(res.Planes)
	f.Compressed = config.Config.Frame.Compress

	out, err := os.Create(framePath)
	if err != nil {
		return &tricolor.StageError{Stage: tricolor.StageSave, Path: framePath, Err: err}
	}
	n, err := f.WriteTo(out)
	if err != nil {
		out.Close()
		return &tricolor.StageError{Stage: tricolor.StageSave, Path: framePath, Err: err}
	}
	if err := out.Close(); err != nil {
		return &tricolor.StageError{Stage: tricolor.StageSave, Path: framePath, Err: err}
	}

	log.WithFields(log.Fields{
		"path":       framePath,
		"width":      f.Width,
		"height":     f.Height,
		"bytes":      n,
		"compressed": f.Compressed,
	}).Info("frame written")

	return nil
}
