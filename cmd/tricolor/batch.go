package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tmpim/tricolor"
	"github.com/tmpim/tricolor/config"
)

var (
	batchWorkers   int
	batchOutputDir string
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".ico"}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w",
		config.Config.Batch.Workers, "Number of images converted at once")
	batchCmd.Flags().StringVarP(&batchOutputDir, "output-dir", "o",
		config.Config.Batch.OutputDir, "Output directory (default: next to each input)")
}

var batchCmd = &cobra.Command{
	Use:   "batch PATH...",
	Short: "Convert many images, or every image of directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

// collectImages expands directories into the image files they contain.
func collectImages(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !isImageFile(e.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(arg, e.Name()))
		}
	}
	return paths, nil
}

func isImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, x := range imageExtensions {
		if ext == x {
			return true
		}
	}
	return false
}

func runBatch(c *cobra.Command, args []string) error {
	if c.Flags().Changed("workers") {
		config.Config.Batch.Workers = batchWorkers
	}
	if c.Flags().Changed("output-dir") {
		config.Config.Batch.OutputDir = batchOutputDir
	}

	paths, err := collectImages(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found in %s", strings.Join(args, ", "))
	}

	if dir := config.Config.Batch.OutputDir; dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.WithFields(log.Fields{
		"images":  len(paths),
		"workers": config.Config.Batch.Workers,
	}).Info("starting batch")

	return tricolor.ConvertFiles(ctx, paths, tricolor.BatchOptions{
		Options:   convertOptions(),
		OutputDir: config.Config.Batch.OutputDir,
		Workers:   config.Config.Batch.Workers,
		MaxPixels: config.Config.Image.MaxPixels,
		Done: func(path string, res *tricolor.Result) {
			log.WithFields(log.Fields{
				"path":    path,
				"delta_e": fmt.Sprintf("%.2f", res.Quality.MeanDeltaE),
			}).Info("converted")
		},
	})
}
