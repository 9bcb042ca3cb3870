package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tmpim/tricolor"
)

var (
	inputDir   = flag.String("i", "./input_test", "directory of images to convert")
	outputDir  = flag.String("o", "./output_test", "directory receiving the combined previews")
	profile    = flag.String("cpuprofile", "", "write a CPU profile to this file")
	fitWidth   = flag.Int("w", 400, "panel width")
	fitHeight  = flag.Int("h", 300, "panel height")
	maxPixels  = flag.Int("max-pixels", tricolor.DefaultMaxPixels, "largest image accepted")
	strictMode = flag.Bool("strict", false, "stop at the first failing image")
)

func main() {
	flag.Parse()

	stop, err := startProfile(*profile)
	if err != nil {
		log.WithError(err).Fatal("could not start CPU profile")
	}

	err = run()
	// The profile is only complete once stopped, so this runs before any
	// exit.
	stop()
	if err != nil {
		log.WithError(err).Error("quality test failed")
		os.Exit(1)
	}
}

// startProfile starts a CPU profile written to path. The returned function
// stops it and closes the file. An empty path profiles nothing.
func startProfile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}

	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

func run() error {
	entries, err := os.ReadDir(*inputDir)
	if err != nil {
		return fmt.Errorf("could not read input directory: %w", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	var total time.Duration
	var deltaE float64
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		took, q, err := convert(e.Name())
		if err != nil {
			if *strictMode {
				return fmt.Errorf("%s: %w", e.Name(), err)
			}
			log.WithError(err).WithField("name", e.Name()).Warn("conversion failed")
			continue
		}
		total += took
		deltaE += q.MeanDeltaE
		count++
	}

	if count == 0 {
		log.Warn("no image converted")
		return nil
	}

	log.WithFields(log.Fields{
		"images":       count,
		"mean_time":    (total / time.Duration(count)).String(),
		"mean_delta_e": fmt.Sprintf("%.2f", deltaE/float64(count)),
	}).Info("quality test complete")

	return nil
}

func convert(name string) (time.Duration, tricolor.Quality, error) {
	start := time.Now()

	src, _, err := tricolor.Load(filepath.Join(*inputDir, name), *maxPixels)
	if err != nil {
		return 0, tricolor.Quality{}, err
	}
	loaded := time.Since(start)

	res, err := tricolor.Convert(context.Background(), src, tricolor.Options{
		FitWidth:  *fitWidth,
		FitHeight: *fitHeight,
	})
	if err != nil {
		return 0, tricolor.Quality{}, err
	}
	took := time.Since(start)

	log.WithFields(log.Fields{
		"name":    name,
		"load":    loaded.String(),
		"convert": took.String(),
		"delta_e": fmt.Sprintf("%.2f", res.Quality.MeanDeltaE),
		"black":   fmt.Sprintf("%.3f", res.Quality.Coverage[tricolor.Black]),
		"white":   fmt.Sprintf("%.3f", res.Quality.Coverage[tricolor.White]),
		"red":     fmt.Sprintf("%.3f", res.Quality.Coverage[tricolor.Red]),
	}).Info("converted")

	basename := strings.TrimSuffix(name, filepath.Ext(name))
	preview := filepath.Join(*outputDir, basename+".png")
	if err := tricolor.SavePNG(preview, res.Planes.Combined); err != nil {
		log.WithError(err).Warn("failed to write preview image")
	}

	return took, res.Quality, nil
}
