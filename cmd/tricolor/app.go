package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tmpim/tricolor"
	"github.com/tmpim/tricolor/config"
)

var rootCmd = &cobra.Command{
	Use:   "tricolor",
	Short: "Dither an image into black, white and red panel planes",
	Long: `tricolor reads an image, dithers it to black, white and dark red and
writes the red ink plane, the black ink plane and the combined preview.

Without flags it reads input.png and writes red_image.png, black_image.png
and result.png in the current directory.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: appPersistentPreRun,
	RunE:              runConvert,
}

var (
	configPath string
	logLevel   string

	inputPath    string
	redPath      string
	blackPath    string
	combinedPath string
	fitSize      string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath, "config", "c",
		"", "Configuration file",
	)
	rootCmd.PersistentFlags().StringVarP(
		&logLevel, "level", "l",
		config.Config.Main.LogLevel, "Log level",
	)
	rootCmd.PersistentFlags().StringVar(
		&fitSize, "fit", "",
		"Scale images down to fit WIDTHxHEIGHT before dithering",
	)

	rootCmd.Flags().StringVarP(&inputPath, "input", "i",
		config.Config.Files.Input, "Input image")
	rootCmd.Flags().StringVar(&redPath, "red",
		config.Config.Files.Red, "Red plane output")
	rootCmd.Flags().StringVar(&blackPath, "black",
		config.Config.Files.Black, "Black plane output")
	rootCmd.Flags().StringVarP(&combinedPath, "output", "o",
		config.Config.Files.Combined, "Combined output")
}

func appPersistentPreRun(c *cobra.Command, _ []string) error {
	if err := config.LoadConfiguration(configPath); err != nil {
		return fmt.Errorf("error loading configuration (%s)", err)
	}

	// Flags given explicitly win over the configuration file.
	flags := c.Flags()
	if flags.Changed("level") {
		config.Config.Main.LogLevel = logLevel
	}
	if flags.Changed("fit") {
		w, h, err := parseSize(fitSize)
		if err != nil {
			return err
		}
		config.Config.Image.FitWidth = w
		config.Config.Image.FitHeight = h
	}
	if flags.Lookup("input") != nil {
		if flags.Changed("input") {
			config.Config.Files.Input = inputPath
		}
		if flags.Changed("red") {
			config.Config.Files.Red = redPath
		}
		if flags.Changed("black") {
			config.Config.Files.Black = blackPath
		}
		if flags.Changed("output") {
			config.Config.Files.Combined = combinedPath
		}
	}

	lvl, err := log.ParseLevel(config.Config.Main.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", config.Config.Main.LogLevel)
	}
	log.SetLevel(lvl)
	log.WithField("log_level", lvl).Debug()

	return nil
}

// parseSize parses WIDTHxHEIGHT.
func parseSize(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, want WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	return w, h, nil
}

// signalContext is canceled on interrupt or termination.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func convertOptions() tricolor.Options {
	return tricolor.Options{
		FitWidth:  config.Config.Image.FitWidth,
		FitHeight: config.Config.Image.FitHeight,
	}
}

func runConvert(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	files := config.Config.Files

	src, format, err := tricolor.Load(files.Input, config.Config.Image.MaxPixels)
	if err != nil {
		return &tricolor.StageError{Stage: tricolor.StageLoad, Path: files.Input, Err: err}
	}
	log.WithFields(log.Fields{
		"path":   files.Input,
		"format": format,
		"width":  src.Bounds().Dx(),
		"height": src.Bounds().Dy(),
	}).Debug("image loaded")

	res, err := tricolor.Convert(ctx, src, convertOptions())
	if err != nil {
		return &tricolor.StageError{Stage: tricolor.StageDither, Err: err}
	}

	err = res.Planes.Save(tricolor.Outputs{
		Red:      files.Red,
		Black:    files.Black,
		Combined: files.Combined,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"red":      files.Red,
		"black":    files.Black,
		"combined": files.Combined,
		"delta_e":  fmt.Sprintf("%.2f", res.Quality.MeanDeltaE),
	}).Info("planes written")

	return nil
}
