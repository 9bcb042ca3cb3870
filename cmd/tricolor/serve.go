package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tmpim/tricolor/config"
	"github.com/tmpim/tricolor/server"
)

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(
		&serveHost, "host", "H",
		config.Config.Server.Host, "server host")
	serveCmd.Flags().IntVarP(
		&servePort, "port", "p",
		config.Config.Server.Port, "server port")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dithering API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(c *cobra.Command, _ []string) error {
	if c.Flags().Changed("host") {
		config.Config.Server.Host = serveHost
	}
	if c.Flags().Changed("port") {
		config.Config.Server.Port = servePort
	}

	s := server.New(server.Options{
		FitWidth:  config.Config.Image.FitWidth,
		FitHeight: config.Config.Image.FitHeight,
		MaxPixels: config.Config.Image.MaxPixels,
		BodyLimit: config.Config.Server.BodyLimit,
		Compress:  config.Config.Frame.Compress,
	})

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown")
		}
	}()

	log.WithField("url", fmt.Sprintf("http://%s:%d/api/",
		config.Config.Server.Host, config.Config.Server.Port),
	).Info("Starting server")

	return s.Start(fmt.Sprintf("%s:%d", config.Config.Server.Host, config.Config.Server.Port))
}
