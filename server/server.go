// Package server exposes tricolor conversions over HTTP and websockets.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	bytesize "github.com/labstack/gommon/bytes"
	log "github.com/sirupsen/logrus"

	"github.com/tmpim/tricolor"
)

// Options configure a Server.
type Options struct {
	// FitWidth and FitHeight scale uploads down before dithering when both
	// are set.
	FitWidth  int
	FitHeight int

	// MaxPixels limits decoded uploads. Zero uses tricolor.DefaultMaxPixels.
	MaxPixels int

	// BodyLimit is the maximum request body and websocket message size,
	// such as "32M".
	BodyLimit string

	// Compress makes /api/frame return zstd compressed frames by default.
	Compress bool
}

// Server serves the tricolor API.
type Server struct {
	Echo *echo.Echo

	opts      Options
	upgrader  websocket.Upgrader
	readLimit int64
}

// New returns a server with all routes registered.
func New(opts Options) *Server {
	s := &Server{
		Echo: echo.New(),
		opts: opts,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 5 * time.Second,
		},
	}

	e := s.Echo
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if opts.BodyLimit != "" {
		limit, err := bytesize.Parse(opts.BodyLimit)
		if err != nil {
			panic("server: invalid body limit " + opts.BodyLimit)
		}
		s.readLimit = limit
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	api := e.Group("/api")
	api.POST("/dither", s.dither)
	api.POST("/frame", s.frame)
	api.POST("/quality", s.quality)
	api.GET("/ws", s.ws)

	return s
}

// Start listens on addr until the server is shut down.
func (s *Server) Start(addr string) error {
	err := s.Echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) convert(ctx context.Context, body []byte,
	progress func(done, total int)) (*tricolor.Result, error) {
	src, format, err := tricolor.Decode(bytes.NewReader(body), s.opts.MaxPixels)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"format": format,
		"width":  src.Bounds().Dx(),
		"height": src.Bounds().Dy(),
	}).Debug("converting upload")

	return tricolor.Convert(ctx, src, tricolor.Options{
		FitWidth:  s.opts.FitWidth,
		FitHeight: s.opts.FitHeight,
		Progress:  progress,
	})
}

// httpError maps conversion errors to HTTP errors.
func httpError(err error) error {
	switch {
	case errors.Is(err, tricolor.ErrTooBig):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, tricolor.ErrDecode):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, tricolor.ErrShape):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	log.WithError(err).Error("conversion failed")
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
