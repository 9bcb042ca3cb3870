package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo"

	"github.com/tmpim/tricolor"
)

// dither returns one plane of the uploaded image as a PNG.
func (s *Server) dither(c echo.Context) error {
	name := c.QueryParam("plane")
	if name != "" && name != "combined" && name != "red" && name != "black" {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown plane: "+name)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	res, err := s.convert(c.Request().Context(), body, nil)
	if err != nil {
		return httpError(err)
	}

	img, _ := res.Planes.Plane(name)
	buf := new(bytes.Buffer)
	if err := tricolor.EncodePNG(buf, img); err != nil {
		return httpError(err)
	}

	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// frame returns the packed panel frame of the uploaded image.
func (s *Server) frame(c echo.Context) error {
	compress := s.opts.Compress
	if v := c.QueryParam("compress"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid compress value: "+v)
		}
		compress = b
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	res, err := s.convert(c.Request().Context(), body, nil)
	if err != nil {
		return httpError(err)
	}

	f := tricolor.NewFrame(res.Planes)
	f.Compressed = compress
	data, err := f.Bytes()
	if err != nil {
		return httpError(err)
	}

	return c.Blob(http.StatusOK, "application/octet-stream", data)
}

type qualityResponse struct {
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Quality tricolor.Quality `json:"quality"`
}

// quality reports how well the uploaded image dithers.
func (s *Server) quality(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	res, err := s.convert(c.Request().Context(), body, nil)
	if err != nil {
		return httpError(err)
	}

	b := res.Planes.Combined.Bounds()
	return c.JSON(http.StatusOK, &qualityResponse{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Quality: res.Quality,
	})
}
