package server

import (
	"bytes"
	"context"
	"image"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"

	"github.com/tmpim/tricolor"
)

// Possible binary packet types, sent as the first byte of each plane.
const (
	PacketCombined = iota + 1
	PacketRed
	PacketBlack
)

// Message types of text packets.
const (
	MessageProgress = "progress"
	MessageDone     = "done"
	MessageError    = "error"
)

// Message is a JSON text packet sent to websocket clients.
type Message struct {
	Type    string            `json:"type"`
	Row     int               `json:"row,omitempty"`
	Rows    int               `json:"rows,omitempty"`
	Error   string            `json:"error,omitempty"`
	Quality *tricolor.Quality `json:"quality,omitempty"`
}

// ws converts every binary message received into planes. Progress is
// reported while dithering, then the combined, red and black planes are sent
// as PNG packets, followed by a done message.
func (s *Server) ws(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Websocket messages bypass the body limit middleware.
	if s.readLimit > 0 {
		conn.SetReadLimit(s.readLimit)
	}

	ctx := c.Request().Context()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("websocket client disconnected")
			return nil
		}

		if msgType != websocket.BinaryMessage {
			continue
		}

		if err := s.handleUpload(ctx, conn, data); err != nil {
			log.WithError(err).Debug("websocket write failed")
			return nil
		}
	}
}

func (s *Server) handleUpload(ctx context.Context, conn *websocket.Conn, data []byte) error {
	var writeErr error
	progress := func(done, total int) {
		step := total / 100
		if step < 1 {
			step = 1
		}
		if writeErr != nil || (done%step != 0 && done != total) {
			return
		}
		writeErr = conn.WriteJSON(&Message{
			Type: MessageProgress,
			Row:  done,
			Rows: total,
		})
	}

	res, err := s.convert(ctx, data, progress)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		return conn.WriteJSON(&Message{
			Type:  MessageError,
			Error: err.Error(),
		})
	}

	for _, p := range []struct {
		packet byte
		img    image.Image
	}{
		{PacketCombined, res.Planes.Combined},
		{PacketRed, res.Planes.Red},
		{PacketBlack, res.Planes.Black},
	} {
		buf := bytes.NewBuffer([]byte{p.packet})
		if err := tricolor.EncodePNG(buf, p.img); err != nil {
			return conn.WriteJSON(&Message{
				Type:  MessageError,
				Error: err.Error(),
			})
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
			return err
		}
	}

	return conn.WriteJSON(&Message{
		Type:    MessageDone,
		Quality: &res.Quality,
	})
}
