package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 64 << 10,
}

// handleWS streams scan results over a websocket: each binary frame is an
// encoded image, each reply a JSON scan result. The connection closes on the
// first protocol error.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(s.cfg.MaxUploadMB << 20)
	slog.Debug("websocket session started", "remote", r.RemoteAddr)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket closed unexpectedly", "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			_ = conn.WriteJSON(map[string]string{"error": "expected binary image frame"})
			continue
		}

		start := time.Now()
		result, err := s.scanner.ScanBytes(data)
		if err != nil {
			scansTotal.WithLabelValues("undecodable").Inc()
			_ = conn.WriteJSON(map[string]string{"error": "could not decode image"})
			continue
		}

		scansTotal.WithLabelValues("ok").Inc()
		scanDuration.Observe(time.Since(start).Seconds())
		recordResultMetrics(result)
		if err := conn.WriteJSON(result); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return
		}
	}
}
