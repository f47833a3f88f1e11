package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadLimit    = 1 << 20
	wsReadTimeout  = 5 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

// handleChatWS serves the live chat widget: one JSON chat request per
// client frame, one chat response per server frame.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sess, created := s.sessions.GetOrCreate(strings.TrimSpace(r.URL.Query().Get("session_id")))
	if created {
		s.metrics.SessionEvents.WithLabelValues("created").Inc()
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
	defer s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Str("session_id", sess.ID).Msg("websocket closed unexpectedly")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		// The socket owns the session regardless of what the frame claims.
		req.SessionID = sess.ID

		var payload any
		if strings.TrimSpace(req.Message) == "" {
			payload = errorResponse{Success: false, Error: "field 'message' is required", Code: "missing_message"}
		} else {
			started := time.Now()
			payload = s.processChat(r.Context(), req)
			s.metrics.ObserveChatLatency(time.Since(started))
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(payload); err != nil {
			return
		}
	}
}
