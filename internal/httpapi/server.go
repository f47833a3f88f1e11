package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/CzPhantom10/Chromion-Hackathon/internal/config"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/generator"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/intent"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/knowledge"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/observability"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/responder"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/session"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/transcript"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

const serviceName = "truepass-support-chatbot"

type Server struct {
	cfg         config.Config
	sessions    *session.Manager
	responder   *responder.Responder
	transcripts transcript.Store
	kb          *knowledge.Base
	metrics     *observability.Metrics
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

func New(
	cfg config.Config,
	sessions *session.Manager,
	resp *responder.Responder,
	transcripts transcript.Store,
	kb *knowledge.Base,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Server {
	return &Server{
		cfg:         cfg,
		sessions:    sessions,
		responder:   resp,
		transcripts: transcripts,
		kb:          kb,
		metrics:     metrics,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// The chat widget is embedded in the marketplace frontend;
				// only same-origin browsers may drive a session unless
				// explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{s.cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/chat", s.handleChat)
	r.Get("/api/chat/ws", s.handleChatWS)
	r.Get("/api/suggestions", s.handleSuggestions)
	r.Post("/api/feedback", s.handleFeedback)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/sessions/{id}/summary", s.handleSessionSummary)
	r.Delete("/api/sessions/{id}", s.handleSessionReset)

	return r
}

// recoverer converts panics into a generic JSON 500 without leaking
// internal detail.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("request handler panicked")
				respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type chatRequest struct {
	Message     string `json:"message"`
	SessionID   string `json:"session_id"`
	CurrentPage string `json:"current_page,omitempty"`
}

type chatContext struct {
	SessionID          string       `json:"session_id"`
	PlatformName       string       `json:"platform_name"`
	CurrentPage        string       `json:"current_page,omitempty"`
	ConversationLength int          `json:"conversation_length"`
	LastTopic          intent.Label `json:"last_topic,omitempty"`
	AvailableFeatures  []string     `json:"available_features"`
}

type chatResponse struct {
	Success            bool              `json:"success"`
	Response           string            `json:"response"`
	SessionID          string            `json:"session_id"`
	Intent             intent.Label      `json:"intent,omitempty"`
	Entities           map[string]string `json:"entities,omitempty"`
	SuggestedQuestions []string          `json:"suggested_questions"`
	Context            chatContext       `json:"context"`
	Timestamp          time.Time         `json:"timestamp"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		// Validation failures must not create or touch any session.
		respondError(w, http.StatusBadRequest, "missing_message", "field 'message' is required")
		return
	}

	resp := s.processChat(r.Context(), req)
	s.metrics.ObserveChatLatency(time.Since(started))
	respondJSON(w, http.StatusOK, resp)
}

// processChat runs the full message pipeline and is shared by the REST and
// websocket paths. The caller has already validated the message.
func (s *Server) processChat(ctx context.Context, req chatRequest) chatResponse {
	sess, created := s.sessions.GetOrCreate(strings.TrimSpace(req.SessionID))
	if created {
		s.metrics.SessionEvents.WithLabelValues("created").Inc()
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	}

	history := make([]generator.Turn, 0, s.cfg.HistoryWindow)
	if len(sess.Messages) == 0 {
		// A fresh in-memory session may belong to a returning visitor whose
		// previous conversation expired; restore context from the transcript.
		if records, err := s.transcripts.RecentBySession(ctx, sess.ID, s.cfg.HistoryWindow); err == nil {
			for _, rec := range records {
				history = append(history, generator.Turn{Role: rec.Role, Content: rec.Content})
			}
		} else {
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("transcript history read failed")
		}
	} else if recent, err := s.sessions.RecentMessages(sess.ID, s.cfg.HistoryWindow); err == nil {
		for _, msg := range recent {
			history = append(history, generator.Turn{Role: msg.Role, Content: msg.Content})
		}
	}

	res := s.responder.Respond(ctx, responder.Query{
		SessionID:   sess.ID,
		Message:     req.Message,
		CurrentPage: req.CurrentPage,
		History:     history,
	})

	userMsg, _ := s.sessions.AppendMessage(sess.ID, session.RoleUser, req.Message, res.Match.Label)
	botMsg, _ := s.sessions.AppendMessage(sess.ID, session.RoleAssistant, res.Text, res.Match.Label)
	_ = s.sessions.SetContext(sess.ID, strings.TrimSpace(req.CurrentPage), res.Match.Label)
	s.saveTranscripts(ctx, sess.ID, userMsg, botMsg)

	s.metrics.ChatRequests.WithLabelValues(res.Source, "ok").Inc()
	if res.Source == responder.SourceFallback {
		s.metrics.GeneratorErrors.WithLabelValues("generate").Inc()
	}

	updated, err := s.sessions.Get(sess.ID)
	if err != nil {
		// Session expired between append and read; answer from what we have.
		updated = sess
	}

	return chatResponse{
		Success:            true,
		Response:           res.Text,
		SessionID:          sess.ID,
		Intent:             res.Match.Label,
		Entities:           res.Match.Entities,
		SuggestedQuestions: s.kb.SuggestedQuestions(updated.LastTopic),
		Context: chatContext{
			SessionID:          sess.ID,
			PlatformName:       s.kb.Platform.Name,
			CurrentPage:        updated.CurrentPage,
			ConversationLength: len(updated.Messages),
			LastTopic:          updated.LastTopic,
			AvailableFeatures:  s.kb.Platform.Features,
		},
		Timestamp: time.Now().UTC(),
	}
}

func (s *Server) saveTranscripts(ctx context.Context, sessionID string, msgs ...session.Message) {
	for _, msg := range msgs {
		if msg.ID == "" {
			continue
		}
		err := s.transcripts.SaveMessage(ctx, transcript.MessageRecord{
			ID:        msg.ID,
			SessionID: sessionID,
			Role:      msg.Role,
			Content:   msg.Content,
			Intent:    string(msg.Intent),
			CreatedAt: msg.CreatedAt,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("transcript write failed")
		}
	}
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	lastTopic := intent.LabelNone
	if id := strings.TrimSpace(r.URL.Query().Get("session_id")); id != "" {
		if sess, err := s.sessions.Get(id); err == nil {
			lastTopic = sess.LastTopic
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"suggestions": s.kb.SuggestedQuestions(lastTopic),
		"timestamp":   time.Now().UTC(),
	})
}

type feedbackRequest struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "field 'session_id' is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "invalid_rating", "rating must be between 1 and 5")
		return
	}

	fb, err := s.sessions.AddFeedback(req.SessionID, session.Feedback{
		MessageID: req.MessageID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", "session not found")
		return
	}

	s.metrics.FeedbackRatings.Observe(float64(req.Rating))
	if err := s.transcripts.SaveFeedback(r.Context(), transcript.FeedbackRecord{
		SessionID: req.SessionID,
		MessageID: req.MessageID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: fb.CreatedAt,
	}); err != nil {
		s.log.Warn().Err(err).Str("session_id", req.SessionID).Msg("feedback write failed")
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Thank you for your feedback!",
		"timestamp": fb.CreatedAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"service":         serviceName,
		"version":         Version,
		"active_sessions": s.sessions.ActiveCount(),
		"timestamp":       time.Now().UTC(),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	sum, err := s.sessions.Summarize(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", "session not found")
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

// handleSessionReset discards a conversation so the visitor can start over.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	if err := s.sessions.Reset(id); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", "session not found")
		return
	}
	s.metrics.SessionEvents.WithLabelValues("reset").Inc()
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"timestamp": time.Now().UTC(),
	})
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		return errors.New("request body must be valid JSON")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Success: false, Error: message, Code: code})
}
