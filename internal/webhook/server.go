// internal/webhook/server.go
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/apperr"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/compose"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/discord"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/notion"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/roster"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/telegram"
)

// DefaultMaxBodyBytes caps webhook request bodies.
const DefaultMaxBodyBytes = 1 << 20

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

// Deliverer routes composed messages to chat destinations.
type Deliverer interface {
	Has(prefix string) bool
	Deliver(ctx context.Context, destination string, msg compose.Message) error
}

// Syncer links an event's roster to its page.
type Syncer interface {
	Sync(ctx context.Context, req *roster.Request) (*roster.Result, error)
}

// Options configures a Server. A nil Roster disables participant syncing.
type Options struct {
	Delivery     Deliverer
	Roster       Syncer
	MaxBodyBytes int64
}

// Server is a lightweight HTTP handler for webhook endpoints.
type Server struct {
	delivery     Deliverer
	roster       Syncer
	maxBodyBytes int64
	mux          *http.ServeMux
}

// NewServer creates a new webhook Server.
func NewServer(opts Options) *Server {
	s := &Server{
		delivery:     opts.Delivery,
		roster:       opts.Roster,
		maxBodyBytes: opts.MaxBodyBytes,
		mux:          http.NewServeMux(),
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = DefaultMaxBodyBytes
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /events/participants", s.handleParticipants)
	s.mux.HandleFunc("POST /telegram/{chatID}", s.handleTelegram)
	s.mux.HandleFunc("POST /{channelID}", s.handleDiscord)
	return s
}

// ServeHTTP assigns a request id and delegates to the internal mux,
// implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)

	logger := slog.With("request_id", id)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	s.mux.ServeHTTP(rec, r.WithContext(withLogger(r.Context(), logger)))
	logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDiscord(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("channelID")
	if !s.delivery.Has("discord:") {
		writeError(w, r, apperr.Internal("DISCORD_BOT_TOKEN is not set", nil))
		return
	}
	if !discord.ValidChannelID(channelID) {
		writeError(w, r, apperr.InvalidRequest("invalid channel id"))
		return
	}
	s.relay(w, r, "discord:"+channelID)
}

func (s *Server) handleTelegram(w http.ResponseWriter, r *http.Request) {
	if !s.delivery.Has("telegram:") {
		writeError(w, r, apperr.Internal("TELEGRAM_BOT_TOKEN is not set", nil))
		return
	}
	chatID := r.PathValue("chatID")
	if _, err := telegram.ParseChatID(chatID); err != nil {
		writeError(w, r, apperr.InvalidRequest("invalid chat id"))
		return
	}
	s.relay(w, r, "telegram:"+chatID)
}

// relay composes the page posted by an automation and delivers it.
func (s *Server) relay(w http.ResponseWriter, r *http.Request, destination string) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in notion.WebhookBody
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(w, r, apperr.InvalidRequest("invalid JSON"))
		return
	}
	if in.Data == nil {
		writeError(w, r, apperr.InvalidRequest("missing data"))
		return
	}

	msg := compose.Record(in.Data, r.URL.Query().Get("title"))
	if err := s.delivery.Deliver(r.Context(), destination, msg); err != nil {
		writeError(w, r, apperr.Upstream("delivery failed", err))
		return
	}
	loggerFrom(r.Context()).Debug("page delivered", "destination", destination, "page_id", in.Data.ID, "properties", len(msg.Fields))
	w.WriteHeader(http.StatusNoContent)
}

// envelope is the response body of the participants endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	fail := func(err error) {
		logError(r, err)
		writeJSON(w, apperr.StatusOf(err), envelope{Error: apperr.Message(err, roster.MsgProcessFailed)})
	}

	if s.roster == nil {
		fail(apperr.Internal("NOTION_API_KEY is not set", nil))
		return
	}
	body, err := s.readBody(w, r)
	if err != nil {
		fail(err)
		return
	}
	req, err := roster.ParseRequest(body)
	if err != nil {
		fail(err)
		return
	}
	res, err := s.roster.Sync(r.Context(), req)
	if err != nil {
		fail(err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: roster.MsgUpdated, Data: res})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.TooLarge("request body too large")
		}
		return nil, apperr.InvalidRequest("reading request body failed")
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r, err)
	writeJSON(w, apperr.StatusOf(err), map[string]string{"error": apperr.Message(err, "internal server error")})
}

func logError(r *http.Request, err error) {
	logger := loggerFrom(r.Context())
	if apperr.StatusOf(err) >= http.StatusInternalServerError {
		logger.Error("webhook failed", "path", r.URL.Path, "error", err)
		return
	}
	logger.Warn("webhook rejected", "path", r.URL.Path, "error", err)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
