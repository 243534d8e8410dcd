package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/gamemaster"
	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/fault"
	"github.com/aretw0/gamemaster/pkg/lifecycle"
	"github.com/aretw0/gamemaster/pkg/safety"
	"github.com/aretw0/gamemaster/pkg/tasks"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the engine's tasks and sessions over HTTP. Requests and
// responses are the engine's Go types marshalled as JSON.
type Server struct {
	Engine  *gamemaster.Engine
	Tasks   *tasks.Registry
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetricsHandler replaces the default Prometheus handler on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *gamemaster.Engine, registry *tasks.Registry, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Tasks:   registry,
		metrics: promhttp.Handler(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", server.GetHealth)
	r.Handle("/metrics", server.metrics)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", server.ListTasks)
		r.Post("/{name}", server.ExecuteTask)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", server.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Get("/events", server.AvailableEvents)
			r.Post("/events/{event}", server.Transition)
			r.Get("/turns", server.ListTurns)
			r.Post("/turns", server.PlayTurn)
			r.Get("/stream", server.Stream)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTasks handles the GET /tasks request.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Tasks.Tasks())
}

// ExecuteTask handles the POST /tasks/{name} request. The body is the task's
// argument object; an empty body means no arguments.
func (s *Server) ExecuteTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args := map[string]any{}
	if err := decodeBody(r, &args); err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.Tasks.Execute(r.Context(), name, args)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

type createSessionRequest struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	sessions := s.Engine.Sessions()
	if sessions == nil {
		s.writeError(w, r, gamemaster.ErrNoSessions)
		return
	}

	state, err := sessions.Create(r.Context(), body.ID, body.CampaignID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, state)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sessions := s.Engine.Sessions()
	if sessions == nil {
		s.writeError(w, r, gamemaster.ErrNoSessions)
		return
	}
	state, err := sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// AvailableEvents handles the GET /sessions/{id}/events request.
func (s *Server) AvailableEvents(w http.ResponseWriter, r *http.Request) {
	sessions := s.Engine.Sessions()
	if sessions == nil {
		s.writeError(w, r, gamemaster.ErrNoSessions)
		return
	}
	events, err := sessions.AvailableEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// Transition handles the POST /sessions/{id}/events/{event} request. The
// optional body is the event's payload.
func (s *Server) Transition(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	event, err := domain.ParseEvent(chi.URLParam(r, "event"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := map[string]any{}
	if err := decodeBody(r, &data); err != nil {
		s.writeError(w, r, err)
		return
	}
	payload, err := lifecycle.DecodePayload(event, data)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	out, err := s.Engine.Transition(r.Context(), sessionID, event, payload)
	if out != nil {
		s.Streams.Publish(sessionID, StreamMessage{Type: "transition", Data: out})
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ListTurns handles the GET /sessions/{id}/turns request.
func (s *Server) ListTurns(w http.ResponseWriter, r *http.Request) {
	sessions := s.Engine.Sessions()
	if sessions == nil {
		s.writeError(w, r, gamemaster.ErrNoSessions)
		return
	}
	turns, err := sessions.Turns(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if turns == nil {
		turns = []combat.TurnRecord{}
	}
	s.writeJSON(w, http.StatusOK, turns)
}

type playTurnRequest struct {
	Actor      map[string]any   `json:"actor"`
	Action     string           `json:"action"`
	ActionData map[string]any   `json:"action_data"`
	Targets    []map[string]any `json:"targets"`
}

// PlayTurn handles the POST /sessions/{id}/turns request.
func (s *Server) PlayTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var body playTurnRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	actor, err := combat.DecodeParticipant(body.Actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	targets, err := combat.DecodeParticipants(body.Targets)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	action, err := combat.DecodeAction(body.Action, body.ActionData)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Sanitize Input (Global Policy)
	if action.Description != "" {
		if action.Description, err = safety.SanitizeInput(action.Description, 0); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	rec, err := s.Engine.PlayTurn(r.Context(), sessionID, actor, action, targets)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Publish(sessionID, StreamMessage{Type: "turn", Data: rec})
	s.writeJSON(w, http.StatusCreated, rec)
}

// Stream handles the GET /sessions/{id}/stream request (SSE). Clients
// receive every transition and turn of the session as it happens.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	sessionID := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

// decodeBody decodes a JSON body into out. An empty body leaves out as is.
func decodeBody(r *http.Request, out any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: fault.KindOf(err)})
}
