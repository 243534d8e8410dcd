package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/gamemaster"
	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/fault"
	"github.com/aretw0/gamemaster/pkg/lifecycle"
	"github.com/aretw0/gamemaster/pkg/safety"
	"github.com/aretw0/gamemaster/pkg/tasks"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Name is the server name announced to MCP clients.
const Name = "gamemaster-mcp"

// TasksURI is the resource listing every registered task.
const TasksURI = "gamemaster://tasks"

// taskSchema accepts any argument object; tasks decode their own arguments.
var taskSchema = json.RawMessage(`{"type":"object","additionalProperties":true}`)

// Server exposes the engine's tasks and sessions as MCP tools.
type Server struct {
	engine    *gamemaster.Engine
	registry  *tasks.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance. Every task in registry
// becomes a tool of the same name; session tools are added when the engine
// has a session manager.
func NewServer(engine *gamemaster.Engine, registry *tasks.Registry, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		registry:  registry,
		mcpServer: server.NewMCPServer(Name, version, server.WithToolCapabilities(false)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTasks()
	if engine.Sessions() != nil {
		s.registerSessionTools()
	}
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE and stops it when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTasks() {
	for _, task := range s.registry.Tasks() {
		tool := mcp.NewToolWithRawSchema(task.Name, task.Description, taskSchema)
		s.mcpServer.AddTool(tool, s.taskHandler(task.Name))
	}
}

func (s *Server) taskHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := s.registry.Execute(ctx, name, request.GetArguments())
		if err != nil {
			return s.toolError(name, err), nil
		}
		return jsonResult(out)
	}
}

func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(mcp.NewTool("session.create",
		mcp.WithDescription("Create a session in the CREATED state. The ID is generated when omitted."),
		mcp.WithString("session_id", mcp.Description("Session ID (optional)")),
		mcp.WithString("campaign_id", mcp.Description("Campaign the session belongs to")),
	), s.handleCreate)

	s.mcpServer.AddTool(mcp.NewTool("session.state",
		mcp.WithDescription("Return a session's state and the events it currently accepts."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleState)

	s.mcpServer.AddTool(mcp.NewTool("session.transition",
		mcp.WithDescription("Apply a lifecycle event such as start, encounter_start or combat_start."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name")),
		mcp.WithObject("payload", mcp.Description("Event payload (optional)")),
	), s.handleTransition)

	s.mcpServer.AddTool(mcp.NewTool("session.play_turn",
		mcp.WithDescription("Resolve and record a combat turn for a session in combat."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithObject("actor", mcp.Required(), mcp.Description("Acting participant")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action kind: attack, save, cast, move or other")),
		mcp.WithObject("action_data", mcp.Description("Action variant data")),
		mcp.WithArray("targets", mcp.Description("Target participants")),
	), s.handlePlayTurn)
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.engine.Sessions().Create(ctx,
		request.GetString("session_id", ""), request.GetString("campaign_id", ""))
	if err != nil {
		return s.toolError("session.create", err), nil
	}
	return jsonResult(state)
}

type stateView struct {
	State  *domain.SessionState  `json:"state"`
	Events []domain.SessionEvent `json:"events"`
}

func (s *Server) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := s.engine.Sessions().Load(ctx, id)
	if err != nil {
		return s.toolError("session.state", err), nil
	}
	events, err := s.engine.Sessions().AvailableEvents(ctx, id)
	if err != nil {
		return s.toolError("session.state", err), nil
	}
	return jsonResult(stateView{State: state, Events: events})
}

func (s *Server) handleTransition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := request.RequireString("event")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	event, err := domain.ParseEvent(raw)
	if err != nil {
		return s.toolError("session.transition", err), nil
	}
	data, _ := request.GetArguments()["payload"].(map[string]any)
	payload, err := lifecycle.DecodePayload(event, data)
	if err != nil {
		return s.toolError("session.transition", err), nil
	}

	out, err := s.engine.Transition(ctx, id, event, payload)
	if err != nil {
		return s.toolError("session.transition", err), nil
	}
	return jsonResult(out)
}

func (s *Server) handlePlayTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const op = "session.play_turn"
	args := request.GetArguments()

	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawActor, _ := args["actor"].(map[string]any)
	actor, err := combat.DecodeParticipant(rawActor)
	if err != nil {
		return s.toolError(op, err), nil
	}
	var rawTargets []map[string]any
	if list, ok := args["targets"].([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return s.toolError(op, fmt.Errorf("%w: target must be an object", combat.ErrInvalidParticipant)), nil
			}
			rawTargets = append(rawTargets, m)
		}
	}
	targets, err := combat.DecodeParticipants(rawTargets)
	if err != nil {
		return s.toolError(op, err), nil
	}
	data, _ := args["action_data"].(map[string]any)
	action, err := combat.DecodeAction(request.GetString("action", ""), data)
	if err != nil {
		return s.toolError(op, err), nil
	}
	if action.Description != "" {
		if action.Description, err = safety.SanitizeInput(action.Description, 0); err != nil {
			s.logger.Warn("MCP PlayTurn: Input rejected", "error", err, "size", len(action.Description))
			return s.toolError(op, err), nil
		}
	}

	rec, err := s.engine.PlayTurn(ctx, id, actor, action, targets)
	if err != nil {
		return s.toolError(op, err), nil
	}
	return jsonResult(rec)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TasksURI, "Registered Tasks",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.registry.Tasks())
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TasksURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// toolError reports err to the client as a failed tool result. Faults are
// logged; domain errors are the caller's problem.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	if errors.Is(err, tasks.ErrTimeLimit) || fault.KindOf(err) == fault.KindFault {
		s.logger.Error("MCP tool failed", "tool", op, "error", err)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
