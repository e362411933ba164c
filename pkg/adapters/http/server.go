package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/traversal"
	"github.com/go-chi/chi/v5"
)

// Informer is implemented by nodes able to describe themselves.
type Informer interface {
	Info(ctx context.Context) (map[string]any, error)
}

// Performer is implemented by nodes accepting workflow actions.
type Performer interface {
	PerformAction(ctx context.Context, action string) error
}

// ActionRequest is the body of a POST.
type ActionRequest struct {
	Action string `json:"action"`
}

// ErrorResponse is the body written for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server resolves request paths against a tree of nodes.
type Server struct {
	Root   domain.Node
	Logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler for the tree under root.
//
//	GET  /health  liveness
//	GET  /*       info of the node at the path
//	POST /*       {"action": "..."} performs a workflow action on the node
func NewHandler(root domain.Node, opts ...Option) http.Handler {
	server := &Server{Root: root, Logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/*", server.GetNode)
	r.Post("/*", server.PostAction)
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

// StatusFor maps an error to the HTTP status reported for it.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTraversalKey):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWorkflowUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWorkflowIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrWorkflowNotSupported):
		return http.StatusMethodNotAllowed
	case errors.Is(err, domain.ErrRecordUpdate), errors.Is(err, domain.ErrUnsupportedCriteria):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) resolve(r *http.Request) (domain.Node, error) {
	path := chi.URLParam(r, "*")
	return traversal.Resolve(r.Context(), s.Root, strings.Split(path, "/"))
}

// GetHealth reports liveness.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetNode writes the info of the node at the request path.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := s.resolve(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	informer, ok := node.(Informer)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"object_name": node.Name()})
		return
	}
	info, err := informer.Info(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// PostAction performs the requested workflow action and writes the node's new info.
func (s *Server) PostAction(w http.ResponseWriter, r *http.Request) {
	var body ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Action == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	node, err := s.resolve(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	performer, ok := node.(Performer)
	if !ok {
		s.fail(w, r, domain.ErrWorkflowNotSupported)
		return
	}
	if err := performer.PerformAction(r.Context(), body.Action); err != nil {
		s.fail(w, r, err)
		return
	}

	if informer, ok := node.(Informer); ok {
		info, err := informer.Info(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.Logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
