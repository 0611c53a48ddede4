// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/rbd-scoreboard/internal/app"
	"github.com/okian/rbd-scoreboard/internal/domain/model"
	"github.com/okian/rbd-scoreboard/internal/domain/sheet"
)

// maxBodyBytes caps request bodies; a full score sheet is well under 8 KiB.
const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	LeaderboardDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	leaderboardHandler *LeaderboardHandler
	boardHandler       *BoardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	v := newValidator()
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		scoresHandler:      NewScoresHandler(deps, v),
		leaderboardHandler: NewLeaderboardHandler(deps),
		boardHandler:       NewBoardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/target", MetricsMiddleware(s.scoresHandler.HandleTarget, "target"))
	mux.HandleFunc("/api/sheet", MetricsMiddleware(s.scoresHandler.HandlePreview, "sheet"))
	mux.HandleFunc("/api/scores", MetricsMiddleware(s.scoresHandler.HandleSubmit, "scores"))
	mux.HandleFunc("/api/leaderboards", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboards, "leaderboards"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.boardHandler.HandleBoard, "board"))
}

// Compile-time check that the service satisfies the handler contracts.
var _ Dependencies = (*service.Service)(nil)

// targetRequest is the body of POST /api/target.
type targetRequest struct {
	Hazards []sheet.FormValue `json:"hazards" validate:"max=16,dive,max=12"`
}

func (r targetRequest) selection() model.HazardSelection {
	out := make(model.HazardSelection, len(r.Hazards))
	for i, h := range r.Hazards {
		out[i] = string(h)
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDecodeError answers a request whose body could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeBody reads one JSON value from the request and validates it.
// Both malformed JSON and failed validation are ErrBadRequest.
func decodeBody(op string, w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	if dec.More() {
		return WrapKind(op, ErrBadRequest, errors.New("trailing data after JSON body"))
	}
	if err := v.Struct(dst); err != nil {
		return WrapKind(op, ErrBadRequest, fmt.Errorf("%w: %w", ErrInvalidInput, describe(err)))
	}
	return nil
}
