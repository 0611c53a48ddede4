package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/rbd-scoreboard/internal/app"
	"github.com/okian/rbd-scoreboard/internal/domain/model"
	"github.com/okian/rbd-scoreboard/internal/domain/sheet"
	"github.com/okian/rbd-scoreboard/pkg/logger"
)

// ScoreDependencies defines the interface for score sheet operations.
type ScoreDependencies interface {
	Target(hazards model.HazardSelection) model.TargetResult
	Preview(form sheet.Form) sheet.View
	Submit(ctx context.Context, form sheet.Form) service.SubmitResult
}

// ScoresHandler handles score sheet requests.
type ScoresHandler struct {
	deps     ScoreDependencies
	validate *validator.Validate
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies, v *validator.Validate) *ScoresHandler {
	if v == nil {
		v = newValidator()
	}
	return &ScoresHandler{deps: deps, validate: v}
}

// HandleTarget handles POST /api/target requests.
func (h *ScoresHandler) HandleTarget(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_target"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req targetRequest
	if err := decodeBody(op, w, r, h.validate, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Target(req.selection()))
}

// HandlePreview handles POST /api/sheet requests: it returns every derived
// value for the posted form without storing anything.
func (h *ScoresHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_sheet"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var form sheet.Form
	if err := decodeBody(op, w, r, h.validate, &form); err != nil {
		writeDecodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Preview(form))
}

// HandleSubmit handles POST /api/scores requests. A well-formed body always
// gets 200; the status field tells where the score was stored.
func (h *ScoresHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_scores"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var form sheet.Form
	if err := decodeBody(op, w, r, h.validate, &form); err != nil {
		writeDecodeError(w, err)
		return
	}

	res := h.deps.Submit(r.Context(), form)
	logger.Get().Named("api").Debug(r.Context(), "score submitted",
		logger.String("status", string(res.Status)),
		logger.Int("teamScore", res.Score.TeamScore),
		logger.Bool("win", res.Outcome.IsWin),
	)
	writeJSON(w, http.StatusOK, res)
}
