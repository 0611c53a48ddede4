package api

import (
	"bytes"
	"net/http"

	"github.com/okian/rbd-scoreboard/pkg/logger"
)

// BoardHandler serves the server-rendered leaderboard page.
type BoardHandler struct {
	deps LeaderboardDependencies
}

// NewBoardHandler creates a new leaderboard page handler.
func NewBoardHandler(deps LeaderboardDependencies) *BoardHandler {
	return &BoardHandler{deps: deps}
}

// HandleBoard handles GET /leaderboard requests.
func (h *BoardHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_board"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := boardTemplate.Execute(&buf, h.deps.Leaderboards(r.Context())); err != nil {
		err = WrapKind(op, ErrRender, err)
		logger.Get().Named("api").Error(r.Context(), "leaderboard page failed", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
