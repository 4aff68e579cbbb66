package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/guezito-dev/gigachads/internal/ranking"
	"github.com/guezito-dev/gigachads/internal/widget"
)

// ArtifactLoader returns the current ranking
type ArtifactLoader interface {
	Load(ctx context.Context) (*ranking.Artifact, error)
}

// RunStore reads archived aggregation runs
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]ranking.Run, error)
	GetRun(ctx context.Context, id int64) (*ranking.Artifact, error)
}

// RankingHandler serves the ranking as JSON
type RankingHandler struct {
	loader ArtifactLoader
	runs   RunStore
}

func NewRankingHandler(loader ArtifactLoader, runs RunStore) *RankingHandler {
	return &RankingHandler{loader: loader, runs: runs}
}

// Current handles GET /api/ranking
func (h *RankingHandler) Current(w http.ResponseWriter, r *http.Request) {
	art, err := h.loader.Load(r.Context())
	if err != nil {
		if errors.Is(err, widget.ErrDataUnavailable) {
			slog.Warn("Ranking unavailable", "error", err)
			respondError(w, http.StatusServiceUnavailable, "Ranking data unavailable")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load ranking")
		return
	}
	respondJSON(w, http.StatusOK, art)
}

// ListRuns handles GET /api/ranking/runs?limit=
func (h *RankingHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list ranking runs", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// GetRun handles GET /api/ranking/runs/{id}
func (h *RankingHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	art, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, ranking.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		slog.Error("Failed to get ranking run", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}
	respondJSON(w, http.StatusOK, art)
}
