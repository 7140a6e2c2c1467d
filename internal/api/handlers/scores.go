package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/data/repos"
	"github.com/wonny/yieldmap/pkg/logger"
)

// ScoreReader is the read side of repos.ScoreRepository
type ScoreReader interface {
	ListScores(ctx context.Context, f repos.ScoreFilter) ([]contracts.ScoreRecord, error)
	ListRollups(ctx context.Context, f repos.RollupFilter) ([]contracts.ScoreRollup, error)
}

// ScoreHandler serves investment scores and rollups
// ⭐ SSOT: 점수 조회 API 핸들러는 이 구조체에서만
type ScoreHandler struct {
	repo   ScoreReader
	logger *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(repo ScoreReader, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{repo: repo, logger: log}
}

// ListScores returns ZIP-level scores
// GET /api/scores?zip=&state=&bedroom=&year=&latest=&sufficient=&limit=&offset=
func (h *ScoreHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	p := &params{q: r.URL.Query()}
	pg := p.page()
	f := repos.ScoreFilter{
		ZipCode:        p.str("zip"),
		State:          p.state(),
		Bedroom:        p.bedroom(),
		Year:           p.intParam("year", 2000, 2100),
		SufficientOnly: p.boolParam("sufficient"),
		LatestOnly:     p.boolParam("latest"),
		Limit:          pg.limit,
		Offset:         pg.offset,
	}
	if p.err != nil {
		respondError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	records, err := h.repo.ListScores(r.Context(), f)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list scores")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve scores")
		return
	}

	respondList(w, records, pg)
}

// ListRollups returns city/county/state rollups
// GET /api/scores/rollups?level=&geo_key=&state=&bedroom=&year=&latest=&limit=&offset=
func (h *ScoreHandler) ListRollups(w http.ResponseWriter, r *http.Request) {
	p := &params{q: r.URL.Query()}
	pg := p.page()
	f := repos.RollupFilter{
		Level:      p.level(contracts.RollupLevels...),
		GeoKey:     p.str("geo_key"),
		State:      p.state(),
		Bedroom:    p.bedroom(),
		Year:       p.intParam("year", 2000, 2100),
		LatestOnly: p.boolParam("latest"),
		Limit:      pg.limit,
		Offset:     pg.offset,
	}
	if p.err != nil {
		respondError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	rollups, err := h.repo.ListRollups(r.Context(), f)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list rollups")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve rollups")
		return
	}

	respondList(w, rollups, pg)
}
