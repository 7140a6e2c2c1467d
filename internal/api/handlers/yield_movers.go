package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/data/repos"
	"github.com/wonny/yieldmap/pkg/logger"
)

// YieldMoverReader is the read side of repos.YieldMoverRepository
type YieldMoverReader interface {
	ListYieldMovers(ctx context.Context, f repos.YieldMoverFilter) ([]contracts.YieldMoverRecord, error)
}

// YieldMoverHandler serves yield movers
type YieldMoverHandler struct {
	repo   YieldMoverReader
	logger *logger.Logger
}

// NewYieldMoverHandler creates a new yield mover handler
func NewYieldMoverHandler(repo YieldMoverReader, log *logger.Logger) *YieldMoverHandler {
	return &YieldMoverHandler{repo: repo, logger: log}
}

// List returns yield movers, largest divergence first by default
// GET /api/yield-movers?level=&state=&bedroom=&year=&sort=divergence|yield_delta|yield&order=asc|desc
func (h *YieldMoverHandler) List(w http.ResponseWriter, r *http.Request) {
	p := &params{q: r.URL.Query()}
	pg := p.page()
	f := repos.YieldMoverFilter{
		Level:   p.level(contracts.GeoLevelZip, contracts.GeoLevelCity, contracts.GeoLevelCounty),
		State:   p.state(),
		Bedroom: p.bedroom(),
		Year:    p.intParam("year", 2000, 2100),
		SortBy:  p.str("sort"),
		Limit:   pg.limit,
		Offset:  pg.offset,
	}
	switch f.SortBy {
	case "", "divergence", "yield_delta", "yield":
	default:
		respondError(w, http.StatusBadRequest, "sort must be divergence, yield_delta or yield")
		return
	}
	switch p.str("order") {
	case "", "desc":
	case "asc":
		f.Asc = true
	default:
		respondError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}
	if p.err != nil {
		respondError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	records, err := h.repo.ListYieldMovers(r.Context(), f)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list yield movers")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve yield movers")
		return
	}

	respondList(w, records, pg)
}
