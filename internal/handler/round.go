package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"roulette-table/internal/model"
)

const (
	defaultRoundLimit = 20
	maxRoundLimit     = 100
)

// RoundHistory reads back the round journal.
type RoundHistory interface {
	GetByTableID(ctx context.Context, tableID string, limit int) ([]*model.Round, error)
	GetBets(ctx context.Context, roundID uuid.UUID) ([]*model.RoundBet, error)
	CountByTableID(ctx context.Context, tableID string) (int64, error)
}

// RoundResponse is one journaled round with its per-bet results.
type RoundResponse struct {
	*model.Round
	Won  bool              `json:"won"`
	Bets []*model.RoundBet `json:"bets"`
}

// RoundListResponse is the latest rounds of a table, newest first.
type RoundListResponse struct {
	TableID string           `json:"table_id"`
	Total   int64            `json:"total"`
	Rounds  []*RoundResponse `json:"rounds"`
}

// RoundsHandler serves the journaled rounds of a table.
type RoundsHandler struct {
	history RoundHistory
}

// NewRoundsHandler creates a new RoundsHandler.
func NewRoundsHandler(history RoundHistory) *RoundsHandler {
	return &RoundsHandler{history: history}
}

// List serves up to ?limit= rounds of the table in the URL. Closed tables
// keep their history.
func (h *RoundsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableID := chi.URLParam(r, "tableID")

	limit := defaultRoundLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRoundLimit {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "limit must be between 1 and " + strconv.Itoa(maxRoundLimit)})
			return
		}
		limit = n
	}

	total, err := h.history.CountByTableID(ctx, tableID)
	if err != nil {
		h.fail(w, r, err, tableID)
		return
	}
	rounds, err := h.history.GetByTableID(ctx, tableID, limit)
	if err != nil {
		h.fail(w, r, err, tableID)
		return
	}

	resp := RoundListResponse{TableID: tableID, Total: total, Rounds: make([]*RoundResponse, 0, len(rounds))}
	for _, round := range rounds {
		bets, err := h.history.GetBets(ctx, round.ID)
		if err != nil {
			h.fail(w, r, err, tableID)
			return
		}
		if bets == nil {
			bets = []*model.RoundBet{}
		}
		resp.Rounds = append(resp.Rounds, &RoundResponse{Round: round, Won: round.Won(), Bets: bets})
	}
	render.JSON(w, r, resp)
}

func (h *RoundsHandler) fail(w http.ResponseWriter, r *http.Request, err error, tableID string) {
	hlog.FromRequest(r).Error().Err(err).Str("table_id", tableID).Msg("Failed to read round history")
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{Error: "failed to read round history"})
}
