package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roulette-table/internal/model"
)

type memoryHistory struct {
	rounds    []*model.Round
	bets      map[uuid.UUID][]*model.RoundBet
	err       error
	lastLimit int
}

func (m *memoryHistory) GetByTableID(_ context.Context, tableID string, limit int) ([]*model.Round, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Round
	for _, r := range m.rounds {
		if r.TableID == tableID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryHistory) GetBets(_ context.Context, roundID uuid.UUID) ([]*model.RoundBet, error) {
	return m.bets[roundID], nil
}

func (m *memoryHistory) CountByTableID(_ context.Context, tableID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, r := range m.rounds {
		if r.TableID == tableID {
			n++
		}
	}
	return n, nil
}

func newRoundsServer(t *testing.T, history RoundHistory) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/tables/{tableID}/rounds", NewRoundsHandler(history).List)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestRoundsHandler_List(t *testing.T) {
	won := &model.Round{
		ID: uuid.New(), TableID: "t1", WinningNumber: 1, Color: "red",
		TotalStaked: decimal.NewFromInt(100), TotalPayout: decimal.NewFromInt(200),
		TotalNet: decimal.NewFromInt(100), BalanceAfter: decimal.NewFromInt(1100),
		ResolvedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	lost := &model.Round{
		ID: uuid.New(), TableID: "t1", WinningNumber: 0, Color: "green",
		TotalStaked: decimal.NewFromInt(100), TotalPayout: decimal.Zero,
		TotalNet: decimal.NewFromInt(-100), BalanceAfter: decimal.NewFromInt(1000),
		ResolvedAt: time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
	}
	history := &memoryHistory{
		rounds: []*model.Round{won, lost, {ID: uuid.New(), TableID: "t2"}},
		bets: map[uuid.UUID][]*model.RoundBet{
			won.ID: {{RoundID: won.ID, CellID: "bet-red", Stake: decimal.NewFromInt(100), Payout: decimal.NewFromInt(200), NetGain: decimal.NewFromInt(100), Won: true}},
		},
	}
	srv := newRoundsServer(t, history)

	resp, err := http.Get(srv.URL + "/tables/t1/rounds")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, defaultRoundLimit, history.lastLimit)

	var body RoundListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "t1", body.TableID)
	assert.Equal(t, int64(2), body.Total)
	require.Len(t, body.Rounds, 2)

	first := body.Rounds[0]
	assert.Equal(t, won.ID, first.ID)
	assert.True(t, first.Won)
	assert.True(t, won.BalanceAfter.Equal(first.BalanceAfter))
	require.Len(t, first.Bets, 1)
	assert.Equal(t, "bet-red", first.Bets[0].CellID)
	assert.True(t, first.Bets[0].Won)

	assert.False(t, body.Rounds[1].Won)
	assert.NotNil(t, body.Rounds[1].Bets)
	assert.Empty(t, body.Rounds[1].Bets)
}

func TestRoundsHandler_Limit(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{name: "explicit", query: "?limit=5", wantStatus: http.StatusOK, wantLimit: 5},
		{name: "max", query: "?limit=100", wantStatus: http.StatusOK, wantLimit: 100},
		{name: "zero", query: "?limit=0", wantStatus: http.StatusBadRequest},
		{name: "too large", query: "?limit=101", wantStatus: http.StatusBadRequest},
		{name: "not a number", query: "?limit=ten", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := &memoryHistory{}
			srv := newRoundsServer(t, history)

			resp, err := http.Get(srv.URL + "/tables/t1/rounds" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantLimit, history.lastLimit)
		})
	}
}

func TestRoundsHandler_StorageError(t *testing.T) {
	srv := newRoundsServer(t, &memoryHistory{err: errors.New("connection reset")})

	resp, err := http.Get(srv.URL + "/tables/t1/rounds")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "failed to read round history", body.Error)
}
