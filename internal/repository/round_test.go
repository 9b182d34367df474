// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"roulette-table/internal/game/roulette"
	"roulette-table/internal/pkg/db"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a migrated connection pool.
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// resolvedRound builds a round by resolving stakes against the standard layout.
func resolvedRound(t *testing.T, tableID string, stakes map[string]decimal.Decimal, number int, at time.Time) *roulette.Round {
	t.Helper()
	res, err := roulette.Resolve(stakes, number, roulette.StandardLayout())
	require.NoError(t, err)
	return &roulette.Round{
		ID:           uuid.New(),
		TableID:      tableID,
		Resolution:   res,
		BalanceAfter: decimal.NewFromInt(900).Add(res.TotalNet),
		ResolvedAt:   at,
	}
}

func TestRoundRepository_RecordRound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRoundRepository(pool)
	ctx := context.Background()

	stakes := map[string]decimal.Decimal{
		"bet-red": decimal.NewFromInt(100),
		"bet-17":  decimal.NewFromInt(50),
		"bet-20":  decimal.NewFromInt(50),
	}
	round := resolvedRound(t, "table-a", stakes, 17, time.Now().UTC().Truncate(time.Microsecond))

	require.NoError(t, repo.RecordRound(ctx, round))

	rounds, err := repo.GetByTableID(ctx, "table-a", 10)
	require.NoError(t, err)
	require.Len(t, rounds, 1)

	got := rounds[0]
	assert.Equal(t, round.ID, got.ID)
	assert.Equal(t, 17, got.WinningNumber)
	assert.Equal(t, "black", got.Color)
	assert.True(t, decimal.NewFromInt(200).Equal(got.TotalStaked), "staked %s", got.TotalStaked)
	assert.True(t, decimal.NewFromInt(1800).Equal(got.TotalPayout), "payout %s", got.TotalPayout)
	assert.True(t, decimal.NewFromInt(1600).Equal(got.TotalNet), "net %s", got.TotalNet)
	assert.True(t, got.Won())
	assert.True(t, round.ResolvedAt.Equal(got.ResolvedAt))

	bets, err := repo.GetBets(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, bets, 3)

	byCell := make(map[string]bool)
	for _, b := range bets {
		byCell[b.CellID] = b.Won
		assert.Equal(t, round.ID, b.RoundID)
	}
	assert.Equal(t, map[string]bool{"bet-17": true, "bet-20": false, "bet-red": false}, byCell)
}

func TestRoundRepository_RecordRound_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRoundRepository(pool)
	ctx := context.Background()

	round := resolvedRound(t, "table-a", map[string]decimal.Decimal{"bet-0": decimal.NewFromInt(100)}, 0, time.Now())
	require.NoError(t, repo.RecordRound(ctx, round))

	err := repo.RecordRound(ctx, round)
	assert.Error(t, err)

	count, err := repo.CountByTableID(ctx, "table-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRoundRepository_RecordRound_MissingResolution(t *testing.T) {
	repo := NewRoundRepository(nil)
	err := repo.RecordRound(context.Background(), &roulette.Round{ID: uuid.New()})
	assert.Error(t, err)
}

func TestRoundRepository_GetByTableID_OrderAndLimit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRoundRepository(pool)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	stakes := map[string]decimal.Decimal{"bet-odd": decimal.NewFromInt(100)}
	for i := 0; i < 5; i++ {
		round := resolvedRound(t, "table-a", stakes, i+1, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.RecordRound(ctx, round))
	}
	other := resolvedRound(t, "table-b", stakes, 3, base)
	require.NoError(t, repo.RecordRound(ctx, other))

	rounds, err := repo.GetByTableID(ctx, "table-a", 3)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	assert.Equal(t, []int{5, 4, 3}, []int{rounds[0].WinningNumber, rounds[1].WinningNumber, rounds[2].WinningNumber})

	count, err := repo.CountByTableID(ctx, "table-b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRoundRepository_GetBets_UnknownRound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRoundRepository(pool)
	bets, err := repo.GetBets(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, bets)
}
