// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"roulette-table/internal/game/roulette"
	"roulette-table/internal/model"
)

// RoundRepository persists resolved rounds. It implements roulette.Journal.
type RoundRepository struct {
	pool *pgxpool.Pool
}

// NewRoundRepository creates a new RoundRepository instance.
func NewRoundRepository(pool *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{pool: pool}
}

var _ roulette.Journal = (*RoundRepository)(nil)

// RecordRound stores a round and its per-bet results in one transaction.
func (r *RoundRepository) RecordRound(ctx context.Context, round *roulette.Round) error {
	if round == nil || round.Resolution == nil {
		return fmt.Errorf("failed to record round: missing resolution")
	}
	res := round.Resolution

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertRound = `
		INSERT INTO rounds (id, table_id, winning_number, color, total_staked, total_payout, total_net, balance_after, resolved_at)
		VALUES ($1::uuid, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9)
	`
	_, err = tx.Exec(ctx, insertRound,
		round.ID.String(),
		round.TableID,
		res.WinningNumber,
		string(res.Color),
		res.TotalStaked.String(),
		res.TotalPayout.String(),
		res.TotalNet.String(),
		round.BalanceAfter.String(),
		round.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}

	const insertBet = `
		INSERT INTO round_bets (round_id, cell_id, stake, payout, net_gain, won)
		VALUES ($1::uuid, $2, $3::numeric, $4::numeric, $5::numeric, $6)
	`
	batch := &pgx.Batch{}
	for _, bet := range res.Bets {
		batch.Queue(insertBet,
			round.ID.String(),
			bet.CellID,
			bet.Stake.String(),
			bet.Payout.String(),
			bet.NetGain.String(),
			bet.Won,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert round bets: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit round: %w", err)
	}
	return nil
}

// GetByTableID retrieves the latest rounds of a table, newest first.
func (r *RoundRepository) GetByTableID(ctx context.Context, tableID string, limit int) ([]*model.Round, error) {
	const query = `
		SELECT id::text, table_id, winning_number, color,
			total_staked::text, total_payout::text, total_net::text, balance_after::text, resolved_at
		FROM rounds
		WHERE table_id = $1
		ORDER BY resolved_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, tableID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*model.Round
	for rows.Next() {
		var (
			round                              model.Round
			id, staked, payout, net, afterText string
			winning                            int16
		)
		if err := rows.Scan(&id, &round.TableID, &winning, &round.Color,
			&staked, &payout, &net, &afterText, &round.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		round.WinningNumber = int(winning)
		if round.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse round id: %w", err)
		}
		if err := parseDecimals(
			decimalField{staked, &round.TotalStaked},
			decimalField{payout, &round.TotalPayout},
			decimalField{net, &round.TotalNet},
			decimalField{afterText, &round.BalanceAfter},
		); err != nil {
			return nil, err
		}
		rounds = append(rounds, &round)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}

	return rounds, nil
}

// GetBets retrieves the per-bet results of a round, ordered by cell id.
func (r *RoundRepository) GetBets(ctx context.Context, roundID uuid.UUID) ([]*model.RoundBet, error) {
	const query = `
		SELECT cell_id, stake::text, payout::text, net_gain::text, won
		FROM round_bets
		WHERE round_id = $1::uuid
		ORDER BY cell_id
	`

	rows, err := r.pool.Query(ctx, query, roundID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get round bets: %w", err)
	}
	defer rows.Close()

	var bets []*model.RoundBet
	for rows.Next() {
		bet := model.RoundBet{RoundID: roundID}
		var stake, payout, net string
		if err := rows.Scan(&bet.CellID, &stake, &payout, &net, &bet.Won); err != nil {
			return nil, fmt.Errorf("failed to scan round bet: %w", err)
		}
		if err := parseDecimals(
			decimalField{stake, &bet.Stake},
			decimalField{payout, &bet.Payout},
			decimalField{net, &bet.NetGain},
		); err != nil {
			return nil, err
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating round bets: %w", err)
	}

	return bets, nil
}

// CountByTableID returns the number of rounds recorded for a table.
func (r *RoundRepository) CountByTableID(ctx context.Context, tableID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM rounds WHERE table_id = $1`, tableID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rounds: %w", err)
	}
	return count, nil
}

type decimalField struct {
	text string
	dst  *decimal.Decimal
}

func parseDecimals(fields ...decimalField) error {
	for _, f := range fields {
		d, err := decimal.NewFromString(f.text)
		if err != nil {
			return fmt.Errorf("failed to parse amount %q: %w", f.text, err)
		}
		*f.dst = d
	}
	return nil
}
