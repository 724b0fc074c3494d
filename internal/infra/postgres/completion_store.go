package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"scenario-assessment-service/internal/domain"
)

// CompletionStore persists passed attempts. Re-submitting the same session is
// an upsert, so a host retrying a flaky submit cannot double-record.
type CompletionStore struct {
	pool *pgxpool.Pool
}

func NewCompletionStore(pool *pgxpool.Pool) *CompletionStore {
	return &CompletionStore{pool: pool}
}

func (s *CompletionStore) RecordCompletion(ctx context.Context, completion domain.Completion) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO completions (session_id, game_id, player_id, correct_count, coins_awarded, xp_awarded, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			correct_count=EXCLUDED.correct_count,
			coins_awarded=EXCLUDED.coins_awarded,
			xp_awarded=EXCLUDED.xp_awarded,
			completed_at=EXCLUDED.completed_at`,
		completion.SessionID, completion.GameID, completion.PlayerID,
		completion.CorrectCount, completion.CoinsAwarded, completion.XPAwarded,
		completion.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}
