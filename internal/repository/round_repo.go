package repository

import (
	"context"
	"time"

	"rps_webapp/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RoundStore archives committed rounds for aggregate statistics
type RoundStore interface {
	Create(ctx context.Context, rec *domain.RoundRecord) error
	Stats(ctx context.Context, since time.Time) (*domain.RoundStats, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ RoundStore = (*RoundRepository)(nil)
	_ RoundStore = (*SQLiteRoundRepository)(nil)
)

type RoundRepository struct {
	db *pgxpool.Pool
}

func NewRoundRepository(db *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{db: db}
}

// Create сохраняет раунд в архив
func (r *RoundRepository) Create(ctx context.Context, rec *domain.RoundRecord) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO rounds
			(session_id, variant, mode, result, player_move, opponent_move)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		rec.SessionID,
		rec.Variant,
		rec.Mode,
		rec.Result,
		rec.PlayerMove,
		rec.OpponentMove,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// Stats aggregates rounds created at or after since
func (r *RoundRepository) Stats(ctx context.Context, since time.Time) (*domain.RoundStats, error) {
	stats := &domain.RoundStats{Since: since, MoveCounts: map[string]int{}}

	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE result = 'win'),
			COUNT(*) FILTER (WHERE result = 'loss'),
			COUNT(*) FILTER (WHERE result = 'draw')
		 FROM rounds
		 WHERE created_at >= $1`,
		since,
	).Scan(&stats.TotalRounds, &stats.Wins, &stats.Losses, &stats.Draws)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT player_move, COUNT(*)
		 FROM rounds
		 WHERE created_at >= $1
		 GROUP BY player_move`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			move  string
			count int
		)
		if err := rows.Scan(&move, &count); err != nil {
			return nil, err
		}
		stats.MoveCounts[move] = count
	}

	return stats, rows.Err()
}

func (r *RoundRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *RoundRepository) Close() error {
	r.db.Close()
	return nil
}
