package leaderboard

import (
	"context"
	"fmt"

	"github.com/burnmate/burnmate/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Global computes the leaderboard rollup across all users. Users without
// a single workout never show up. A workout whose user record is gone
// still counts, with name and avatar falling back to defaults.
func (r *Repo) Global(ctx context.Context) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.leaderboard.global")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT
				w.user_id,
				COALESCE(u.name, 'Anonymous'),
				COALESCE(u.avatar_url, ''),
				SUM(w.calories_burned)::int AS total_calories,
				COUNT(*)::int AS workouts_count
			FROM workout w
			LEFT JOIN burn_user u ON u.id = w.user_id
			GROUP BY w.user_id, u.name, u.avatar_url
			ORDER BY total_calories DESC, w.user_id ASC;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UserID, &e.Name, &e.AvatarURL, &e.TotalCalories, &e.WorkoutsCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))

	return AssignRanks(entries), nil
}
