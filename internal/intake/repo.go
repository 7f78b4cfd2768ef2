package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/burnmate/burnmate/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// ListParams is an optional closed time range filter. A nil bound
// leaves that side of the range open.
type ListParams struct {
	From *time.Time
	To   *time.Time
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, entry Intake) (_ *Intake, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.intake.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO intake
				(user_id, name, calories, protein, timestamp)
				VALUES ($1, $2, $3, $4, $5)
			RETURNING id;`,
		entry.UserID, entry.Name, entry.Calories, entry.Protein, entry.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("intake.id", id))

	entry.ID = id
	return &entry, nil
}

// ListForUser returns intake entries of a user, newest first, optionally
// bounded to a time range.
func (r *Repo) ListForUser(ctx context.Context, userID int, params ListParams) (_ []Intake, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.intake.listforuser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	query := `SELECT id, user_id, name, calories, protein, timestamp
		FROM intake
		WHERE user_id = $1`
	args := []interface{}{userID}
	if params.From != nil {
		args = append(args, *params.From)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if params.To != nil {
		args = append(args, *params.To)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	query += " ORDER BY timestamp DESC;"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return rows2intakes(rows)
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Intake, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.intake.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("intake.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, calories, protein, timestamp
			FROM intake
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if !rows.Next() {
		return nil, ErrIntakeNotFound
	}

	var entry Intake
	if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Name, &entry.Calories, &entry.Protein, &entry.Timestamp); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	return &entry, nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.intake.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("intake.id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM intake WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIntakeNotFound
	}

	return nil
}

func rows2intakes(rows pgx.Rows) ([]Intake, error) {
	var entries []Intake
	for rows.Next() {
		var e Intake
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Calories, &e.Protein, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if entries == nil {
		entries = make([]Intake, 0)
	}

	return entries, nil
}
