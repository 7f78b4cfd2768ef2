package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/burnmate/burnmate/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// uniqueViolation is the postgres error code raised on the
// burn_user email unique constraint
const uniqueViolation = "23505"

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Create(ctx context.Context, params CreateUserParams) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO burn_user
				(name, email, password_hash, age, gender, created_at)
				VALUES ($1, $2, $3, $4, $5, now())
			RETURNING id, created_at;`,
		params.Name, params.Email, params.PasswordHash, params.Age, params.Gender,
	)
	if err != nil {
		return nil, asRepoError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, asRepoError(err)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, asRepoError(err)
		}
		return nil, errors.New("unexpected error [no rows next]")
	}

	user := User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Age:          params.Age,
		Gender:       params.Gender,
	}
	if err := rows.Scan(&user.ID, &user.CreatedAt); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))

	return &user, nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getbyid")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return r.getOne(
		ctx,
		`SELECT id, name, email, password_hash, age, gender, bio, avatar_url, created_at
			FROM burn_user WHERE id = $1;`,
		id,
	)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getbyemail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getOne(
		ctx,
		`SELECT id, name, email, password_hash, age, gender, bio, avatar_url, created_at
			FROM burn_user WHERE email = $1;`,
		email,
	)
}

func (r *Repo) UpdateProfile(ctx context.Context, id int, params UpdateProfileParams) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updateprofile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE burn_user
			SET name = $1, bio = $2, avatar_url = $3, age = $4, gender = $5, updated_at = now()
			WHERE id = $6;`,
		params.Name, params.Bio, params.AvatarURL, params.Age, params.Gender, id,
	)
	if err != nil {
		return nil, err
	}

	if tag.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (*User, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	users, err := rows2users(rows)
	if err != nil {
		return nil, err
	}

	if len(users) != 1 {
		return nil, ErrUserNotFound
	}

	return &users[0], nil
}

// asRepoError maps the burn_user email unique violation to ErrEmailTaken
func asRepoError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func rows2users(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash,
			&u.Age, &u.Gender, &u.Bio, &u.AvatarURL, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
