package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/models"
)

const uniqueViolation = "23505"

// PostgresUserStore keeps accounts in PostgreSQL. It is used instead of the
// users collection when POSTGRES_DSN is configured.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresUserStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username        VARCHAR(50)   UNIQUE NOT NULL,
			password        VARCHAR(255)  NOT NULL,
			name            VARCHAR(100)  NOT NULL DEFAULT '',
			bio             TEXT          NOT NULL DEFAULT '',
			profile_picture VARCHAR(255)  NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ   DEFAULT NOW()
		)
	`)
	return apperr.Store("postgres migrate", err)
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error) {
	u := models.User{PasswordHash: hashedPassword}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password)
		 VALUES ($1, $2)
		 RETURNING id::text, username, name, bio, profile_picture, created_at`,
		username, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.Name, &u.Bio, &u.ProfilePicture, &u.CreatedAt)
	if err != nil {
		return nil, insertErr("postgres create user", err)
	}
	return &u, nil
}

// insertErr turns a unique violation into apperr.ErrConflict.
func insertErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.ErrConflict
	}
	return apperr.Store(op, err)
}

func (s *PostgresUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `WHERE username = $1`, username)
}

func (s *PostgresUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `WHERE id::text = $1`, id)
}

func (s *PostgresUserStore) getUser(ctx context.Context, where string, arg string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, username, password, name, bio, profile_picture, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Bio, &u.ProfilePicture, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Store("postgres get user", err)
	}
	return &u, nil
}

func (s *PostgresUserStore) UpdateProfile(ctx context.Context, id string, p models.Profile) error {
	return s.exec(ctx, `UPDATE users SET name = $2, bio = $3 WHERE id::text = $1`, id, p.Name, p.Bio)
}

func (s *PostgresUserStore) SetProfilePicture(ctx context.Context, id, key string) error {
	return s.exec(ctx, `UPDATE users SET profile_picture = $2 WHERE id::text = $1`, id, key)
}

func (s *PostgresUserStore) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return apperr.Store("postgres update user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
