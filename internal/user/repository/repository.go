package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/messagely/backend/internal/common/db"
	"github.com/messagely/backend/internal/common/logger"
	"github.com/messagely/backend/internal/user/domain"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameAlreadyExists = errors.New("username already exists")
)

type Repository interface {
	Create(ctx context.Context, user domain.User) error
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	Get(ctx context.Context, username string) (domain.Public, error)
	List(ctx context.Context) ([]domain.Public, error)
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error
}

type PgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewPgRepository(pool *pgxpool.Pool, log *logger.Logger) *PgRepository {
	return &PgRepository{pool: pool, log: log}
}

// Create inserts a new user record. The unique constraint on username is
// the arbiter under concurrent registration: the loser gets
// ErrUsernameAlreadyExists.
func (r *PgRepository) Create(ctx context.Context, user domain.User) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO users (username, password_hash, first_name, last_name, phone, joined_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.JoinedAt,
		user.LastLoginAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUsernameAlreadyExists
		}
		return db.HandleExecError(err, "create user", start)
	}
	return db.HandleExecError(nil, "create user", start)
}

// FindByUsername returns the full record including the password hash; it
// exists for credential verification and must not leak past the store.
func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT username, password_hash, first_name, last_name, phone, joined_at, last_login_at
		 FROM users WHERE username = $1`,
		username,
	)

	var user domain.User
	err := row.Scan(
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.JoinedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		return domain.User{}, db.HandleQueryError(err, ErrUserNotFound, "find user by username", start)
	}

	return user, nil
}

func (r *PgRepository) Get(ctx context.Context, username string) (domain.Public, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT username, first_name, last_name, phone, joined_at, last_login_at
		 FROM users WHERE username = $1`,
		username,
	)

	var u domain.Public
	err := row.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.JoinedAt, &u.LastLoginAt)
	if err != nil {
		return domain.Public{}, db.HandleQueryError(err, ErrUserNotFound, "get user", start)
	}

	return u, nil
}

func (r *PgRepository) List(ctx context.Context) ([]domain.Public, error) {
	start := time.Now()
	rows, err := r.pool.Query(
		ctx,
		`SELECT username, first_name, last_name, phone, joined_at, last_login_at FROM users`,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, ErrUserNotFound, "list users", start)
	}
	defer rows.Close()

	var users []domain.Public
	for rows.Next() {
		var u domain.Public
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.JoinedAt, &u.LastLoginAt); err != nil {
			return nil, db.HandleQueryError(err, ErrUserNotFound, "scan user", start)
		}
		users = append(users, u)
	}

	if rows.Err() != nil {
		return nil, db.HandleQueryError(rows.Err(), ErrUserNotFound, "list users", start)
	}

	db.MeasureQueryDuration("list users", start)
	return users, nil
}

// UpdateLastLogin is tolerant of an absent user: an UPDATE matching zero
// rows is not an error, mirroring the fire-and-forget contract of the
// login timestamp update. Transient failures are retried since losing the
// update means losing only a timestamp.
func (r *PgRepository) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	return db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func() error {
		start := time.Now()
		_, err := r.pool.Exec(
			ctx,
			`UPDATE users SET last_login_at = $2 WHERE username = $1`,
			username,
			at,
		)
		return db.HandleExecError(err, "update last login", start)
	})
}
