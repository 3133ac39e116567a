package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/messagely/backend/internal/common/db"
	"github.com/messagely/backend/internal/message/domain"
)

// Repository is the read-only message directory query. It never creates
// or mutates messages; authorization happens upstream in the route
// guards, not here.
type Repository interface {
	MessagesFrom(ctx context.Context, username string) ([]domain.MessageWithCounterpart, error)
	MessagesTo(ctx context.Context, username string) ([]domain.MessageWithCounterpart, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// MessagesFrom lists messages sent by username, each joined to the
// recipient's display attributes.
func (r *PgRepository) MessagesFrom(ctx context.Context, username string) ([]domain.MessageWithCounterpart, error) {
	const query = `SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON m.to_username = u.username
		WHERE m.from_username = $1`

	return r.queryMessages(ctx, "list messages from user", query, username)
}

// MessagesTo lists messages received by username, each joined to the
// sender's display attributes.
func (r *PgRepository) MessagesTo(ctx context.Context, username string) ([]domain.MessageWithCounterpart, error) {
	const query = `SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON m.from_username = u.username
		WHERE m.to_username = $1`

	return r.queryMessages(ctx, "list messages to user", query, username)
}

func (r *PgRepository) queryMessages(ctx context.Context, operation, query, username string) ([]domain.MessageWithCounterpart, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, operation, start)
	}
	defer rows.Close()

	var messages []domain.MessageWithCounterpart
	for rows.Next() {
		var m domain.MessageWithCounterpart
		err := rows.Scan(
			&m.ID,
			&m.Body,
			&m.SentAt,
			&m.ReadAt,
			&m.Counterpart.Username,
			&m.Counterpart.FirstName,
			&m.Counterpart.LastName,
			&m.Counterpart.Phone,
		)
		if err != nil {
			return nil, db.HandleQueryError(err, nil, operation, start)
		}
		messages = append(messages, m)
	}

	if rows.Err() != nil {
		return nil, db.HandleQueryError(rows.Err(), nil, operation, start)
	}

	db.MeasureQueryDuration(operation, start)
	return messages, nil
}
