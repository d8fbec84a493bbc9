package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dialoghub/internal/models"
)

// SQLStore persists users, tokens and messages through database/sql.
// Queries use "?" placeholders, understood by both sqlite3 and mysql.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an opened and migrated database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CreateUser(ctx context.Context, name string) (*models.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return &models.User{ID: id, Name: name}, nil
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func (s *SQLStore) SaveToken(ctx context.Context, token string, userID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO user_tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		token, userID, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *SQLStore) LookupToken(ctx context.Context, token string) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM user_tokens WHERE token = ?`, token,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	return userID, nil
}

func (s *SQLStore) AppendMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (sender_id, recipient_id, text, reply_to, ts, request_id) VALUES (?, ?, ?, ?, ?, ?)`,
		nullInt64(msg.From), msg.To, msg.Text, nullInt64(msg.ReplyTo), msg.Timestamp.Time(), msg.RequestID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	stored := *msg
	stored.ID = id
	return &stored, nil
}

const selectMessages = `SELECT id, sender_id, recipient_id, text, reply_to, ts, request_id FROM messages`

func (s *SQLStore) DialogMessages(ctx context.Context, me *int64, other int64) ([]*models.Message, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if me == nil {
		rows, err = s.db.QueryContext(ctx,
			selectMessages+` WHERE sender_id IS NULL AND recipient_id = ? ORDER BY id ASC`, other)
	} else {
		rows, err = s.db.QueryContext(ctx,
			selectMessages+` WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?) ORDER BY id ASC`,
			*me, other, other, *me)
	}
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*models.Message, error) {
	defer rows.Close()

	list := make([]*models.Message, 0)
	for rows.Next() {
		var (
			msg     models.Message
			from    sql.NullInt64
			replyTo sql.NullInt64
			ts      time.Time
		)
		if err := rows.Scan(&msg.ID, &from, &msg.To, &msg.Text, &replyTo, &ts, &msg.RequestID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.From = int64Ptr(from)
		msg.ReplyTo = int64Ptr(replyTo)
		msg.Timestamp = models.Timestamp(ts.UTC())
		list = append(list, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return list, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}
