package message

import (
	"context"
	"database/sql"
	"time"
)

// SQLStore implements Store using a database/sql connection.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, senderID, receiverID int64, content string) (*Message, error) {
	query := `
		INSERT INTO messages (content, sender_id, receiver_id, created_at, read)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, created_at
	`

	msg := &Message{
		Content:    content,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Read:       false,
	}

	now := time.Now()
	if err := s.db.QueryRowContext(ctx, query, content, senderID, receiverID, now).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, err
	}

	return msg, nil
}

func (s *SQLStore) GetBetween(ctx context.Context, userA, userB int64) ([]Message, error) {
	query := `
		SELECT id, content, sender_id, receiver_id, created_at, read
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
			OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userA, userB)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Content, &m.SenderID, &m.ReceiverID, &m.CreatedAt, &m.Read); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (s *SQLStore) MarkRead(ctx context.Context, receiverID, senderID int64) (int64, error) {
	query := `
		UPDATE messages
		SET read = true
		WHERE receiver_id = $1 AND sender_id = $2 AND read = false
	`

	res, err := s.db.ExecContext(ctx, query, receiverID, senderID)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (s *SQLStore) CountUnread(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE receiver_id = $1 AND read = false
	`

	var count int64
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
