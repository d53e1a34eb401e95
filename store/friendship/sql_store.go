package friendship

import (
	"context"
	"database/sql"
)

// SQLStore implements Store using a database/sql connection.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetBetween(ctx context.Context, userA, userB int64) (*Friendship, error) {
	query := `
		SELECT id, requester_id, receiver_id, status, created_at
		FROM friendships
		WHERE (requester_id = $1 AND receiver_id = $2)
			OR (requester_id = $2 AND receiver_id = $1)
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, userA, userB)

	var f Friendship
	if err := row.Scan(&f.ID, &f.RequesterID, &f.ReceiverID, &f.Status, &f.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFriendshipNotFound
		}
		return nil, err
	}

	return &f, nil
}

func (s *SQLStore) ListFriends(ctx context.Context, userID int64) ([]Friend, error) {
	query := `
		SELECT u.id, u.name, u.avatar_url
		FROM friendships f
		JOIN users u ON u.id = CASE
			WHEN f.requester_id = $1 THEN f.receiver_id
			ELSE f.requester_id
		END
		WHERE (f.requester_id = $1 OR f.receiver_id = $1)
			AND f.status = 'accepted'
		ORDER BY u.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var friends []Friend
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.UserID, &f.Name, &f.AvatarURL); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}

	return friends, rows.Err()
}
