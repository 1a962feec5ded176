package store

import (
	"context"
	"time"
)

// StoredMessage is a row in messages: one short-term-history turn.
type StoredMessage struct {
	ID        int64
	Role      string
	Content   string
	AuthorID  string
	ChannelID string
	CreatedAt time.Time
}

// InsertMessage appends one turn to short-term history and returns its id.
func (db *DB) InsertMessage(ctx context.Context, role, content, authorID, channelID string) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO messages (role, content, author_id, channel_id) VALUES (?, ?, ?, ?)`,
		role, content, authorID, channelID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentMessages returns the most recent limit messages in chronological order.
func (db *DB) RecentMessages(ctx context.Context, limit int) ([]StoredMessage, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, role, content, author_id, channel_id, created_at FROM messages
		 ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.AuthorID, &m.ChannelID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountMessages returns the total number of stored turns.
func (db *DB) CountMessages(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n)
	return n, err
}
