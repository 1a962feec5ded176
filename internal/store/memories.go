package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// MemoryRow is a row in memories.
type MemoryRow struct {
	ID        string
	UserID    string
	Content   string
	Kind      string
	Tags      []string
	Embedding []float32
	CreatedAt time.Time
	Score     float64 // similarity score, transient
}

// InsertMemory saves a memory row. Embedding may be nil.
func (db *DB) InsertMemory(ctx context.Context, id, userID, content, kind string, tags []string, embedding []float32) error {
	var tagStr string
	if len(tags) > 0 {
		tagStr = strings.Join(tags, ",")
	}
	var embStr []byte
	if len(embedding) > 0 {
		embStr, _ = json.Marshal(embedding)
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO memories (id, user_id, content, kind, tags, embedding) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, content, kind, tagStr, string(embStr),
	)
	return err
}

// MemoriesForUser returns the user's memories, newest first, up to limit
// (0 = no limit).
func (db *DB) MemoriesForUser(ctx context.Context, userID string, limit int) ([]MemoryRow, error) {
	q := `SELECT id, user_id, content, kind, tags, embedding, created_at FROM memories
	      WHERE user_id = ? ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemoryRows(rows)
}

// AllMemoriesForUser returns every memory row for the user; ranking callers
// skip rows without embeddings. Fetches all rows; fine below ~10k entries.
func (db *DB) AllMemoriesForUser(ctx context.Context, userID string) ([]MemoryRow, error) {
	return db.MemoriesForUser(ctx, userID, 0)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMemoryRows(rows rowScanner) ([]MemoryRow, error) {
	var out []MemoryRow
	for rows.Next() {
		var m MemoryRow
		var tagStr, embStr string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &m.Kind, &tagStr, &embStr, &m.CreatedAt); err != nil {
			return nil, err
		}
		if tagStr != "" {
			m.Tags = strings.Split(tagStr, ",")
		}
		if embStr != "" {
			_ = json.Unmarshal([]byte(embStr), &m.Embedding)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
