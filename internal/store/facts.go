package store

import (
	"context"
	"encoding/json"
	"time"
)

// FactRow is a row in facts: an archival snippet, a fact about the human
// counterpart, a fact about the persona, or a trait.
type FactRow struct {
	ID        int64
	UserID    string
	Kind      string
	Content   string
	Embedding []float32
	CreatedAt time.Time
	Score     float64 // similarity score, transient
}

// InsertFact saves a fact. Embedding may be nil.
func (db *DB) InsertFact(ctx context.Context, userID, kind, content string, embedding []float32) (int64, error) {
	var embStr []byte
	if len(embedding) > 0 {
		embStr, _ = json.Marshal(embedding)
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO facts (user_id, kind, content, embedding) VALUES (?, ?, ?, ?)`,
		userID, kind, content, string(embStr),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FactsByKind returns facts of one kind, newest first, up to limit
// (0 = no limit). userID "" matches facts for any user.
func (db *DB) FactsByKind(ctx context.Context, userID, kind string, limit int) ([]FactRow, error) {
	q := `SELECT id, user_id, kind, content, embedding, created_at FROM facts WHERE kind = ?`
	args := []any{kind}
	if userID != "" {
		q += ` AND user_id = ?`
		args = append(args, userID)
	}
	q += ` ORDER BY created_at DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FactRow
	for rows.Next() {
		var f FactRow
		var embStr string
		if err := rows.Scan(&f.ID, &f.UserID, &f.Kind, &f.Content, &embStr, &f.CreatedAt); err != nil {
			return nil, err
		}
		if embStr != "" {
			_ = json.Unmarshal([]byte(embStr), &f.Embedding)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
