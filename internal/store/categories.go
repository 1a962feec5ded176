package store

import (
	"context"
	"database/sql"
)

// CategoryPrompt is a row in category_prompts.
type CategoryPrompt struct {
	CategoryID  string
	Enabled     bool
	DisplayName string
	PromptText  string
}

// CategoryPromptByID returns the prompt config for a category, or nil when
// none is configured.
func (db *DB) CategoryPromptByID(ctx context.Context, categoryID string) (*CategoryPrompt, error) {
	var c CategoryPrompt
	var enabled int
	var display, text sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT category_id, enabled, display_name, prompt_text FROM category_prompts WHERE category_id = ?`,
		categoryID,
	).Scan(&c.CategoryID, &enabled, &display, &text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Enabled = enabled != 0
	c.DisplayName = display.String
	c.PromptText = text.String
	return &c, nil
}

// UpsertCategoryPrompt creates or replaces a category prompt config.
func (db *DB) UpsertCategoryPrompt(ctx context.Context, c CategoryPrompt) error {
	enabled := 0
	if c.Enabled {
		enabled = 1
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO category_prompts (category_id, enabled, display_name, prompt_text) VALUES (?, ?, ?, ?)
		 ON CONFLICT(category_id) DO UPDATE SET enabled=excluded.enabled, display_name=excluded.display_name, prompt_text=excluded.prompt_text`,
		c.CategoryID, enabled, c.DisplayName, c.PromptText,
	)
	return err
}

// GetOrCreateUser resolves a user row, creating it on first contact.
func (db *DB) GetOrCreateUser(ctx context.Context, id, name string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET last_seen=CURRENT_TIMESTAMP`,
		id, name,
	)
	return err
}
