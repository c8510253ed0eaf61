package store

import (
	"database/sql"
	"fmt"
)

const createReviewsTable = `
CREATE TABLE IF NOT EXISTS reviews (
	id              TEXT PRIMARY KEY,
	pull_request_id TEXT NOT NULL,
	repository      TEXT NOT NULL,
	pr_number       INTEGER NOT NULL,
	installation_id INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'pending',
	error_message   TEXT NOT NULL DEFAULT '',
	comment_id      INTEGER NOT NULL DEFAULT 0,
	token_estimate  INTEGER NOT NULL DEFAULT 0,
	files_analyzed  INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
)`

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS review_comments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	review_id  TEXT NOT NULL REFERENCES reviews(id),
	file_path  TEXT NOT NULL,
	line_start INTEGER NOT NULL,
	line_end   INTEGER NOT NULL,
	severity   TEXT NOT NULL,
	category   TEXT NOT NULL,
	message    TEXT NOT NULL,
	reasoning  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_reviews_repo_pr ON reviews(repository, pr_number)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_status ON reviews(status)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_review ON review_comments(review_id)`,
}

// createSchema creates all tables and indexes in one transaction.
func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}

	for _, ddl := range []string{createReviewsTable, createCommentsTable} {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}

	return tx.Commit()
}
