// Package store persists review records and their validated comments in
// SQLite. It is the durable audit trail of the pipeline; the job-status
// write is always the last write of a job.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vantage-review/vantage/internal/review"
)

// ErrNotFound is returned when a review id has no record.
var ErrNotFound = errors.New("review not found")

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateReview inserts a pending review record and returns it.
func (s *Store) CreateReview(ctx context.Context, pullRequestID, repository string, prNumber int, installationID int64) (*Review, error) {
	now := time.Now().UTC()
	r := &Review{
		ID:             uuid.New().String(),
		PullRequestID:  pullRequestID,
		Repository:     repository,
		PRNumber:       prNumber,
		InstallationID: installationID,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, pull_request_id, repository, pr_number, installation_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PullRequestID, r.Repository, r.PRNumber, r.InstallationID, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting review: %w", err)
	}
	return r, nil
}

// UpdateStatus applies one status transition. The update variant
// determines both the new status and the fields written with it.
func (s *Store) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	now := time.Now().UTC()

	var res sql.Result
	var err error
	switch u := update.(type) {
	case StartedUpdate:
		res, err = s.db.ExecContext(ctx,
			`UPDATE reviews SET status = ?, updated_at = ? WHERE id = ?`,
			u.status(), now, id)
	case CompletedUpdate:
		res, err = s.db.ExecContext(ctx,
			`UPDATE reviews SET status = ?, comment_id = ?, token_estimate = ?, files_analyzed = ?, updated_at = ? WHERE id = ?`,
			u.status(), u.CommentID, u.TokenEstimate, u.FilesAnalyzed, now, id)
	case FailedUpdate:
		res, err = s.db.ExecContext(ctx,
			`UPDATE reviews SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
			u.status(), u.ErrorMessage, now, id)
	default:
		return fmt.Errorf("unsupported status update %T", update)
	}
	if err != nil {
		return fmt.Errorf("updating review status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertComments persists a batch of validated comments in one transaction.
func (s *Store) InsertComments(ctx context.Context, reviewID string, comments []review.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO review_comments (review_id, file_path, line_start, line_end, severity, category, message, reasoning, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range comments {
		if _, err := stmt.ExecContext(ctx, reviewID, c.FilePath, c.LineStart, c.LineEnd, c.Severity, c.Category, c.Message, c.Reasoning, now); err != nil {
			return fmt.Errorf("inserting comment for %s: %w", c.FilePath, err)
		}
	}

	return tx.Commit()
}

// GetReview loads one review by id.
func (s *Store) GetReview(ctx context.Context, id string) (*Review, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, pull_request_id, repository, pr_number, installation_id, status,
		       error_message, comment_id, token_estimate, files_analyzed, created_at, updated_at
		FROM reviews WHERE id = ?`, id)

	var r Review
	err := row.Scan(&r.ID, &r.PullRequestID, &r.Repository, &r.PRNumber, &r.InstallationID, &r.Status,
		&r.ErrorMessage, &r.CommentID, &r.TokenEstimate, &r.FilesAnalyzed, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading review: %w", err)
	}
	return &r, nil
}

// ListComments loads the persisted comments of a review in insertion order.
func (s *Store) ListComments(ctx context.Context, reviewID string) ([]StoredComment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, review_id, file_path, line_start, line_end, severity, category, message, reasoning, created_at
		FROM review_comments WHERE review_id = ? ORDER BY id`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []StoredComment
	for rows.Next() {
		var c StoredComment
		if err := rows.Scan(&c.ID, &c.ReviewID, &c.FilePath, &c.LineStart, &c.LineEnd, &c.Severity, &c.Category, &c.Message, &c.Reasoning, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListReviews returns the most recent reviews, newest first.
func (s *Store) ListReviews(ctx context.Context, limit int) ([]Review, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pull_request_id, repository, pr_number, installation_id, status,
		       error_message, comment_id, token_estimate, files_analyzed, created_at, updated_at
		FROM reviews ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.PullRequestID, &r.Repository, &r.PRNumber, &r.InstallationID, &r.Status,
			&r.ErrorMessage, &r.CommentID, &r.TokenEstimate, &r.FilesAnalyzed, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
