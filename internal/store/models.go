package store

import "time"

// Status is the lifecycle state of a review record.
// Transitions: pending -> running -> {completed, failed}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Review is the persisted record of one review job.
type Review struct {
	ID             string    `json:"id"`
	PullRequestID  string    `json:"pullRequestId"`
	Repository     string    `json:"repository"`
	PRNumber       int       `json:"prNumber"`
	InstallationID int64     `json:"installationId"`
	Status         Status    `json:"status"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	CommentID      int64     `json:"commentId,omitempty"`
	TokenEstimate  int       `json:"tokenEstimate"`
	FilesAnalyzed  int       `json:"filesAnalyzed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StoredComment is one persisted, validated review comment.
type StoredComment struct {
	ID        int64     `json:"id"`
	ReviewID  string    `json:"reviewId"`
	FilePath  string    `json:"filePath"`
	LineStart int       `json:"lineStart"`
	LineEnd   int       `json:"lineEnd"`
	Severity  string    `json:"severity"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Reasoning string    `json:"reasoning,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// StatusUpdate is a tagged union of review status transitions, so each
// terminal state carries exactly the fields it needs.
type StatusUpdate interface {
	status() Status
}

// StartedUpdate moves a review from pending to running.
type StartedUpdate struct{}

// CompletedUpdate records a successful run and its result metadata.
type CompletedUpdate struct {
	CommentID     int64
	TokenEstimate int
	FilesAnalyzed int
}

// FailedUpdate records the terminal error text verbatim.
type FailedUpdate struct {
	ErrorMessage string
}

func (StartedUpdate) status() Status   { return StatusRunning }
func (CompletedUpdate) status() Status { return StatusCompleted }
func (FailedUpdate) status() Status    { return StatusFailed }
