// Package pipeline drives one review job from webhook payload to published
// review: fetch and classify the diff, build the dependency corpus, rank
// and assemble context, fan out the category reviews, validate, persist,
// and publish. Status transitions are pending -> running -> {completed,
// failed}; the status write is always the last write of a job.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vantage-review/vantage/internal/assemble"
	"github.com/vantage-review/vantage/internal/diff"
	"github.com/vantage-review/vantage/internal/githost"
	"github.com/vantage-review/vantage/internal/graph"
	"github.com/vantage-review/vantage/internal/logging"
	"github.com/vantage-review/vantage/internal/queue"
	"github.com/vantage-review/vantage/internal/review"
	"github.com/vantage-review/vantage/internal/store"
	"github.com/vantage-review/vantage/internal/structure"
	"github.com/vantage-review/vantage/internal/validate"
)

// ErrGateRejected marks a validation-gate failure; the job fails with the
// validation report as its terminal error text.
var ErrGateRejected = errors.New("comment batch rejected by validation gate")

// Orchestrator owns the review record for the duration of one job.
type Orchestrator struct {
	host        githost.Client
	store       *store.Store
	engine      *review.Engine
	ranker      *graph.Ranker
	maxDistance int
}

// New creates an orchestrator. maxDistance bounds both corpus fetching and
// graph traversal.
func New(host githost.Client, st *store.Store, engine *review.Engine, ranker *graph.Ranker, maxDistance int) *Orchestrator {
	if maxDistance <= 0 {
		maxDistance = graph.DefaultMaxDistance
	}
	return &Orchestrator{host: host, store: st, engine: engine, ranker: ranker, maxDistance: maxDistance}
}

// Process runs one job to a terminal state. Any error is first recorded
// verbatim on the review record, then returned to the queue so its retry
// policy applies.
func (o *Orchestrator) Process(ctx context.Context, job queue.Job) error {
	rec, err := o.store.CreateReview(ctx, job.PullRequestID, job.Repository, job.PRNumber, job.InstallationID)
	if err != nil {
		return fmt.Errorf("creating review record: %w", err)
	}

	if err := o.store.UpdateStatus(ctx, rec.ID, store.StartedUpdate{}); err != nil {
		return fmt.Errorf("marking review running: %w", err)
	}
	logging.Info("review started", "review", rec.ID, "repository", job.Repository, "pr", job.PRNumber)

	if err := o.run(ctx, rec.ID, job); err != nil {
		if updateErr := o.store.UpdateStatus(ctx, rec.ID, store.FailedUpdate{ErrorMessage: err.Error()}); updateErr != nil {
			logging.Error("recording failure", "review", rec.ID, "error", updateErr)
		}
		logging.Error("review failed", "review", rec.ID, "error", err)
		return err
	}
	return nil
}

// run executes everything between running and the terminal status write.
func (o *Orchestrator) run(ctx context.Context, reviewID string, job queue.Job) error {
	head, err := o.host.HeadRef(ctx, job.Repository, job.PRNumber)
	if err != nil {
		return fmt.Errorf("resolving head ref: %w", err)
	}

	files, err := o.host.ListChangedFiles(ctx, job.Repository, job.PRNumber)
	if err != nil {
		return fmt.Errorf("listing changed files: %w", err)
	}

	classification := diff.Classify(files)
	if len(classification.Reviewable) == 0 {
		logging.Info("no reviewable files", "review", reviewID, "total", classification.TotalFiles)
		return o.store.UpdateStatus(ctx, reviewID, store.CompletedUpdate{})
	}

	structures, contents := o.fetchCorpus(ctx, job.Repository, head, classification)

	selection := o.ranker.Rank(classification.Reviewable, structures)
	rc := assemble.Build(job.Repository, job.PRNumber, classification, structures, selection, contents)
	logging.Info("context assembled",
		"review", reviewID,
		"changed", len(rc.Changed),
		"context", len(rc.Context),
		"impact", rc.Impact.Level,
		"tokens", rc.TokenEstimate)

	comments, err := o.engine.Run(ctx, rc)
	if err != nil {
		return err
	}

	outcome := validate.Validate(comments, rc)
	logging.Info("comments validated", "review", reviewID, "report", outcome.Report())
	if !outcome.Accept() {
		return fmt.Errorf("%w: %d of %d comments survived", ErrGateRejected, outcome.Final, outcome.Total)
	}

	if err := o.store.InsertComments(ctx, reviewID, outcome.Accepted); err != nil {
		return fmt.Errorf("persisting comments: %w", err)
	}

	commentID, err := o.host.PostComment(ctx, job.Repository, job.PRNumber, FormatCommentBody(rc, outcome))
	if err != nil {
		return fmt.Errorf("publishing review: %w", err)
	}

	return o.store.UpdateStatus(ctx, reviewID, store.CompletedUpdate{
		CommentID:     commentID,
		TokenEstimate: rc.TokenEstimate,
		FilesAnalyzed: len(rc.Changed) + len(rc.Context),
	})
}

// fetchCorpus fetches and parses every file visible to the job: the
// analyzed changed files plus their resolved dependencies, expanding
// breadth-first up to maxDistance rounds. Files absent at the ref are
// skipped, not fatal. The resulting maps are job-local and never shared.
func (o *Orchestrator) fetchCorpus(ctx context.Context, repository, ref string, c diff.Classification) (map[string]*structure.FileStructure, map[string]string) {
	structures := make(map[string]*structure.FileStructure)
	contents := make(map[string]string)
	attempted := make(map[string]bool)

	var frontier []string
	seed := func(f diff.ChangedFile) {
		if f.Status != diff.StatusRemoved {
			frontier = append(frontier, f.Path)
		}
	}
	for _, f := range c.Reviewable {
		seed(f)
	}
	for _, f := range c.ContextOnly {
		seed(f)
	}

	for depth := 0; depth <= o.maxDistance && len(frontier) > 0; depth++ {
		var next []string
		for _, path := range frontier {
			if attempted[path] {
				continue
			}
			attempted[path] = true

			text, err := o.host.GetFileContent(ctx, repository, path, ref)
			if errors.Is(err, githost.ErrNotFound) {
				logging.Debug("file absent at ref", "path", path, "ref", ref)
				continue
			}
			if err != nil {
				logging.Warn("fetching file", "path", path, "error", err)
				continue
			}

			fs := structure.Analyze(path, text)
			structures[path] = fs
			contents[path] = text
			next = append(next, fs.Dependencies...)
		}
		frontier = next
	}

	return structures, contents
}
