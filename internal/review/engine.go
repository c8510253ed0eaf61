package review

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vantage-review/vantage/internal/assemble"
	"github.com/vantage-review/vantage/internal/logging"
	"github.com/vantage-review/vantage/internal/reasoning"
)

const defaultMaxTokens = 4096

// Engine fans one assembled payload out to the three category reviews and
// merges the parsed comments.
type Engine struct {
	provider reasoning.Provider
}

// NewEngine creates a review engine over the given provider.
func NewEngine(provider reasoning.Provider) *Engine {
	return &Engine{provider: provider}
}

// Run executes all category reviews concurrently and blocks until every
// one has settled. A failed category does not cancel its siblings; errors
// are joined after the barrier, so a failure surfaces only once all three
// calls finish. Merged comments keep category fan-out order.
func (e *Engine) Run(ctx context.Context, rc *assemble.ReviewContext) ([]Comment, error) {
	results := make([][]Comment, len(Categories))
	errs := make([]error, len(Categories))

	// Plain errgroup, not WithContext: the group context would cancel
	// siblings on first error, and the fan-in policy is wait-for-all.
	var g errgroup.Group
	for i, category := range Categories {
		i, category := i, category
		g.Go(func() error {
			comments, err := e.reviewCategory(ctx, rc, category)
			if err != nil {
				errs[i] = fmt.Errorf("%s review: %w", category, err)
				return nil
			}
			results[i] = comments
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var merged []Comment
	for _, comments := range results {
		merged = append(merged, comments...)
	}
	return merged, nil
}

func (e *Engine) reviewCategory(ctx context.Context, rc *assemble.ReviewContext, category Category) ([]Comment, error) {
	resp, err := e.provider.Review(ctx, reasoning.Request{
		Category:     string(category),
		SystemPrompt: SystemPrompt(category),
		UserPrompt:   BuildUserPrompt(rc, category),
		MaxTokens:    defaultMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	comments := ParseFindings(resp.Content, category)
	logging.Debug("category review finished",
		"category", category,
		"provider", e.provider.Name(),
		"comments", len(comments))
	return comments, nil
}
