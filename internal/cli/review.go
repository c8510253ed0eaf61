package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vantage-review/vantage/internal/config"
	"github.com/vantage-review/vantage/internal/githost"
	"github.com/vantage-review/vantage/internal/graph"
	"github.com/vantage-review/vantage/internal/logging"
	"github.com/vantage-review/vantage/internal/pipeline"
	"github.com/vantage-review/vantage/internal/queue"
	"github.com/vantage-review/vantage/internal/reasoning"
	"github.com/vantage-review/vantage/internal/review"
	"github.com/vantage-review/vantage/internal/store"
)

// reviewCmd runs a single review synchronously, bypassing the queue.
// Useful for trying the pipeline against a real pull request.
var reviewCmd = &cobra.Command{
	Use:   "review <owner/repo> <pr-number>",
	Short: "Review one pull request and exit",
	Args:  cobra.ExactArgs(2),
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	repository := args[0]
	prNumber, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid pull request number %q", args[1])
	}

	cfg, err := config.LoadFromDir(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logging.Init(os.Stderr, cfg.Logging.Level)

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	host, err := githost.NewGitHubClient(cfg.GitHub.BaseURL, cfg.GitHub.Token)
	if err != nil {
		return fmt.Errorf("creating github client: %w", err)
	}

	provider := reasoning.NewHTTPProvider(cfg.Reasoning.Endpoint, cfg.Reasoning.APIKey, cfg.Reasoning.Model)
	engine := review.NewEngine(provider)
	ranker := graph.NewRanker(cfg.Analysis.MaxDistance, cfg.Analysis.MaxContextFiles, cfg.Analysis.MaxTokens)
	orch := pipeline.New(host, st, engine, ranker, cfg.Analysis.MaxDistance)

	job := queue.Job{
		PullRequestID: uuid.NewString(),
		Repository:    repository,
		PRNumber:      prNumber,
	}
	if err := orch.Process(cmd.Context(), job); err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	fmt.Printf("Review for %s #%d completed\n", repository, prNumber)
	return nil
}
