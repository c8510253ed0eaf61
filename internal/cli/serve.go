package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantage-review/vantage/internal/config"
	"github.com/vantage-review/vantage/internal/githost"
	"github.com/vantage-review/vantage/internal/graph"
	"github.com/vantage-review/vantage/internal/logging"
	"github.com/vantage-review/vantage/internal/pipeline"
	"github.com/vantage-review/vantage/internal/queue"
	"github.com/vantage-review/vantage/internal/reasoning"
	"github.com/vantage-review/vantage/internal/review"
	"github.com/vantage-review/vantage/internal/server"
	"github.com/vantage-review/vantage/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review service",
	Long: `Start the webhook receiver and the review worker pool.

Pull request webhooks are verified, deduplicated and queued; each job
runs the full analysis pipeline and posts its review back on the pull
request. The process drains in-flight jobs on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

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

	q := queue.New(orch.Process, cfg.QueueOptions())
	q.Start(ctx)

	srv := server.New(server.Config{
		Address:       cfg.Server.Address,
		WebhookSecret: cfg.Server.WebhookSecret,
	}, q, st)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()
	logging.Info("vantage serving", "address", cfg.Server.Address, "storage", cfg.Storage.Path)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutdown signal received, draining")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("http shutdown", "error", err)
	}
	q.Wait()
	return nil
}
