package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-review/vantage/internal/diff"
	"github.com/vantage-review/vantage/internal/githost"
	"github.com/vantage-review/vantage/internal/graph"
	"github.com/vantage-review/vantage/internal/logging"
	"github.com/vantage-review/vantage/internal/queue"
	"github.com/vantage-review/vantage/internal/reasoning"
	"github.com/vantage-review/vantage/internal/review"
	"github.com/vantage-review/vantage/internal/store"
)

func init() {
	logging.Disable()
}

// Test Plan for the orchestrator:
// - Happy path: completed status, persisted comments, published body
// - A changed file's dependency is fetched and offered as context
// - Validation-gate failure (sub-50% pass rate) fails the job with the
//   error recorded verbatim
// - A category review error fails the job after all categories settle
// - Files absent at the ref are soft-skipped, not fatal
// - A PR with no reviewable files completes without review calls

type fakeHost struct {
	mu       sync.Mutex
	head     string
	files    []diff.ChangedFile
	contents map[string]string
	posted   []string
	postErr  error
	listErr  error
}

func (f *fakeHost) ListChangedFiles(_ context.Context, _ string, _ int) ([]diff.ChangedFile, error) {
	return f.files, f.listErr
}

func (f *fakeHost) HeadRef(_ context.Context, _ string, _ int) (string, error) {
	return f.head, nil
}

func (f *fakeHost) GetFileContent(_ context.Context, _, path, _ string) (string, error) {
	if content, ok := f.contents[path]; ok {
		return content, nil
	}
	return "", githost.ErrNotFound
}

func (f *fakeHost) PostComment(_ context.Context, _ string, _ int, body string) (int64, error) {
	if f.postErr != nil {
		return 0, f.postErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, body)
	return 555, nil
}

func codeLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("const v%d = %d;", i, i)
	}
	return strings.Join(lines, "\n")
}

func newTestOrchestrator(t *testing.T, host *fakeHost, provider reasoning.Provider) (*Orchestrator, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ranker := graph.NewRanker(3, 15, 8000)
	return New(host, st, review.NewEngine(provider), ranker, 3), st
}

func lastReview(t *testing.T, st *store.Store) store.Review {
	t.Helper()
	reviews, err := st.ListReviews(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, reviews)
	return reviews[0]
}

func testJob() queue.Job {
	return queue.Job{PullRequestID: "pr-1", Repository: "acme/shop", PRNumber: 42, InstallationID: 7}
}

func TestProcess_HappyPath(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		head: "abc123",
		files: []diff.ChangedFile{
			{Path: "src/auth/login.ts", Additions: 7, Status: diff.StatusModified, Patch: "@@ -1 +1 @@"},
		},
		contents: map[string]string{
			"src/auth/login.ts":   "import { getSession } from './session';\n" + codeLines(30),
			"src/auth/session.ts": codeLines(20),
		},
	}
	provider := reasoning.NewMockProvider(map[string]string{
		"architecture":    "NO_FINDINGS",
		"security":        "src/auth/login.ts:3-5 | critical | The session id should be regenerated after login succeeds",
		"maintainability": "src/auth/login.ts:10-11 | info | This block should reuse the shared session helper",
	})

	o, st := newTestOrchestrator(t, host, provider)
	require.NoError(t, o.Process(context.Background(), testJob()))

	rec := lastReview(t, st)
	assert.Equal(t, store.StatusCompleted, rec.Status)
	assert.Equal(t, int64(555), rec.CommentID)
	assert.Equal(t, 2, rec.FilesAnalyzed) // changed file + session.ts context
	assert.Positive(t, rec.TokenEstimate)

	stored, err := st.ListComments(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	require.Len(t, host.posted, 1)
	assert.Contains(t, host.posted[0], "src/auth/login.ts:3-5")
	assert.Contains(t, host.posted[0], "Critical")

	// The dependency was offered to the reasoning service as context.
	assert.Contains(t, provider.Calls[0].UserPrompt, "src/auth/session.ts")
}

func TestProcess_GateFailure(t *testing.T) {
	t.Parallel()

	// Ten findings, seven citing a file outside the payload: 30% pass
	// rate fails the gate.
	var lines []string
	for i := 0; i < 7; i++ {
		lines = append(lines, fmt.Sprintf("src/ghost.ts:%d-%d | warning | This hallucinated reference should be rejected outright", i+1, i+1))
	}
	for i := 0; i < 3; i++ {
		lines = append(lines, fmt.Sprintf("src/app.ts:%d-%d | warning | Input number %d should be validated before use", i+1, i+1, i))
	}

	host := &fakeHost{
		head:     "abc123",
		files:    []diff.ChangedFile{{Path: "src/app.ts", Additions: 5, Status: diff.StatusModified}},
		contents: map[string]string{"src/app.ts": codeLines(40)},
	}
	provider := reasoning.NewMockProvider(map[string]string{
		"architecture":    strings.Join(lines, "\n"),
		"security":        "NO_FINDINGS",
		"maintainability": "NO_FINDINGS",
	})

	o, st := newTestOrchestrator(t, host, provider)
	err := o.Process(context.Background(), testJob())
	require.ErrorIs(t, err, ErrGateRejected)

	rec := lastReview(t, st)
	assert.Equal(t, store.StatusFailed, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "3 of 10 comments survived")
	assert.Empty(t, host.posted)
}

func TestProcess_ReviewFailure(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		head:     "abc123",
		files:    []diff.ChangedFile{{Path: "src/app.ts", Additions: 5, Status: diff.StatusModified}},
		contents: map[string]string{"src/app.ts": codeLines(10)},
	}
	provider := reasoning.NewMockProvider(map[string]string{
		"architecture":    "NO_FINDINGS",
		"maintainability": "NO_FINDINGS",
	})
	provider.ErrFor = map[string]error{"security": errors.New("reasoning service returned 503")}

	o, st := newTestOrchestrator(t, host, provider)
	err := o.Process(context.Background(), testJob())
	require.Error(t, err)

	rec := lastReview(t, st)
	assert.Equal(t, store.StatusFailed, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "reasoning service returned 503")
	assert.Equal(t, 3, provider.CallCount())
}

func TestProcess_MissingDependencySoftSkipped(t *testing.T) {
	t.Parallel()

	// login.ts imports ./session but session.ts does not exist at the
	// ref; the job still completes on the changed file alone.
	host := &fakeHost{
		head: "abc123",
		files: []diff.ChangedFile{
			{Path: "src/auth/login.ts", Additions: 7, Status: diff.StatusModified},
		},
		contents: map[string]string{
			"src/auth/login.ts": "import { getSession } from './session';\n" + codeLines(10),
		},
	}
	provider := reasoning.NewMockProvider(map[string]string{
		"architecture": "NO_FINDINGS", "security": "NO_FINDINGS", "maintainability": "NO_FINDINGS",
	})

	o, st := newTestOrchestrator(t, host, provider)
	require.NoError(t, o.Process(context.Background(), testJob()))
	assert.Equal(t, store.StatusCompleted, lastReview(t, st).Status)
}

func TestProcess_NoReviewableFiles(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		head:  "abc123",
		files: []diff.ChangedFile{{Path: "package-lock.json", Additions: 900}},
	}
	provider := reasoning.NewMockProvider(nil)

	o, st := newTestOrchestrator(t, host, provider)
	require.NoError(t, o.Process(context.Background(), testJob()))

	rec := lastReview(t, st)
	assert.Equal(t, store.StatusCompleted, rec.Status)
	assert.Zero(t, rec.FilesAnalyzed)
	assert.Zero(t, provider.CallCount())
}

func TestProcess_PublishFailure(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		head:     "abc123",
		files:    []diff.ChangedFile{{Path: "src/app.ts", Additions: 5, Status: diff.StatusModified}},
		contents: map[string]string{"src/app.ts": codeLines(10)},
		postErr:  errors.New("comment API unavailable"),
	}
	provider := reasoning.NewMockProvider(map[string]string{
		"architecture": "NO_FINDINGS", "security": "NO_FINDINGS", "maintainability": "NO_FINDINGS",
	})

	o, st := newTestOrchestrator(t, host, provider)
	err := o.Process(context.Background(), testJob())
	require.Error(t, err)

	rec := lastReview(t, st)
	assert.Equal(t, store.StatusFailed, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "comment API unavailable")
}
