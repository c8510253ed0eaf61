// Package githost is the code-hosting collaborator: it fetches a pull
// request's changed files and file contents, posts the formatted review
// comment, and verifies webhook signatures at the boundary.
package githost

import (
	"context"
	"errors"

	"github.com/vantage-review/vantage/internal/diff"
)

// ErrNotFound marks a file absent at the requested ref. Callers treat it
// as soft: log, skip the file, continue.
var ErrNotFound = errors.New("file not found")

// Client abstracts the code host.
type Client interface {
	// ListChangedFiles returns the changed-file list of a pull request,
	// with unified-diff patches where the host provides them.
	ListChangedFiles(ctx context.Context, repository string, prNumber int) ([]diff.ChangedFile, error)

	// HeadRef returns the head commit sha of a pull request.
	HeadRef(ctx context.Context, repository string, prNumber int) (string, error)

	// GetFileContent fetches the full text of a file at a ref. Returns
	// ErrNotFound if the path does not exist at that ref.
	GetFileContent(ctx context.Context, repository, path, ref string) (string, error)

	// PostComment publishes a formatted review body on the pull request
	// and returns the created comment id.
	PostComment(ctx context.Context, repository string, prNumber int, body string) (int64, error)
}
