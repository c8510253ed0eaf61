package githost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maypok86/otter"

	"github.com/vantage-review/vantage/internal/diff"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultTimeout   = 30 * time.Second
	contentCacheSize = 2048
)

// GitHubClient implements Client against the GitHub REST API. File contents
// are cached by ref:path; content at a commit sha is immutable, so the
// cache is safe to share across jobs.
type GitHubClient struct {
	baseURL string
	token   string
	client  *http.Client
	cache   otter.Cache[string, string]
}

// NewGitHubClient creates a client. baseURL may be empty for github.com.
func NewGitHubClient(baseURL, token string) (*GitHubClient, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cache, err := otter.MustBuilder[string, string](contentCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("building content cache: %w", err)
	}
	return &GitHubClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: defaultTimeout},
		cache:   cache,
	}, nil
}

type changedFileResponse struct {
	Filename  string `json:"filename"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Status    string `json:"status"`
}

// ListChangedFiles pages through the pull request's file list.
func (c *GitHubClient) ListChangedFiles(ctx context.Context, repository string, prNumber int) ([]diff.ChangedFile, error) {
	var files []diff.ChangedFile
	for page := 1; ; page++ {
		path := fmt.Sprintf("/repos/%s/pulls/%d/files?per_page=100&page=%d", repository, prNumber, page)

		var batch []changedFileResponse
		if err := c.getJSON(ctx, path, &batch); err != nil {
			return nil, fmt.Errorf("listing changed files: %w", err)
		}
		for _, f := range batch {
			files = append(files, diff.ChangedFile{
				Path:      f.Filename,
				Patch:     f.Patch,
				Additions: f.Additions,
				Deletions: f.Deletions,
				Status:    diff.Status(f.Status),
			})
		}
		if len(batch) < 100 {
			return files, nil
		}
	}
}

// HeadRef returns the pull request's head commit sha.
func (c *GitHubClient) HeadRef(ctx context.Context, repository string, prNumber int) (string, error) {
	var pr struct {
		Head struct {
			SHA string `json:"sha"`
		} `json:"head"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/pulls/%d", repository, prNumber), &pr); err != nil {
		return "", fmt.Errorf("fetching pull request head: %w", err)
	}
	return pr.Head.SHA, nil
}

// GetFileContent fetches file text at a ref, serving repeats from cache.
func (c *GitHubClient) GetFileContent(ctx context.Context, repository, filePath, ref string) (string, error) {
	cacheKey := repository + "@" + ref + ":" + filePath
	if content, ok := c.cache.Get(cacheKey); ok {
		return content, nil
	}

	var body struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	path := fmt.Sprintf("/repos/%s/contents/%s?ref=%s", repository, url.PathEscape(filePath), url.QueryEscape(ref))
	if err := c.getJSON(ctx, path, &body); err != nil {
		return "", err
	}

	content := body.Content
	if body.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decoding content of %s: %w", filePath, err)
		}
		content = string(decoded)
	}

	c.cache.Set(cacheKey, content)
	return content, nil
}

// PostComment publishes the review body as an issue comment.
func (c *GitHubClient) PostComment(ctx context.Context, repository string, prNumber int, body string) (int64, error) {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return 0, fmt.Errorf("marshaling comment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/repos/%s/issues/%d/comments", c.baseURL, repository, prNumber),
		strings.NewReader(string(payload)))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("posting comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("posting comment: unexpected status %d", resp.StatusCode)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, fmt.Errorf("decoding comment response: %w", err)
	}
	return created.ID, nil
}

func (c *GitHubClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling code host: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("code host returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *GitHubClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
