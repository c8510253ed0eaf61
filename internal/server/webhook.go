package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/vantage-review/vantage/internal/githost"
	"github.com/vantage-review/vantage/internal/logging"
	"github.com/vantage-review/vantage/internal/queue"
)

// Bodies larger than this are rejected before signature verification.
const maxWebhookBody = 1 << 20

// reviewableActions are the pull request actions that trigger a review.
var reviewableActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

type webhookPayload struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest struct {
		ID   int64 `json:"id"`
		Head struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Installation struct {
		ID int64 `json:"id"`
	} `json:"installation"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}
	if len(body) > maxWebhookBody {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	if !githost.VerifySignature([]byte(s.cfg.WebhookSecret), body, r.Header.Get("X-Hub-Signature-256")) {
		logging.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	if event := r.Header.Get("X-GitHub-Event"); event != "pull_request" {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ignored event"))
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	if !reviewableActions[payload.Action] {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ignored action"))
		return
	}
	if payload.Repository.FullName == "" || payload.Number == 0 {
		http.Error(w, "missing repository or pull request number", http.StatusBadRequest)
		return
	}

	job := queue.Job{
		PullRequestID:  strconv.FormatInt(payload.PullRequest.ID, 10),
		Repository:     payload.Repository.FullName,
		PRNumber:       payload.Number,
		InstallationID: payload.Installation.ID,
	}

	switch err := s.queue.Enqueue(job); {
	case errors.Is(err, queue.ErrDuplicateJob):
		// Already in flight for this PR; the webhook retry is harmless.
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("review already queued"))
	case errors.Is(err, queue.ErrQueueFull):
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	case err != nil:
		logging.Error("enqueueing review", "repository", job.Repository, "pr", job.PRNumber, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		logging.Info("review queued", "repository", job.Repository, "pr", job.PRNumber, "action", payload.Action)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("review queued"))
	}
}
