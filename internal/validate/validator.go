// Package validate checks reasoning-service comments against the assembled
// payload, rejecting fabricated file or line references and low-signal
// text, then deduplicates what remains and applies the batch acceptance
// gate.
package validate

import (
	"fmt"
	"strings"

	"github.com/vantage-review/vantage/internal/assemble"
	"github.com/vantage-review/vantage/internal/review"
)

// Validation limits.
const (
	// maxRangeLines rejects ranges too coarse to be actionable.
	maxRangeLines = 100
	// minMessageLength rejects trivially short messages.
	minMessageLength = 20
	// boilerplateMaxLength is the length under which a boilerplate phrase
	// match rejects the comment.
	boilerplateMaxLength = 100
	// minPassRate is the accepted fraction below which the whole batch is
	// rejected.
	minPassRate = 0.5
	// dedupeBucket groups line starts into buckets of this size.
	dedupeBucket = 10
	// dedupePrefixLength is how much of the message participates in the
	// duplicate key.
	dedupePrefixLength = 50
)

// boilerplatePhrases are generic review phrases that carry no signal on
// their own.
var boilerplatePhrases = []string{
	"consider refactoring",
	"looks good",
	"this could be improved",
	"might want to review this",
	"code quality could be better",
	"consider best practices",
	"needs improvement",
}

// actionableVerbs must appear (any one of them) for a message to count as
// actionable.
var actionableVerbs = []string{
	"should", "must", "need", "avoid", "add", "remove", "replace",
	"fix", "change", "use", "consider", "ensure", "validate", "check",
	"implement", "extract", "rename", "missing", "incorrect", "vulnerable",
	"leak", "unsafe", "deprecated",
}

// Rejection pairs a rejected comment with its reason.
type Rejection struct {
	Comment review.Comment `json:"comment"`
	Reason  string         `json:"reason"`
}

// Outcome partitions a comment batch. Counts are per stage: a comment
// rejected for an invalid reference is never considered by later stages.
type Outcome struct {
	Accepted []review.Comment `json:"accepted"`
	Rejected []Rejection      `json:"rejected"`

	Total            int `json:"total"`
	InvalidReference int `json:"invalidReference"`
	LowQuality       int `json:"lowQuality"`
	Duplicates       int `json:"duplicates"`
	Final            int `json:"final"`
}

// Validate classifies every comment against the payload the reasoning
// service was shown, in input order.
func Validate(comments []review.Comment, rc *assemble.ReviewContext) Outcome {
	outcome := Outcome{Total: len(comments)}
	seen := make(map[string]bool)

	for _, c := range comments {
		if reason, ok := checkReference(c, rc); !ok {
			outcome.InvalidReference++
			outcome.Rejected = append(outcome.Rejected, Rejection{Comment: c, Reason: reason})
			continue
		}
		if reason, ok := checkQuality(c); !ok {
			outcome.LowQuality++
			outcome.Rejected = append(outcome.Rejected, Rejection{Comment: c, Reason: reason})
			continue
		}

		key := dedupeKey(c)
		if seen[key] {
			outcome.Duplicates++
			outcome.Rejected = append(outcome.Rejected, Rejection{Comment: c, Reason: "duplicate of an earlier comment"})
			continue
		}
		seen[key] = true
		outcome.Accepted = append(outcome.Accepted, c)
	}

	outcome.Final = len(outcome.Accepted)
	return outcome
}

// checkReference verifies the cited file and line range exist in the
// payload and that the range points at something real.
func checkReference(c review.Comment, rc *assemble.ReviewContext) (string, bool) {
	lines, ok := rc.Lines(c.FilePath)
	if !ok {
		return fmt.Sprintf("file %s is not part of the review context", c.FilePath), false
	}
	total := len(lines)

	if c.LineStart < 1 || c.LineStart > total {
		return fmt.Sprintf("line %d is outside %s (1-%d)", c.LineStart, c.FilePath, total), false
	}
	if c.LineEnd < c.LineStart || c.LineEnd > total {
		return fmt.Sprintf("line range %d-%d is invalid for %s (1-%d)", c.LineStart, c.LineEnd, c.FilePath, total), false
	}
	if c.LineEnd-c.LineStart+1 > maxRangeLines {
		return fmt.Sprintf("range %d-%d spans more than %d lines", c.LineStart, c.LineEnd, maxRangeLines), false
	}

	allBlank := true
	for i := c.LineStart - 1; i < c.LineEnd; i++ {
		if strings.TrimSpace(lines[i]) != "" {
			allBlank = false
			break
		}
	}
	if allBlank {
		return fmt.Sprintf("lines %d-%d of %s are all blank", c.LineStart, c.LineEnd, c.FilePath), false
	}

	return "", true
}

// checkQuality applies the low-signal filters to a range-valid comment.
func checkQuality(c review.Comment) (string, bool) {
	msg := strings.TrimSpace(c.Message)

	if len(msg) < minMessageLength {
		return fmt.Sprintf("message is too short (%d chars)", len(msg)), false
	}

	lower := strings.ToLower(msg)
	if len(msg) < boilerplateMaxLength {
		for _, phrase := range boilerplatePhrases {
			if strings.Contains(lower, phrase) {
				return fmt.Sprintf("generic boilerplate: %q", phrase), false
			}
		}
	}

	for _, verb := range actionableVerbs {
		if strings.Contains(lower, verb) {
			return "", true
		}
	}
	return "message contains no actionable guidance", false
}

// dedupeKey collides comments that share a file, a 10-line bucket, and the
// lowercased first 50 characters of the message. First occurrence wins.
func dedupeKey(c review.Comment) string {
	prefix := strings.ToLower(c.Message)
	if len(prefix) > dedupePrefixLength {
		prefix = prefix[:dedupePrefixLength]
	}
	bucket := (c.LineStart / dedupeBucket) * dedupeBucket
	return fmt.Sprintf("%s:%d:%s", c.FilePath, bucket, prefix)
}

// Accept applies the batch gate: an empty batch is a valid clean-code
// outcome; a batch where everything was rejected, or where fewer than half
// the comments survived, rejects the whole run.
func (o Outcome) Accept() bool {
	if o.Total == 0 {
		return true
	}
	if o.Final == 0 {
		return false
	}
	return float64(o.Final)/float64(o.Total) >= minPassRate
}

// Report renders a human-readable validation summary.
func (o Outcome) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation: %d total, %d accepted", o.Total, o.Final)
	fmt.Fprintf(&b, " (%d invalid references, %d low quality, %d duplicates)",
		o.InvalidReference, o.LowQuality, o.Duplicates)
	if !o.Accept() {
		b.WriteString(" - batch rejected")
	}
	for _, r := range o.Rejected {
		fmt.Fprintf(&b, "\n  rejected %s:%d-%d: %s", r.Comment.FilePath, r.Comment.LineStart, r.Comment.LineEnd, r.Reason)
	}
	return b.String()
}
