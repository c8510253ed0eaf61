package pipeline

import (
	"fmt"
	"strings"

	"github.com/vantage-review/vantage/internal/assemble"
	"github.com/vantage-review/vantage/internal/review"
	"github.com/vantage-review/vantage/internal/validate"
)

var severityOrder = []review.Severity{
	review.SeverityCritical,
	review.SeverityWarning,
	review.SeverityInfo,
}

var severityHeadings = map[review.Severity]string{
	review.SeverityCritical: "Critical",
	review.SeverityWarning:  "Warnings",
	review.SeverityInfo:     "Notes",
}

// FormatCommentBody renders the accepted comments as the markdown body
// posted on the pull request.
func FormatCommentBody(rc *assemble.ReviewContext, outcome validate.Outcome) string {
	var b strings.Builder

	b.WriteString("## Automated Review\n\n")
	fmt.Fprintf(&b, "Impact: **%s** · %d changed files analyzed · %d context files\n\n",
		rc.Impact.Level, len(rc.Changed), len(rc.Context))

	if len(outcome.Accepted) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	bySeverity := make(map[review.Severity][]review.Comment)
	for _, c := range outcome.Accepted {
		bySeverity[c.Severity] = append(bySeverity[c.Severity], c)
	}

	for _, sev := range severityOrder {
		comments := bySeverity[sev]
		if len(comments) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", severityHeadings[sev])
		for _, c := range comments {
			fmt.Fprintf(&b, "- `%s:%d-%d` (%s): %s\n", c.FilePath, c.LineStart, c.LineEnd, c.Category, c.Message)
		}
		b.WriteString("\n")
	}

	if rejected := outcome.Total - outcome.Final; rejected > 0 {
		fmt.Fprintf(&b, "_%d low-confidence findings were filtered out._\n", rejected)
	}

	return b.String()
}
