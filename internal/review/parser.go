package review

import (
	"regexp"
	"strconv"
	"strings"
)

// findingLineRe is the fixed line grammar of reasoning-service replies:
//
//	FILE:LINE_START-LINE_END | SEVERITY | MESSAGE
//
// with an optional trailing "| REASONING" segment. Lines not matching the
// grammar are silently dropped.
var findingLineRe = regexp.MustCompile(`(?i)^\s*(\S+?):(\d+)-(\d+)\s*\|\s*(info|warning|critical)\s*\|\s*([^|]+?)(?:\s*\|\s*(.+?))?\s*$`)

// ParseFindings parses a reply into comments for one category. A reply
// with no matching lines yields no comments, never an error.
func ParseFindings(content string, category Category) []Comment {
	var comments []Comment

	for _, line := range strings.Split(content, "\n") {
		m := findingLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		start, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		end, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}

		comments = append(comments, Comment{
			FilePath:  m[1],
			LineStart: start,
			LineEnd:   end,
			Severity:  Severity(strings.ToLower(m[4])),
			Message:   strings.TrimSpace(m[5]),
			Reasoning: strings.TrimSpace(m[6]),
			Category:  category,
		})
	}

	return comments
}
