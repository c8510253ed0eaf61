package review

import (
	"fmt"
	"strings"

	"github.com/vantage-review/vantage/internal/assemble"
)

// systemPrompts frame each category's perspective.
var systemPrompts = map[Category]string{
	CategoryArchitecture: "You are a senior software architect reviewing a pull request. " +
		"Focus on module boundaries, dependency direction, coupling, and API design.",
	CategorySecurity: "You are a security engineer reviewing a pull request. " +
		"Focus on authentication, authorization, input validation, injection, and secret handling.",
	CategoryMaintainability: "You are an experienced maintainer reviewing a pull request. " +
		"Focus on readability, naming, duplication, error handling, and test coverage.",
}

// SystemPrompt returns the system prompt for a category.
func SystemPrompt(category Category) string {
	return systemPrompts[category]
}

// BuildUserPrompt renders the assembled payload into the prompt for one
// category. Only changed files may be the subject of findings; context
// files are background.
func BuildUserPrompt(rc *assemble.ReviewContext, category Category) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Review pull request #%d of %s for %s issues.\n\n", rc.PRNumber, rc.Repository, category)
	fmt.Fprintf(&b, "Overall impact: %s (score %d).\n\n", rc.Impact.Level, rc.Impact.Score)

	b.WriteString("## Changed files\n\n")
	for _, cf := range rc.Changed {
		fmt.Fprintf(&b, "### %s (%s, +%d/-%d, complexity %s",
			cf.File.Path, cf.File.Status, cf.File.Additions, cf.File.Deletions, cf.Complexity)
		if cf.IsCritical {
			b.WriteString(", CRITICAL PATH")
		}
		b.WriteString(")\n")
		if len(cf.Imports) > 0 {
			fmt.Fprintf(&b, "Imports: %s\n", strings.Join(cf.Imports, ", "))
		}
		if len(cf.Exports) > 0 {
			fmt.Fprintf(&b, "Exports: %s\n", strings.Join(cf.Exports, ", "))
		}
		if cf.File.Patch != "" {
			fmt.Fprintf(&b, "\nDiff:\n```\n%s\n```\n", cf.File.Patch)
		}
		if cf.Content != "" {
			fmt.Fprintf(&b, "\nFull content:\n```\n%s\n```\n", cf.Content)
		}
		b.WriteString("\n")
	}

	if len(rc.Context) > 0 {
		b.WriteString("## Related files (context only, do not comment on these)\n\n")
		for _, ctx := range rc.Context {
			fmt.Fprintf(&b, "### %s (%s)\n```\n%s\n```\n\n", ctx.Path, ctx.Reason, ctx.Content)
		}
	}

	b.WriteString("Report each finding on its own line, exactly in this format:\n")
	b.WriteString("FILE:LINE_START-LINE_END | SEVERITY | MESSAGE\n")
	b.WriteString("SEVERITY is one of info, warning, critical. ")
	b.WriteString("Cite only changed files and line numbers that exist. ")
	b.WriteString("If the change looks good, reply with NO_FINDINGS.\n")

	return b.String()
}
