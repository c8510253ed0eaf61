// Package diff classifies the changed files of a pull request into
// reviewable, context-only, and ignored partitions, and derives per-file
// change complexity and criticality flags. All functions are pure.
package diff

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Status represents the change status of a file in a pull request.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusRemoved  Status = "removed"
	StatusRenamed  Status = "renamed"
)

// ChangedFile is one entry of a pull request's changed-file list.
// Immutable once fetched; produced once per job.
type ChangedFile struct {
	Path      string `json:"path"`
	Patch     string `json:"patch,omitempty"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Status    Status `json:"status"`
}

// Complexity buckets a file's change size.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Complexity thresholds by total changed lines (additions + deletions).
const (
	mediumThreshold = 20
	highThreshold   = 100
)

// Classification partitions a changed-file list. Ignored files are never
// analyzed; context-only files are analyzed but never the subject of
// findings.
type Classification struct {
	Reviewable  []ChangedFile
	ContextOnly []ChangedFile
	Ignored     []ChangedFile

	TotalFiles     int
	TotalAdditions int
	TotalDeletions int
}

// pathMatcher matches a repo-relative path against base-name globs and
// directory-segment names.
type pathMatcher struct {
	names []glob.Glob
	dirs  map[string]bool
}

func newPathMatcher(namePatterns, dirNames []string) *pathMatcher {
	m := &pathMatcher{dirs: make(map[string]bool, len(dirNames))}
	for _, p := range namePatterns {
		m.names = append(m.names, glob.MustCompile(p))
	}
	for _, d := range dirNames {
		m.dirs[d] = true
	}
	return m
}

// Match checks the file's base name against the name globs and every
// directory segment against the directory set.
func (m *pathMatcher) Match(filePath string) bool {
	base := path.Base(filePath)
	for _, g := range m.names {
		if g.Match(base) {
			return true
		}
	}
	for _, seg := range strings.Split(path.Dir(filePath), "/") {
		if m.dirs[seg] {
			return true
		}
	}
	return false
}

// ignoreMatcher covers lockfiles, build output, minified/generated
// artifacts, and binaries. Checked before contextMatcher; first match wins.
var ignoreMatcher = newPathMatcher(
	[]string{
		"package-lock.json",
		"yarn.lock",
		"pnpm-lock.yaml",
		"Gemfile.lock",
		"Cargo.lock",
		"go.sum",
		"*.min.js",
		"*.min.css",
		"*.map",
		"*.generated.*",
		"*.snap",
		"*.png", "*.jpg", "*.jpeg", "*.gif", "*.ico", "*.svg",
		"*.woff", "*.woff2", "*.ttf", "*.eot",
		"*.pdf", "*.zip", "*.gz", "*.wasm",
	},
	[]string{"node_modules", "dist", "build", "out", "coverage", ".next", "vendor", "__snapshots__"},
)

// contextMatcher covers manifest/config files that inform a review but are
// never themselves the subject of findings.
var contextMatcher = newPathMatcher(
	[]string{
		"package.json",
		"tsconfig.json",
		"tsconfig.*.json",
		"jsconfig.json",
		"go.mod",
		"*.config.js",
		"*.config.ts",
		"*.config.mjs",
		"*.config.cjs",
		".babelrc",
		".eslintrc*",
		".prettierrc*",
		".env",
		".env.*",
		"Dockerfile",
		"docker-compose*.yml",
		"docker-compose*.yaml",
		"Makefile",
		"*.yml",
		"*.yaml",
		"*.toml",
		"*.md",
		".gitignore",
		".dockerignore",
		"LICENSE*",
	},
	[]string{".github", ".circleci"},
)

// criticalMarkers are case-insensitive path substrings that flag a file for
// elevated review scrutiny.
var criticalMarkers = []string{
	"auth",
	"security",
	"payment",
	"billing",
	"crypto",
	"password",
	"secret",
	"token",
	"session",
	"credential",
	"middleware",
	"api/key",
	"apikey",
	"permission",
	"acl",
}

// Classify partitions files into reviewable, context-only, and ignored sets
// and totals the line counts. Ignore patterns take precedence over
// context-only patterns.
func Classify(files []ChangedFile) Classification {
	c := Classification{TotalFiles: len(files)}

	for _, f := range files {
		c.TotalAdditions += f.Additions
		c.TotalDeletions += f.Deletions

		switch {
		case ignoreMatcher.Match(f.Path):
			c.Ignored = append(c.Ignored, f)
		case contextMatcher.Match(f.Path):
			c.ContextOnly = append(c.ContextOnly, f)
		default:
			c.Reviewable = append(c.Reviewable, f)
		}
	}

	return c
}

// EstimateComplexity buckets a file's change by total changed lines:
// <20 low, <100 medium, otherwise high.
func EstimateComplexity(f ChangedFile) Complexity {
	total := f.Additions + f.Deletions
	switch {
	case total < mediumThreshold:
		return ComplexityLow
	case total < highThreshold:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}

// IsCritical reports whether a path touches a security-sensitive area.
// Matching is case-insensitive substring matching over a fixed marker set.
func IsCritical(filePath string) bool {
	lower := strings.ToLower(filePath)
	for _, marker := range criticalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ComplexityMultiplier is the relevance-score factor for a complexity bucket.
func ComplexityMultiplier(c Complexity) float64 {
	switch c {
	case ComplexityMedium:
		return 1.1
	case ComplexityHigh:
		return 1.2
	default:
		return 1.0
	}
}
