// Package assemble merges classifier, parser, and ranker outputs into the
// single review-ready payload consumed by the reasoning calls and by the
// comment validator.
package assemble

import (
	"strings"

	"github.com/vantage-review/vantage/internal/diff"
	"github.com/vantage-review/vantage/internal/graph"
	"github.com/vantage-review/vantage/internal/structure"
)

// ImpactLevel is the coarse advisory impact bucket of a pull request.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// Impact level thresholds.
const (
	criticalImpactThreshold = 40
	highImpactThreshold     = 25
	mediumImpactThreshold   = 15
)

// Impact is advisory metadata attached to the payload, never a gate.
type Impact struct {
	Score int         `json:"score"`
	Level ImpactLevel `json:"level"`
}

// ChangedFileContext is one changed file enriched with its extracted
// structure and full content.
type ChangedFileContext struct {
	File       diff.ChangedFile `json:"file"`
	Complexity diff.Complexity  `json:"complexity"`
	IsCritical bool             `json:"isCritical"`
	Imports    []string         `json:"imports"`
	Exports    []string         `json:"exports"`
	Content    string           `json:"content"`
}

// ContextFile is a selected-but-not-changed file included for background
// only; it is never the subject of changed-line findings.
type ContextFile struct {
	Path     string  `json:"path"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	Distance int     `json:"distance"`
	Reason   string  `json:"reason"`
}

// ReviewContext is the assembled payload for one job. It is the complete
// set of files the reasoning service is shown, and therefore the reference
// the validator checks citations against.
type ReviewContext struct {
	Repository    string               `json:"repository"`
	PRNumber      int                  `json:"prNumber"`
	Changed       []ChangedFileContext `json:"changed"`
	Context       []ContextFile        `json:"context"`
	Impact        Impact               `json:"impact"`
	TokenEstimate int                  `json:"tokenEstimate"`

	lines map[string][]string
}

// Build assembles the payload. contents maps path to full file text for
// every fetched file; files without content are carried with empty text.
func Build(repository string, prNumber int, c diff.Classification, structures map[string]*structure.FileStructure, sel graph.Selection, contents map[string]string) *ReviewContext {
	rc := &ReviewContext{
		Repository:    repository,
		PRNumber:      prNumber,
		TokenEstimate: sel.TokenEstimate,
		lines:         make(map[string][]string),
	}

	changedPaths := make(map[string]bool, len(c.Reviewable))
	for _, f := range c.Reviewable {
		changedPaths[f.Path] = true

		cfc := ChangedFileContext{
			File:       f,
			Complexity: diff.EstimateComplexity(f),
			IsCritical: diff.IsCritical(f.Path),
			Content:    contents[f.Path],
		}
		if fs, ok := structures[f.Path]; ok {
			for _, imp := range fs.Imports {
				cfc.Imports = append(cfc.Imports, imp.Source)
			}
			for _, exp := range fs.Exports {
				cfc.Exports = append(cfc.Exports, exp.Name)
			}
		}
		rc.Changed = append(rc.Changed, cfc)
		rc.lines[f.Path] = strings.Split(cfc.Content, "\n")
	}

	for _, sf := range sel.Files {
		if changedPaths[sf.Path] {
			continue
		}
		content := contents[sf.Path]
		rc.Context = append(rc.Context, ContextFile{
			Path:     sf.Path,
			Content:  content,
			Score:    sf.Score,
			Distance: sf.Distance,
			Reason:   sf.Reason,
		})
		rc.lines[sf.Path] = strings.Split(content, "\n")
	}

	rc.Impact = assessImpact(c, sel.CriticalCount, len(rc.Context))
	return rc
}

// HasFile reports whether a path is part of the payload.
func (rc *ReviewContext) HasFile(path string) bool {
	_, ok := rc.lines[path]
	return ok
}

// Lines returns the content lines of a payload file.
func (rc *ReviewContext) Lines(path string) ([]string, bool) {
	lines, ok := rc.lines[path]
	return lines, ok
}

// TotalLines returns the line count of a payload file, or 0 if absent.
func (rc *ReviewContext) TotalLines(path string) int {
	return len(rc.lines[path])
}

// assessImpact computes the coarse impact score: critical files weigh 10
// each, with step bonuses for total changed lines, changed-file count, and
// context breadth beyond the changed set.
func assessImpact(c diff.Classification, criticalCount, contextCount int) Impact {
	score := criticalCount * 10

	totalLines := c.TotalAdditions + c.TotalDeletions
	switch {
	case totalLines > 500:
		score += 15
	case totalLines > 200:
		score += 10
	}

	if c.TotalFiles > 10 {
		score += 10
	}

	switch {
	case contextCount > 10:
		score += 15
	case contextCount > 5:
		score += 10
	}

	level := ImpactLow
	switch {
	case score >= criticalImpactThreshold:
		level = ImpactCritical
	case score >= highImpactThreshold:
		level = ImpactHigh
	case score >= mediumImpactThreshold:
		level = ImpactMedium
	}

	return Impact{Score: score, Level: level}
}
