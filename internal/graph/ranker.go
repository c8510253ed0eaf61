// Package graph ranks repository files by relevance to a set of changed
// files. It builds a directed dependency graph from extracted file
// structures, walks it breadth-first in both directions from the changed
// files, and selects a bounded, token-budgeted context set.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/vantage-review/vantage/internal/diff"
	"github.com/vantage-review/vantage/internal/structure"
)

// Ranker defaults and limits.
const (
	DefaultMaxDistance     = 3
	DefaultMaxContextFiles = 15
	DefaultMaxTokens       = 8000

	// TokensPerFile is the fixed per-file budget unit used for selection
	// bounding. It is not a tokenizer count.
	TokensPerFile = 500

	criticalBoost = 1.5
	reverseBoost  = 1.2
)

// ScoredFile is one file discovered by the traversal. Distance is the BFS
// hop count at first discovery and is never revisited; breadth-first order
// guarantees the first discovery is already the shortest.
type ScoredFile struct {
	Path       string          `json:"path"`
	Score      float64         `json:"score"`
	Distance   int             `json:"distance"`
	Reason     string          `json:"reason"`
	IsCritical bool            `json:"isCritical"`
	Complexity diff.Complexity `json:"complexity"`
}

// Selection is the budgeted result of ranking. Files are ordered by
// descending adjusted score, ties broken by discovery order.
type Selection struct {
	Files         []ScoredFile `json:"files"`
	TokenEstimate int          `json:"tokenEstimate"`
	ByDistance    map[int]int  `json:"byDistance"`
	CriticalCount int          `json:"criticalCount"`
}

// Ranker holds the traversal and selection bounds.
type Ranker struct {
	maxDistance int
	maxFiles    int
	maxTokens   int
}

// NewRanker creates a ranker; non-positive bounds fall back to defaults.
func NewRanker(maxDistance, maxFiles, maxTokens int) *Ranker {
	r := &Ranker{maxDistance: maxDistance, maxFiles: maxFiles, maxTokens: maxTokens}
	if r.maxDistance <= 0 {
		r.maxDistance = DefaultMaxDistance
	}
	if r.maxFiles <= 0 {
		r.maxFiles = DefaultMaxContextFiles
	}
	if r.maxTokens <= 0 {
		r.maxTokens = DefaultMaxTokens
	}
	return r
}

// score is the base relevance formula. Distance 0 is the changed file
// itself.
func score(distance int, critical bool, complexity diff.Complexity) float64 {
	s := 1.0 / float64(distance+1)
	if critical {
		s *= criticalBoost
	}
	return s * diff.ComplexityMultiplier(complexity)
}

// Rank walks the dependency graph breadth-first from the changed files and
// returns the budgeted selection. Absent graph edges simply yield fewer
// discovered files; an empty changed set yields an empty selection.
func (r *Ranker) Rank(changed []diff.ChangedFile, structures map[string]*structure.FileStructure) Selection {
	selection := Selection{ByDistance: make(map[int]int)}
	if len(changed) == 0 {
		return selection
	}

	forward, reverse := buildEdges(structures)

	changedComplexity := make(map[string]diff.Complexity, len(changed))
	for _, f := range changed {
		changedComplexity[f.Path] = diff.EstimateComplexity(f)
	}

	// First discovery wins and fixes distance, score, and reason for the
	// whole traversal.
	visited := make(map[string]*ScoredFile)
	var order []string
	var frontier []string

	for _, f := range changed {
		if _, ok := visited[f.Path]; ok {
			continue
		}
		sf := &ScoredFile{
			Path:       f.Path,
			Distance:   0,
			Reason:     "changed in pull request",
			IsCritical: diff.IsCritical(f.Path),
			Complexity: changedComplexity[f.Path],
		}
		sf.Score = score(0, sf.IsCritical, sf.Complexity)
		visited[f.Path] = sf
		order = append(order, f.Path)
		frontier = append(frontier, f.Path)
	}

	for distance := 0; distance < r.maxDistance && len(frontier) > 0; distance++ {
		var next []string
		for _, current := range frontier {
			discover := func(neighbor, reason string, boost float64) {
				if _, ok := visited[neighbor]; ok {
					return
				}
				if _, known := structures[neighbor]; !known {
					// Resolution can point at files outside the corpus
					// (external or nonexistent); they carry no structure
					// and are skipped.
					return
				}
				sf := &ScoredFile{
					Path:       neighbor,
					Distance:   distance + 1,
					Reason:     reason,
					IsCritical: diff.IsCritical(neighbor),
					Complexity: diff.ComplexityLow,
				}
				if c, ok := changedComplexity[neighbor]; ok {
					sf.Complexity = c
				}
				sf.Score = score(sf.Distance, sf.IsCritical, sf.Complexity) * boost
				visited[neighbor] = sf
				order = append(order, neighbor)
				next = append(next, neighbor)
			}

			for _, dep := range forward[current] {
				discover(dep, fmt.Sprintf("imported by %s", current), 1.0)
			}
			// Reverse edges signal the neighbor reacts to the changed
			// code, which is higher-value context than code merely used
			// by it.
			for _, dependent := range reverse[current] {
				discover(dependent, fmt.Sprintf("imports %s", current), reverseBoost)
			}
		}
		frontier = next
	}

	scored := make([]ScoredFile, 0, len(order))
	for _, p := range order {
		sf := *visited[p]
		sf.Score *= typeWeight(sf.Path)
		scored = append(scored, sf)
	}

	// Stable sort keeps discovery order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	// Greedy selection in score order; the first file that would violate
	// either bound stops selection entirely.
	for _, sf := range scored {
		if len(selection.Files) >= r.maxFiles {
			break
		}
		if selection.TokenEstimate+TokensPerFile > r.maxTokens {
			break
		}
		selection.Files = append(selection.Files, sf)
		selection.TokenEstimate += TokensPerFile
		selection.ByDistance[sf.Distance]++
		if sf.IsCritical {
			selection.CriticalCount++
		}
	}

	return selection
}

// buildEdges constructs the directed file graph and flattens it into
// forward and reverse adjacency lists. Edge insertion order follows the
// structure map's dependency order, so traversal discovery order is
// deterministic.
func buildEdges(structures map[string]*structure.FileStructure) (forward, reverse map[string][]string) {
	g := graph.New(graph.StringHash, graph.Directed())

	paths := make([]string, 0, len(structures))
	for p := range structures {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		_ = g.AddVertex(p)
	}
	for _, p := range paths {
		for _, dep := range structures[p].Dependencies {
			if _, ok := structures[dep]; !ok {
				continue
			}
			_ = g.AddEdge(p, dep)
		}
	}

	forward = make(map[string][]string, len(paths))
	reverse = make(map[string][]string, len(paths))

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return forward, reverse
	}
	for _, from := range paths {
		targets := make([]string, 0, len(adjacency[from]))
		for to := range adjacency[from] {
			targets = append(targets, to)
		}
		sort.Strings(targets)
		forward[from] = targets
		for _, to := range targets {
			reverse[to] = append(reverse[to], from)
		}
	}

	return forward, reverse
}

// typeWeight applies the post-traversal path-type adjustment. Applied once,
// after BFS, and never re-normalized.
func typeWeight(p string) float64 {
	lower := strings.ToLower(p)
	switch {
	case strings.Contains(lower, ".test.") || strings.Contains(lower, ".spec.") || strings.Contains(lower, "__tests__"):
		return 0.8
	case strings.Contains(lower, "config"):
		return 0.7
	case strings.Contains(lower, "middleware"):
		return 1.3
	case strings.Contains(lower, "/api/") || strings.Contains(lower, "/routes/"):
		return 1.25
	case strings.Contains(lower, "util") || strings.Contains(lower, "helper") || strings.Contains(lower, "/hooks/"):
		return 1.2
	default:
		return 1.0
	}
}
