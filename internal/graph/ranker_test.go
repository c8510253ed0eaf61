package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-review/vantage/internal/diff"
	"github.com/vantage-review/vantage/internal/structure"
)

// Test Plan for the ranker:
// - Forward BFS discovers transitive dependencies up to maxDistance, never beyond
// - Reverse dependents are discovered with the 1.2x boost
// - First discovery fixes distance and score; shorter alternate paths never rescore
// - Critical and complexity multipliers shape distance-0 scores
// - Type weights dampen tests/config and boost middleware/utils
// - Selection respects both the file cap and the token budget
// - Empty changed set yields an empty selection
// - Ranking is deterministic across repeated runs

func structureFor(path string, deps ...string) *structure.FileStructure {
	return &structure.FileStructure{Path: path, Dependencies: deps}
}

func TestRank_ForwardTraversalDepth(t *testing.T) {
	t.Parallel()

	// a -> b -> c -> d -> e; maxDistance 3 stops at d.
	structures := map[string]*structure.FileStructure{
		"src/a.ts": structureFor("src/a.ts", "src/b.ts"),
		"src/b.ts": structureFor("src/b.ts", "src/c.ts"),
		"src/c.ts": structureFor("src/c.ts", "src/d.ts"),
		"src/d.ts": structureFor("src/d.ts", "src/e.ts"),
		"src/e.ts": structureFor("src/e.ts"),
	}
	changed := []diff.ChangedFile{{Path: "src/a.ts", Additions: 5}}

	sel := NewRanker(3, 15, 8000).Rank(changed, structures)

	got := make(map[string]ScoredFile)
	for _, f := range sel.Files {
		got[f.Path] = f
	}
	require.Len(t, sel.Files, 4)
	assert.NotContains(t, got, "src/e.ts")
	assert.Equal(t, 0, got["src/a.ts"].Distance)
	assert.Equal(t, 1, got["src/b.ts"].Distance)
	assert.Equal(t, 2, got["src/c.ts"].Distance)
	assert.Equal(t, 3, got["src/d.ts"].Distance)

	for _, f := range sel.Files {
		assert.LessOrEqual(t, f.Distance, 3)
	}
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1, 3: 1}, sel.ByDistance)
}

func TestRank_ReverseDependentsBoosted(t *testing.T) {
	t.Parallel()

	// caller.ts imports the changed file; it is discovered through the
	// reverse edge with the 1.2x boost: (1/2) * 1.2 = 0.6.
	structures := map[string]*structure.FileStructure{
		"src/core.ts":   structureFor("src/core.ts"),
		"src/caller.ts": structureFor("src/caller.ts", "src/core.ts"),
	}
	changed := []diff.ChangedFile{{Path: "src/core.ts", Additions: 3}}

	sel := NewRanker(3, 15, 8000).Rank(changed, structures)
	require.Len(t, sel.Files, 2)

	var caller ScoredFile
	for _, f := range sel.Files {
		if f.Path == "src/caller.ts" {
			caller = f
		}
	}
	assert.Equal(t, 1, caller.Distance)
	assert.InDelta(t, 0.6, caller.Score, 1e-9)
	assert.Equal(t, "imports src/core.ts", caller.Reason)
}

func TestRank_FirstDiscoveryWins(t *testing.T) {
	t.Parallel()

	// shared.ts is reachable at distance 1 (via a) and distance 2 (via b->mid).
	// BFS discovers it at distance 1 and never rescores it.
	structures := map[string]*structure.FileStructure{
		"src/a.ts":      structureFor("src/a.ts", "src/shared.ts"),
		"src/b.ts":      structureFor("src/b.ts", "src/mid.ts"),
		"src/mid.ts":    structureFor("src/mid.ts", "src/shared.ts"),
		"src/shared.ts": structureFor("src/shared.ts"),
	}
	changed := []diff.ChangedFile{
		{Path: "src/a.ts", Additions: 1},
		{Path: "src/b.ts", Additions: 1},
	}

	sel := NewRanker(3, 15, 8000).Rank(changed, structures)
	for _, f := range sel.Files {
		if f.Path == "src/shared.ts" {
			assert.Equal(t, 1, f.Distance)
			return
		}
	}
	t.Fatal("shared.ts not selected")
}

func TestRank_ScoreFormula(t *testing.T) {
	t.Parallel()

	// Critical path + high complexity at distance 0: 1.0 * 1.5 * 1.2 = 1.8.
	structures := map[string]*structure.FileStructure{
		"src/auth/login.ts": structureFor("src/auth/login.ts"),
	}
	changed := []diff.ChangedFile{{Path: "src/auth/login.ts", Additions: 150}}

	sel := NewRanker(3, 15, 8000).Rank(changed, structures)
	require.Len(t, sel.Files, 1)
	f := sel.Files[0]
	assert.True(t, f.IsCritical)
	assert.Equal(t, diff.ComplexityHigh, f.Complexity)
	assert.InDelta(t, 1.8, f.Score, 1e-9)
	assert.Equal(t, 1, sel.CriticalCount)
}

func TestRank_TypeWeights(t *testing.T) {
	t.Parallel()

	structures := map[string]*structure.FileStructure{
		"src/app.ts":            structureFor("src/app.ts", "src/app.test.ts", "src/config.ts", "src/middleware/log.ts"),
		"src/app.test.ts":       structureFor("src/app.test.ts"),
		"src/config.ts":         structureFor("src/config.ts"),
		"src/middleware/log.ts": structureFor("src/middleware/log.ts"),
	}
	changed := []diff.ChangedFile{{Path: "src/app.ts", Additions: 1}}

	sel := NewRanker(3, 15, 8000).Rank(changed, structures)
	got := make(map[string]float64)
	for _, f := range sel.Files {
		got[f.Path] = f.Score
	}

	// All three neighbors share base score 0.5 before type adjustment.
	assert.InDelta(t, 0.5*0.8, got["src/app.test.ts"], 1e-9)
	assert.InDelta(t, 0.5*0.7, got["src/config.ts"], 1e-9)
	assert.InDelta(t, 0.5*1.3, got["src/middleware/log.ts"], 1e-9)
}

func TestRank_SelectionBounds(t *testing.T) {
	t.Parallel()

	structures := make(map[string]*structure.FileStructure)
	var deps []string
	for i := 0; i < 30; i++ {
		p := fmt.Sprintf("src/f%02d.ts", i)
		structures[p] = structureFor(p)
		deps = append(deps, p)
	}
	structures["src/root.ts"] = structureFor("src/root.ts", deps...)
	changed := []diff.ChangedFile{{Path: "src/root.ts", Additions: 1}}

	t.Run("file cap", func(t *testing.T) {
		t.Parallel()
		sel := NewRanker(3, 5, 8000).Rank(changed, structures)
		assert.Len(t, sel.Files, 5)
		assert.Equal(t, 5*TokensPerFile, sel.TokenEstimate)
	})

	t.Run("token budget", func(t *testing.T) {
		t.Parallel()
		sel := NewRanker(3, 15, 1200).Rank(changed, structures)
		// Two files fit (1000 tokens); a third would exceed 1200.
		assert.Len(t, sel.Files, 2)
		assert.LessOrEqual(t, sel.TokenEstimate, 1200)
	})
}

func TestRank_EmptyChangedSet(t *testing.T) {
	t.Parallel()

	sel := NewRanker(3, 15, 8000).Rank(nil, map[string]*structure.FileStructure{
		"src/a.ts": structureFor("src/a.ts"),
	})
	assert.Empty(t, sel.Files)
	assert.Zero(t, sel.TokenEstimate)
}

func TestRank_Deterministic(t *testing.T) {
	t.Parallel()

	structures := map[string]*structure.FileStructure{
		"src/a.ts": structureFor("src/a.ts", "src/b.ts", "src/c.ts"),
		"src/b.ts": structureFor("src/b.ts", "src/d.ts"),
		"src/c.ts": structureFor("src/c.ts", "src/d.ts"),
		"src/d.ts": structureFor("src/d.ts"),
		"src/e.ts": structureFor("src/e.ts", "src/a.ts"),
	}
	changed := []diff.ChangedFile{{Path: "src/a.ts", Additions: 25}}

	r := NewRanker(3, 15, 8000)
	first := r.Rank(changed, structures)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, r.Rank(changed, structures))
	}
}
