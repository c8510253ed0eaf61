// Package structure is a best-effort structural extractor for JavaScript and
// TypeScript sources. It recognizes import and export declarations with
// regular expressions and resolves relative import specifiers into
// repo-relative file paths.
//
// Confidence contract: the extractor may under- or over-match. It is not a
// compiler front end and must not be replaced by one without re-deriving the
// dependency-resolution behavior, since relevance scores and comment
// validation depend on its exact matching semantics. Malformed input
// degrades to an empty structure, never an error.
package structure

import (
	"path"
	"regexp"
	"strings"
)

// ImportEdge is one recognized import of a file. A source line can be
// matched by more than one pass; all matches are kept.
type ImportEdge struct {
	Source     string   `json:"source"`
	Specifiers []string `json:"specifiers"`
	IsDefault  bool     `json:"isDefault"`
	IsDynamic  bool     `json:"isDynamic"`
}

// ExportKind classifies an exported symbol.
type ExportKind string

const (
	ExportFunction  ExportKind = "function"
	ExportClass     ExportKind = "class"
	ExportConst     ExportKind = "const"
	ExportType      ExportKind = "type"
	ExportInterface ExportKind = "interface"
	ExportUnknown   ExportKind = "unknown"
)

// ExportSymbol is one recognized export of a file.
type ExportSymbol struct {
	Name      string     `json:"name"`
	IsDefault bool       `json:"isDefault"`
	Kind      ExportKind `json:"kind"`
}

// FileStructure is the extracted structure of a single file. Lifetime is one
// context-build call; instances are never shared across jobs.
type FileStructure struct {
	Path         string         `json:"path"`
	Imports      []ImportEdge   `json:"imports"`
	Exports      []ExportSymbol `json:"exports"`
	Dependencies []string       `json:"dependencies"`
}

// resolveExtensions is the candidate set appended to extensionless relative
// imports, in priority order.
var resolveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

var (
	// import defaultName from '...'; import { a, b as c } from '...';
	// import defaultName, { a } from '...'; import * as ns from '...'
	staticImportRe = regexp.MustCompile(`import\s+(?:(\w+)\s*,\s*)?(?:\{([^}]*)\}|(\w+)|\*\s+as\s+(\w+))\s+from\s+['"]([^'"]+)['"]`)

	// const { a, b } = require('...'); const x = require('...')
	requireRe = regexp.MustCompile(`(?:const|let|var)\s+(?:\{([^}]*)\}|(\w+))\s*=\s*require\(\s*['"]([^'"]+)['"]\s*\)`)

	// import('...') and await import('...')
	dynamicImportRe = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)

	defaultExportRe = regexp.MustCompile(`export\s+default\s+(?:async\s+)?(function|class)?\s*(\w+)?`)
	namedExportRe   = regexp.MustCompile(`export\s+(?:declare\s+)?(?:async\s+)?(function|class|const|let|var|type|interface|enum)\s+(\w+)`)
	exportListRe    = regexp.MustCompile(`export\s*\{([^}]*)\}`)
)

// ParseImports extracts every recognized import from source text. Three
// independent passes run: static imports, synchronous requires, and dynamic
// imports.
func ParseImports(src string) []ImportEdge {
	var edges []ImportEdge

	for _, m := range staticImportRe.FindAllStringSubmatch(src, -1) {
		edge := ImportEdge{Source: m[5]}
		if m[1] != "" { // default + named combination
			edge.IsDefault = true
			edge.Specifiers = append(edge.Specifiers, m[1])
		}
		switch {
		case m[2] != "": // named specifiers
			edge.Specifiers = append(edge.Specifiers, splitSpecifiers(m[2])...)
		case m[3] != "": // bare default import
			edge.IsDefault = true
			edge.Specifiers = append(edge.Specifiers, m[3])
		case m[4] != "": // namespace import
			edge.Specifiers = append(edge.Specifiers, m[4])
		}
		edges = append(edges, edge)
	}

	for _, m := range requireRe.FindAllStringSubmatch(src, -1) {
		edge := ImportEdge{Source: m[3]}
		if m[1] != "" {
			edge.Specifiers = splitSpecifiers(m[1])
		} else {
			edge.IsDefault = true
			edge.Specifiers = []string{m[2]}
		}
		edges = append(edges, edge)
	}

	for _, m := range dynamicImportRe.FindAllStringSubmatch(src, -1) {
		edges = append(edges, ImportEdge{Source: m[1], IsDynamic: true})
	}

	return edges
}

// ParseExports extracts default exports, named declarations, and re-export
// lists from source text.
func ParseExports(src string) []ExportSymbol {
	var symbols []ExportSymbol

	for _, m := range defaultExportRe.FindAllStringSubmatch(src, -1) {
		name := m[2]
		if name == "" {
			name = "default"
		}
		symbols = append(symbols, ExportSymbol{
			Name:      name,
			IsDefault: true,
			Kind:      kindFromKeyword(m[1]),
		})
	}

	for _, m := range namedExportRe.FindAllStringSubmatch(src, -1) {
		symbols = append(symbols, ExportSymbol{Name: m[2], Kind: kindFromKeyword(m[1])})
	}

	for _, m := range exportListRe.FindAllStringSubmatch(src, -1) {
		for _, name := range splitSpecifiers(m[1]) {
			symbols = append(symbols, ExportSymbol{Name: name, Kind: ExportUnknown})
		}
	}

	return symbols
}

func kindFromKeyword(kw string) ExportKind {
	switch kw {
	case "function":
		return ExportFunction
	case "class":
		return ExportClass
	case "const", "let", "var":
		return ExportConst
	case "type", "enum":
		return ExportType
	case "interface":
		return ExportInterface
	default:
		return ExportUnknown
	}
}

// splitSpecifiers splits "a, b as c, default as d" into the bound local
// names ("a", "c", "d").
func splitSpecifiers(list string) []string {
	var names []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.LastIndex(part, " as "); idx >= 0 {
			part = strings.TrimSpace(part[idx+4:])
		}
		names = append(names, part)
	}
	return names
}

// ResolvePath resolves a relative import specifier against the importing
// file's directory. External-package specifiers (not starting with "." or
// "/") return ok=false and are not tracked as internal dependencies.
//
// If the specifier carries no known extension, the first candidate
// extension is appended without checking that the file exists. Only one
// candidate is ever tried, so resolution can point at a nonexistent sibling
// of the real file; callers tolerate unknown paths.
func ResolvePath(specifier, fromPath string) (string, bool) {
	if specifier == "" {
		return "", false
	}
	if !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/") {
		return "", false
	}

	var resolved string
	if strings.HasPrefix(specifier, "/") {
		resolved = path.Clean(strings.TrimPrefix(specifier, "/"))
	} else {
		resolved = path.Join(path.Dir(fromPath), specifier)
	}
	if resolved == "." || strings.HasPrefix(resolved, "..") {
		return "", false
	}

	if !hasKnownExtension(resolved) {
		resolved += resolveExtensions[0]
	}
	return resolved, true
}

func hasKnownExtension(p string) bool {
	ext := path.Ext(p)
	for _, known := range resolveExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// Analyze composes import and export extraction with dependency resolution
// for one file. Dependencies are deduplicated in first-seen order.
func Analyze(filePath, src string) *FileStructure {
	fs := &FileStructure{
		Path:    filePath,
		Imports: ParseImports(src),
		Exports: ParseExports(src),
	}

	seen := make(map[string]bool)
	for _, imp := range fs.Imports {
		resolved, ok := ResolvePath(imp.Source, filePath)
		if !ok || seen[resolved] {
			continue
		}
		seen[resolved] = true
		fs.Dependencies = append(fs.Dependencies, resolved)
	}

	return fs
}
