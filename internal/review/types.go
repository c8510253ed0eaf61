// Package review runs the three category reviews against the reasoning
// service and parses their free-text replies into structured comments.
package review

// Category is one independent review perspective.
type Category string

const (
	CategoryArchitecture    Category = "architecture"
	CategorySecurity        Category = "security"
	CategoryMaintainability Category = "maintainability"
)

// Categories lists every category reviewed per job, in fan-out order.
var Categories = []Category{
	CategoryArchitecture,
	CategorySecurity,
	CategoryMaintainability,
}

// Severity of a review comment.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Comment is one finding produced by the reasoning service for a category.
// Line numbers are 1-based and inclusive; LineEnd >= LineStart.
type Comment struct {
	FilePath  string   `json:"filePath"`
	LineStart int      `json:"lineStart"`
	LineEnd   int      `json:"lineEnd"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Reasoning string   `json:"reasoning,omitempty"`
	Category  Category `json:"category"`
}
