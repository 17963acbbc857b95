// Package models defines the domain types produced by a corpus scan.
package models

import "time"

// DocType tags a document by its role in the corpus.
type DocType string

// Document types. The set is closed; Other is the fallback.
const (
	DocTypeOverview       DocType = "overview"
	DocTypeArchitecture   DocType = "architecture"
	DocTypeDecision       DocType = "decision"
	DocTypeImplementation DocType = "implementation"
	DocTypeOperations     DocType = "operations"
	DocTypePlan           DocType = "plan"
	DocTypeOther          DocType = "other"
)

// DocTypes lists every document type in classifier priority order.
var DocTypes = []DocType{
	DocTypeOverview,
	DocTypeArchitecture,
	DocTypeDecision,
	DocTypeImplementation,
	DocTypeOperations,
	DocTypePlan,
	DocTypeOther,
}

// Document represents one parsed Markdown file in the corpus.
type Document struct {
	Path        string            `json:"path"`
	Title       string            `json:"title"`
	Type        DocType           `json:"type"`
	Headings    []string          `json:"headings"`
	Content     string            `json:"content,omitempty"`
	Frontmatter map[string]string `json:"frontmatter,omitempty"`
	References  []string          `json:"references"`
	Components  []string          `json:"components"`
	Concepts    []string          `json:"concepts"`
	Checksum    string            `json:"checksum"`
}

// Decision is an architecture decision record derived from a Document
// with the same Path.
type Decision struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	Path         string `json:"path"`
	Context      string `json:"context"`
	Decision     string `json:"decision"`
	Consequences string `json:"consequences"`
}

// FileInfo is a lightweight listing entry for a corpus file.
type FileInfo struct {
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}
