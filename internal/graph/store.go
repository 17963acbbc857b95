// Package graph projects scanned Documents and Decisions into a labeled
// property graph.
//
// A Store is the narrow write interface a backend must offer: parameterised
// queries, a project-scoped wipe, node creation, and create-or-reuse merge
// of nodes and edges. Every node written carries the project label so
// deletes and tallies stay scoped to one corpus.
package graph

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/docgraph/internal/apperr"
)

// Node kinds.
const (
	KindDocument  = "Document"
	KindComponent = "Component"
	KindConcept   = "Concept"
	KindDecision  = "Decision"
)

// Relationship types.
const (
	RelDescribes  = "DESCRIBES"
	RelMentions   = "MENTIONS"
	RelReferences = "REFERENCES"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Row is one result row keyed by column name.
type Row map[string]any

// NodeRef identifies the nodes of one kind whose Key property equals Value.
type NodeRef struct {
	Kind  string
	Key   string
	Value string
}

// KindCount is one line of a post-write tally.
type KindCount struct {
	Kinds []string `json:"kinds"`
	Count int64    `json:"count"`
}

// Label renders the kinds as a single display label.
func (k KindCount) Label() string {
	return strings.Join(k.Kinds, ":")
}

// Store is the graph backend used by Writer.
type Store interface {
	// Query runs a backend-native query with named parameters.
	Query(ctx context.Context, query string, params map[string]any) ([]Row, error)
	// Reset deletes every node and edge carrying the project label.
	Reset(ctx context.Context, project string) error
	// CreateNode unconditionally creates a node of kind with props.
	CreateNode(ctx context.Context, project, kind string, props map[string]any) error
	// MergeNode creates the node described by ref unless one already exists.
	MergeNode(ctx context.Context, project string, ref NodeRef) error
	// MergeEdge links every node matching from to every node matching to
	// with rel, never duplicating an edge. Missing endpoints make it a no-op.
	MergeEdge(ctx context.Context, project string, from NodeRef, rel string, to NodeRef) error
	// Tally counts the project's nodes grouped by kind.
	Tally(ctx context.Context, project string) ([]KindCount, error)
	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// ValidateLabel checks that s can be used verbatim as a label,
// relationship type or property name.
func ValidateLabel(s string) error {
	if !identifierRe.MatchString(s) {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidLabel, s)
	}
	return nil
}

func validateRef(ref NodeRef) error {
	if err := ValidateLabel(ref.Kind); err != nil {
		return err
	}
	return ValidateLabel(ref.Key)
}

func sortTally(counts []KindCount) {
	sort.Slice(counts, func(i, j int) bool { return counts[i].Label() < counts[j].Label() })
}
