package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/parser"
)

const progressEvery = 10

// Limits bounds what is written per document.
type Limits struct {
	ContentChars int
	MaxConcepts  int
}

// DefaultLimits returns the standard write bounds.
func DefaultLimits() Limits {
	return Limits{ContentChars: 2000, MaxConcepts: 10}
}

// Report summarises one Write.
type Report struct {
	Project   string      `json:"project"`
	Documents int         `json:"documents"`
	Decisions int         `json:"decisions"`
	Tally     []KindCount `json:"tally"`
}

// Writer projects Documents and Decisions into a Store under one project
// label. Each store call is its own unit of work; a failing call aborts
// the rest of the sequence.
type Writer struct {
	store   Store
	project string
	limits  Limits
	reset   bool
	logger  *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLimits overrides the write bounds.
func WithLimits(l Limits) WriterOption {
	return func(w *Writer) { w.limits = l }
}

// WithReset controls the project wipe before writing. It is on by default;
// turning it off makes repeated writes create duplicate Document and
// Decision nodes.
func WithReset(reset bool) WriterOption {
	return func(w *Writer) { w.reset = reset }
}

// WithLogger sets the progress logger.
func WithLogger(l *slog.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// NewWriter creates a Writer for project.
func NewWriter(store Store, project string, opts ...WriterOption) (*Writer, error) {
	if err := ValidateLabel(project); err != nil {
		return nil, fmt.Errorf("graph: project: %w", err)
	}
	w := &Writer{
		store:   store,
		project: project,
		limits:  DefaultLimits(),
		reset:   true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write resets the project (unless disabled), writes every node and edge,
// and returns the resulting tally.
func (w *Writer) Write(ctx context.Context, docs []models.Document, decisions []models.Decision) (*Report, error) {
	log := w.logger.With(slog.String("project", w.project))
	log.Info("graph: writing project")

	if w.reset {
		log.Info("graph: clearing existing project nodes")
		if err := w.store.Reset(ctx, w.project); err != nil {
			return nil, err
		}
	} else {
		log.Warn("graph: reset skipped, Document and Decision nodes may be duplicated")
	}

	log.Info("graph: creating document nodes", slog.Int("count", len(docs)))
	for i, doc := range docs {
		if err := w.writeDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("graph: document %s: %w", doc.Path, err)
		}
		if (i+1)%progressEvery == 0 {
			log.Info("graph: progress", slog.Int("processed", i+1), slog.Int("total", len(docs)))
		}
	}

	log.Info("graph: creating decision nodes", slog.Int("count", len(decisions)))
	for _, dec := range decisions {
		if err := w.store.CreateNode(ctx, w.project, KindDecision, decisionProps(dec)); err != nil {
			return nil, fmt.Errorf("graph: decision %s: %w", dec.Path, err)
		}
	}

	log.Info("graph: linking document references")
	for _, doc := range docs {
		for _, ref := range doc.References {
			err := w.store.MergeEdge(ctx, w.project, documentRef(doc.Path), RelReferences, documentRef(ref))
			if err != nil {
				return nil, fmt.Errorf("graph: reference %s -> %s: %w", doc.Path, ref, err)
			}
		}
	}

	tally, err := w.store.Tally(ctx, w.project)
	if err != nil {
		return nil, err
	}
	return &Report{
		Project:   w.project,
		Documents: len(docs),
		Decisions: len(decisions),
		Tally:     tally,
	}, nil
}

func (w *Writer) writeDocument(ctx context.Context, doc models.Document) error {
	props := map[string]any{
		"path":     doc.Path,
		"title":    doc.Title,
		"type":     string(doc.Type),
		"headings": nonNilStrings(doc.Headings),
		"content":  parser.Truncate(doc.Content, w.limits.ContentChars),
	}
	if err := w.store.CreateNode(ctx, w.project, KindDocument, props); err != nil {
		return err
	}

	for _, comp := range doc.Components {
		if err := w.link(ctx, doc.Path, RelDescribes, NodeRef{Kind: KindComponent, Key: "name", Value: comp}); err != nil {
			return err
		}
	}

	concepts := doc.Concepts
	if len(concepts) > w.limits.MaxConcepts {
		concepts = concepts[:w.limits.MaxConcepts]
	}
	for _, c := range concepts {
		if err := w.link(ctx, doc.Path, RelMentions, NodeRef{Kind: KindConcept, Key: "name", Value: c}); err != nil {
			return err
		}
	}
	return nil
}

// link merges the target node and then the edge from the document to it.
func (w *Writer) link(ctx context.Context, docPath, rel string, target NodeRef) error {
	if err := w.store.MergeNode(ctx, w.project, target); err != nil {
		return err
	}
	return w.store.MergeEdge(ctx, w.project, documentRef(docPath), rel, target)
}

func documentRef(path string) NodeRef {
	return NodeRef{Kind: KindDocument, Key: "path", Value: path}
}

func decisionProps(dec models.Decision) map[string]any {
	return map[string]any{
		"id":           dec.ID,
		"title":        dec.Title,
		"status":       dec.Status,
		"path":         dec.Path,
		"context":      dec.Context,
		"decision":     dec.Decision,
		"consequences": dec.Consequences,
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
