// Package catalog provides an in-memory read model over one corpus scan.
package catalog

import (
	"path"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/scanner"
	"github.com/starford/docgraph/internal/vocabulary"
)

// DocumentSummary is a lightweight item in a list response.
type DocumentSummary struct {
	Path       string         `json:"path"`
	Title      string         `json:"title"`
	Type       models.DocType `json:"type"`
	Components []string       `json:"components"`
}

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	models.Document
	Backlinks []string         `json:"backlinks"`
	Decision  *models.Decision `json:"decision,omitempty"`
}

// ComponentSummary counts the documents describing one component.
type ComponentSummary struct {
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

// Catalog is an immutable index over a scan result.
type Catalog struct {
	docs       []models.Document
	byPath     map[string]int
	decisions  []models.Decision
	decByPath  map[string]int
	components map[string][]string
	backlinks  map[string][]string
	scannedAt  time.Time
}

// New indexes a scan result.
func New(res *scanner.Result) *Catalog {
	c := &Catalog{
		docs:       res.Documents,
		byPath:     make(map[string]int, len(res.Documents)),
		decisions:  res.Decisions,
		decByPath:  make(map[string]int, len(res.Decisions)),
		components: make(map[string][]string),
		backlinks:  make(map[string][]string),
		scannedAt:  time.Now(),
	}
	for i, d := range c.docs {
		c.byPath[d.Path] = i
	}
	for i, d := range c.decisions {
		if _, ok := c.decByPath[d.Path]; !ok {
			c.decByPath[d.Path] = i
		}
	}
	for _, d := range c.docs {
		for _, comp := range d.Components {
			c.components[comp] = append(c.components[comp], d.Path)
		}
		seen := make(map[string]bool)
		for _, ref := range d.References {
			target, ok := c.resolve(d.Path, ref)
			if !ok || seen[target] {
				continue
			}
			seen[target] = true
			c.backlinks[target] = append(c.backlinks[target], d.Path)
		}
	}
	return c
}

// resolve matches a reference against document paths, first verbatim and
// then relative to the referencing document's directory.
func (c *Catalog) resolve(from, ref string) (string, bool) {
	if _, ok := c.byPath[ref]; ok {
		return ref, true
	}
	joined := path.Clean(path.Join(path.Dir(from), ref))
	if _, ok := c.byPath[joined]; ok {
		return joined, true
	}
	return "", false
}

// ScannedAt returns when the underlying scan finished.
func (c *Catalog) ScannedAt() time.Time {
	return c.scannedAt
}

// Len returns the number of documents and decisions.
func (c *Catalog) Len() (int, int) {
	return len(c.docs), len(c.decisions)
}

// ListDocuments returns documents in scan order, optionally filtered by type.
func (c *Catalog) ListDocuments(docType string) []DocumentSummary {
	out := []DocumentSummary{}
	for _, d := range c.docs {
		if docType != "" && string(d.Type) != docType {
			continue
		}
		out = append(out, summarize(d))
	}
	return out
}

// GetDocument returns a document with its backlinks and decision record.
func (c *Catalog) GetDocument(p string) (*DocumentDetail, error) {
	i, ok := c.byPath[p]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	detail := &DocumentDetail{Document: c.docs[i], Backlinks: c.Backlinks(p)}
	if j, ok := c.decByPath[p]; ok {
		dec := c.decisions[j]
		detail.Decision = &dec
	}
	return detail, nil
}

// Backlinks returns the paths of documents that reference p.
func (c *Catalog) Backlinks(p string) []string {
	bl := c.backlinks[p]
	if bl == nil {
		return []string{}
	}
	return append([]string(nil), bl...)
}

// ListDecisions returns decisions, optionally filtered by status.
func (c *Catalog) ListDecisions(status string) []models.Decision {
	out := []models.Decision{}
	for _, d := range c.decisions {
		if status != "" && !strings.EqualFold(d.Status, status) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Components lists every component mentioned in the corpus, sorted by name.
func (c *Catalog) Components() []ComponentSummary {
	out := make([]ComponentSummary, 0, len(c.components))
	for name, paths := range c.components {
		out = append(out, ComponentSummary{Name: name, Documents: len(paths)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ComponentDocuments returns the documents that describe a component.
// The name is matched case-insensitively with whitespace removed.
func (c *Catalog) ComponentDocuments(name string) ([]DocumentSummary, error) {
	want := vocabulary.Canonical(name)
	for comp, paths := range c.components {
		if !strings.EqualFold(comp, want) {
			continue
		}
		out := make([]DocumentSummary, 0, len(paths))
		for _, p := range paths {
			out = append(out, summarize(c.docs[c.byPath[p]]))
		}
		return out, nil
	}
	return nil, apperr.ErrNotFound
}

func summarize(d models.Document) DocumentSummary {
	comps := d.Components
	if comps == nil {
		comps = []string{}
	}
	return DocumentSummary{Path: d.Path, Title: d.Title, Type: d.Type, Components: comps}
}

// Live holds the current catalog and allows it to be swapped after a rescan.
type Live struct {
	p atomic.Pointer[Catalog]
}

// NewLive creates a Live holder seeded with c.
func NewLive(c *Catalog) *Live {
	l := &Live{}
	l.p.Store(c)
	return l
}

// Current returns the latest catalog.
func (l *Live) Current() *Catalog {
	return l.p.Load()
}

// Replace swaps in a new catalog.
func (l *Live) Replace(c *Catalog) {
	l.p.Store(c)
}
