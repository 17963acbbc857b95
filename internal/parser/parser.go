// Package parser turns Markdown files into Documents and Decisions.
package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/checksum"
	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/vocabulary"
)

// Limits bounds what is retained from each file at extraction time.
type Limits struct {
	ContentChars int
	SectionChars int
	MaxConcepts  int
}

// DefaultLimits returns the standard extraction bounds.
func DefaultLimits() Limits {
	return Limits{
		ContentChars: 5000,
		SectionChars: 2000,
		MaxConcepts:  20,
	}
}

// Parser extracts graph features from Markdown files.
type Parser struct {
	vocab  *vocabulary.Vocabulary
	limits Limits
}

// New creates a Parser. A nil vocabulary uses vocabulary.Default.
func New(vocab *vocabulary.Vocabulary, limits Limits) *Parser {
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	return &Parser{vocab: vocab, limits: limits}
}

// ParseDocument builds a Document from raw file bytes. relPath is the path
// relative to the corpus root and becomes the Document identity.
func (p *Parser) ParseDocument(relPath string, data []byte) (*models.Document, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("parser: %s: %w", relPath, apperr.ErrInvalidUTF8)
	}
	relPath = strings.ReplaceAll(relPath, "\\", "/")

	fm, body := SplitFrontmatter(string(data))
	return &models.Document{
		Path:        relPath,
		Title:       ExtractTitle(body, relPath),
		Type:        Classify(relPath),
		Headings:    ExtractHeadings(body),
		Content:     Truncate(body, p.limits.ContentChars),
		Frontmatter: fm,
		References:  ExtractReferences(body),
		Components:  nonNil(p.vocab.Match(body)),
		Concepts:    ExtractConcepts(body, p.limits.MaxConcepts),
		Checksum:    checksum.Sum(data),
	}, nil
}

// ParseDecision builds a Decision from raw file bytes. It returns nil
// without error when the file name carries no numeric prefix.
func (p *Parser) ParseDecision(relPath string, data []byte) (*models.Decision, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("parser: %s: %w", relPath, apperr.ErrInvalidUTF8)
	}
	dec, ok := ParseDecision(relPath, string(data), p.limits.SectionChars)
	if !ok {
		return nil, nil
	}
	return dec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
