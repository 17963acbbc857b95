// Package scanner walks a Markdown corpus and parses every file into
// Documents and Decisions, isolating per-file failures.
package scanner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/parser"
	"github.com/starford/docgraph/internal/storage"
)

// Failure records a file that could not be parsed.
type Failure struct {
	Path string
	Err  error
}

// Result holds everything a scan produced.
type Result struct {
	Documents []models.Document
	Decisions []models.Decision
	Failures  []Failure
}

// Checksums maps document path to content checksum.
func (r *Result) Checksums() map[string]string {
	out := make(map[string]string, len(r.Documents))
	for _, d := range r.Documents {
		out[d.Path] = d.Checksum
	}
	return out
}

// Scanner parses a corpus from a storage provider.
type Scanner struct {
	store  storage.Provider
	parser *parser.Parser
	logger *slog.Logger
}

// New creates a Scanner.
func New(store storage.Provider, p *parser.Parser, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{store: store, parser: p, logger: logger}
}

// Scan parses every .md file under the corpus root except a README.md
// directly in the root. A file that fails to read or parse is logged and
// skipped; only a failure to list the corpus or a cancelled ctx is
// returned as an error.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	files, err := s.store.List()
	if err != nil {
		return nil, err
	}
	s.logger.Info("scan: found markdown files", slog.Int("count", len(files)), slog.String("root", s.store.Root()))

	res := &Result{}
	decisionPaths := make(map[string]string)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isRootReadme(f.Path) {
			continue
		}

		doc, dec, err := s.parseFile(f.Path)
		if err != nil {
			s.logger.Warn("scan: failed to parse", slog.String("path", f.Path), slog.String("error", err.Error()))
			res.Failures = append(res.Failures, Failure{Path: f.Path, Err: err})
			continue
		}
		res.Documents = append(res.Documents, *doc)

		if dec == nil {
			continue
		}
		if prev, ok := decisionPaths[dec.ID]; ok {
			s.logger.Warn("scan: decision id collision",
				slog.String("id", dec.ID),
				slog.String("path", dec.Path),
				slog.String("other_path", prev))
		} else {
			decisionPaths[dec.ID] = dec.Path
		}
		res.Decisions = append(res.Decisions, *dec)
	}

	s.logger.Info("scan: complete",
		slog.Int("documents", len(res.Documents)),
		slog.Int("decisions", len(res.Decisions)),
		slog.Int("failures", len(res.Failures)))
	return res, nil
}

func (s *Scanner) parseFile(relPath string) (*models.Document, *models.Decision, error) {
	data, err := s.store.Read(relPath)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.parser.ParseDocument(relPath, data)
	if err != nil {
		return nil, nil, err
	}
	if !parser.IsDecisionPath(relPath) {
		return doc, nil, nil
	}
	dec, err := s.parser.ParseDecision(relPath, data)
	if err != nil {
		return nil, nil, err
	}
	return doc, dec, nil
}

func isRootReadme(relPath string) bool {
	return !strings.Contains(relPath, "/") && strings.EqualFold(relPath, "README.md")
}
