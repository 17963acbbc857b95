package parser

import (
	"path"
	"regexp"
	"strings"

	"github.com/starford/docgraph/internal/models"
)

const defaultDecisionStatus = "accepted"

var (
	decisionNameRe = regexp.MustCompile(`^(\d+)-(.+)$`)
	// Tolerates emphasis around the label, e.g. "**Status:** Proposed".
	statusRe         = regexp.MustCompile(`(?i)status:[\s*_]*(\w+)`)
	sectionEndRe     = regexp.MustCompile(`^##[ \t]`)
	decisionSections = []string{"context", "decision", "consequences"}
)

// IsDecisionPath reports whether a corpus-relative path lives where
// decision records are kept: a parent directory whose name contains
// "decision", or any path containing "02-".
func IsDecisionPath(relPath string) bool {
	slashed := strings.ReplaceAll(relPath, "\\", "/")
	parent := path.Base(path.Dir(slashed))
	return strings.Contains(strings.ToLower(parent), "decision") || strings.Contains(slashed, "02-")
}

// DecisionID returns the numeric prefix of a "<digits>-<slug>.md" file name.
func DecisionID(relPath string) (string, bool) {
	base := path.Base(strings.ReplaceAll(relPath, "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	m := decisionNameRe.FindStringSubmatch(stem)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseDecision extracts an ADR from the raw file content. It returns
// false when the file name does not follow the numeric-prefix convention.
func ParseDecision(relPath, content string, sectionChars int) (*models.Decision, bool) {
	id, ok := DecisionID(relPath)
	if !ok {
		return nil, false
	}

	title := ""
	if m := titleRe.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if title == "" {
		base := path.Base(strings.ReplaceAll(relPath, "\\", "/"))
		title = strings.TrimSuffix(base, path.Ext(base))
	}

	status := defaultDecisionStatus
	if m := statusRe.FindStringSubmatch(content); m != nil {
		status = strings.ToLower(m[1])
	}

	sections := extractSections(content, decisionSections)
	return &models.Decision{
		ID:           id,
		Title:        title,
		Status:       status,
		Path:         strings.ReplaceAll(relPath, "\\", "/"),
		Context:      Truncate(sections["context"], sectionChars),
		Decision:     Truncate(sections["decision"], sectionChars),
		Consequences: Truncate(sections["consequences"], sectionChars),
	}, true
}

// extractSections returns the trimmed text under the first level-2 heading
// named after each wanted key (case-insensitive), up to the next level-2
// heading or the end of the document. Level-1 lines such as "# comment"
// inside a code block and deeper headings stay in the section. Missing
// sections map to "".
func extractSections(content string, wanted []string) map[string]string {
	out := make(map[string]string, len(wanted))
	want := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		out[w] = ""
		want[w] = true
	}

	lines := strings.Split(content, "\n")
	found := make(map[string]bool, len(wanted))
	for i := 0; i < len(lines); i++ {
		name, ok := level2Heading(lines[i])
		if !ok || !want[name] || found[name] {
			continue
		}
		found[name] = true

		end := i + 1
		for end < len(lines) && !sectionEndRe.MatchString(lines[end]) {
			end++
		}
		out[name] = strings.TrimSpace(strings.Join(lines[i+1:end], "\n"))
	}
	return out
}

func level2Heading(line string) (string, bool) {
	line = strings.TrimRight(line, " \t\r")
	if !strings.HasPrefix(line, "## ") && !strings.HasPrefix(line, "##\t") {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(line[2:])), true
}
