package parser

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	titleRe    = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)
	headingRe  = regexp.MustCompile(`(?m)^#{1,3}[ \t]+(.+)$`)
	mdLinkRe   = regexp.MustCompile(`\[.+?\]\(([^)]+\.md)\)`)
	backtickRe = regexp.MustCompile("`([^`]+)`")
	boldRe     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

const (
	conceptMinLen = 3
	conceptMaxLen = 49
)

// ExtractTitle returns the text of the first level-1 heading in body, or a
// title derived from the file name when there is none.
func ExtractTitle(body, relPath string) string {
	if m := titleRe.FindStringSubmatch(body); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return t
		}
	}
	return titleFromFilename(relPath)
}

// titleFromFilename turns "02-event-sourcing.md" into "02 Event Sourcing".
func titleFromFilename(relPath string) string {
	base := path.Base(strings.ReplaceAll(relPath, "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	stem = strings.ReplaceAll(stem, "-", " ")
	if strings.TrimSpace(stem) == "" {
		return base
	}
	return titleCase(stem)
}

// titleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// ExtractHeadings returns level 1-3 heading texts in document order.
func ExtractHeadings(body string) []string {
	matches := headingRe.FindAllStringSubmatch(body, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// ExtractReferences returns the targets of Markdown links to .md files,
// verbatim and in order. Absolute http(s) links are dropped.
func ExtractReferences(body string) []string {
	matches := mdLinkRe.FindAllStringSubmatch(body, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		target := m[1]
		lower := strings.ToLower(target)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			continue
		}
		out = append(out, target)
	}
	return out
}

// ExtractConcepts collects backtick and bold spans of 3 to 49 characters,
// de-duplicated in order of first appearance and capped at limit.
// Backtick spans starting with "/" are ignored as paths.
func ExtractConcepts(body string, limit int) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(term string) {
		if len(out) >= limit {
			return
		}
		n := utf8.RuneCountInString(term)
		if n < conceptMinLen || n > conceptMaxLen {
			return
		}
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}

	for _, m := range backtickRe.FindAllStringSubmatch(body, -1) {
		if strings.HasPrefix(m[1], "/") {
			continue
		}
		add(m[1])
	}
	for _, m := range boldRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// Truncate cuts s to at most n characters (runes).
func Truncate(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
