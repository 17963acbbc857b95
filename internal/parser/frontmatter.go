package parser

import "strings"

const frontmatterDelim = "---"

// SplitFrontmatter separates a leading "---" metadata block from the body.
//
// Only flat "key: value" lines are understood; lines without a colon are
// skipped. Text that does not start with the delimiter, or whose block is
// never closed, is returned unchanged with an empty map.
func SplitFrontmatter(text string) (map[string]string, string) {
	fm := map[string]string{}
	if !strings.HasPrefix(text, frontmatterDelim) {
		return fm, text
	}

	parts := strings.SplitN(text, frontmatterDelim, 3)
	if len(parts) < 3 {
		return fm, text
	}

	for _, line := range strings.Split(strings.TrimSpace(parts[1]), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fm[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fm, parts[2]
}
