// Package vocabulary recognises known component names in Markdown text.
//
// A vocabulary maps a canonical component name to one or more surface
// forms. Matching is case-insensitive and every hit reports the canonical
// name, so "Trade Executor", "TRADE EXECUTOR" and "TradeExecutor" collapse
// to the same token.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var whitespaceRe = regexp.MustCompile(`\s+`)

// File is the on-disk vocabulary format.
type File struct {
	Components map[string][]string `yaml:"components"`
}

type entry struct {
	name     string
	patterns []*regexp.Regexp
}

// Vocabulary is an immutable, compiled component vocabulary.
type Vocabulary struct {
	entries []entry
}

// New compiles a vocabulary from canonical name -> surface forms.
// Canonical names are normalised by removing all whitespace. Forms
// wrapped in slashes ("/exec(utor)?/") are used as regular expressions;
// any other form is matched literally on word boundaries.
func New(components map[string][]string) (*Vocabulary, error) {
	merged := make(map[string][]*regexp.Regexp, len(components))
	for raw, forms := range components {
		name := Canonical(raw)
		if name == "" {
			return nil, fmt.Errorf("vocabulary: empty component name")
		}
		if len(forms) == 0 {
			forms = []string{raw}
		}
		for _, form := range forms {
			re, err := compileForm(form)
			if err != nil {
				return nil, fmt.Errorf("vocabulary: component %s: %w", name, err)
			}
			merged[name] = append(merged[name], re)
		}
	}

	v := &Vocabulary{entries: make([]entry, 0, len(merged))}
	for name, patterns := range merged {
		v.entries = append(v.entries, entry{name: name, patterns: patterns})
	}
	sort.Slice(v.entries, func(i, j int) bool { return v.entries[i].name < v.entries[j].name })
	return v, nil
}

// Parse decodes a YAML vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("vocabulary: parse: %w", err)
	}
	return New(f.Components)
}

// Load reads a YAML vocabulary file from disk.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	v, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("vocabulary: embedded default is invalid: %v", err))
	}
	return v
}

// Canonical strips all whitespace from a component name.
func Canonical(name string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(name), "")
}

// Names returns the canonical names in sorted order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.name
	}
	return out
}

// Match returns the sorted, de-duplicated canonical names of every
// component mentioned in text.
func (v *Vocabulary) Match(text string) []string {
	var out []string
	for _, e := range v.entries {
		for _, re := range e.patterns {
			if re.MatchString(text) {
				out = append(out, e.name)
				break
			}
		}
	}
	return out
}

func compileForm(form string) (*regexp.Regexp, error) {
	form = strings.TrimSpace(form)
	if form == "" {
		return nil, fmt.Errorf("empty surface form")
	}
	if len(form) > 2 && strings.HasPrefix(form, "/") && strings.HasSuffix(form, "/") {
		re, err := regexp.Compile(`(?i)` + form[1:len(form)-1])
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", form, err)
		}
		return re, nil
	}
	words := whitespaceRe.Split(form, -1)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`), nil
}
