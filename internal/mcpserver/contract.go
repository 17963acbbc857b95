package mcpserver

// ConventionsURI identifies the documentation conventions resource.
const ConventionsURI = "docgraph://conventions"

// Conventions describes how the documentation corpus is laid out and how
// each file is interpreted when the graph is built.
const Conventions = `# Documentation Conventions

The knowledge graph is built from a tree of Markdown files. Structure matters:
file locations and headings decide how a document is classified and linked.

## Document types

The first matching rule on the relative path wins:

| Path contains                         | Type           |
|---------------------------------------|----------------|
| ` + "`00-`" + ` or ` + "`overview`" + `                   | overview       |
| ` + "`01-`" + ` or ` + "`architecture`" + `               | architecture   |
| ` + "`02-`" + ` or ` + "`decision`" + `                   | decision       |
| ` + "`04-`" + ` or ` + "`implementation`" + `             | implementation |
| ` + "`05-`" + ` or ` + "`operations`" + `                 | operations     |
| ` + "`06-`" + ` or ` + "`plan`" + `                       | plan           |

Anything else is ` + "`other`" + `. Numeric prefixes only count at the start of a
path segment. A root-level README.md is never indexed.

## Decision records

Files whose parent directory name contains ` + "`decision`" + ` (or whose path
contains ` + "`02-`" + `) and whose name starts with digits
(` + "`003-use-bolt-protocol.md`" + `) are decision records. The digits are the
decision ID. The record should carry:

- a ` + "`Status: accepted`" + ` line (any word; defaults to ` + "`accepted`" + `)
- ` + "`## Context`" + `, ` + "`## Decision`" + ` and ` + "`## Consequences`" + ` sections

## Links and concepts

- Cross-references are Markdown links to ` + "`.md`" + ` files; web links are ignored.
- Inline code spans and bold phrases of 3 to 49 characters become concepts.
- Component names come from the configured vocabulary and are matched as
  whole words, case-insensitively.

## Frontmatter

An optional block of flat ` + "`key: value`" + ` lines between ` + "`---`" + ` fences at the top
of the file. Nested YAML is not interpreted.
`
