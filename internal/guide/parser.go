// Package guide extracts compliance rules from the YAML frontmatter of guide
// documents and discovers guides in a project tree.
package guide

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/specguard/internal/rule"
)

// Example is the frontmatter shape quoted back to authors when parsing fails.
const Example = `---
rules:
  - id: api-tests-present
    type: file_exists
    description: API routes must have tests
    path: tests/test_api.py
---`

// frontmatter matches a leading "---" block terminated by a "---" line.
var frontmatter = regexp.MustCompile(`\A---[ \t]*\r?\n((?s:.*?))\r?\n---[ \t]*(?:\r?\n|\z)`)

// ParseError reports frontmatter that is not valid YAML, does not decode to a
// mapping, or carries a malformed rules list.
type ParseError struct {
	Path    string
	Msg     string
	Err     error
	Example string
}

func (e *ParseError) Error() string {
	s := e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, s)
	}
	return s
}

func (e *ParseError) Unwrap() error { return e.Err }

// RuleError scopes a schema failure to one rule of one guide.
type RuleError struct {
	Path   string
	RuleID string
	Index  int
	Line   int
	Err    error
}

func (e *RuleError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// ID returns the guide identifier for a guide path: its file name without extension.
func ID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SplitFrontmatter returns the YAML between the leading "---" delimiters and
// the remaining body. ok is false when the document has no frontmatter.
func SplitFrontmatter(content []byte) (block, body []byte, ok bool) {
	m := frontmatter.FindSubmatchIndex(content)
	if m == nil {
		return nil, content, false
	}
	return content[m[2]:m[3]], content[m[1]:], true
}

// parseFrontmatter decodes the frontmatter block into its root mapping node
// and returns the number of document lines preceding the YAML block, so node
// lines can be reported relative to the guide. A document without
// frontmatter yields (nil, 0, nil).
func parseFrontmatter(content []byte) (*yaml.Node, int, error) {
	m := frontmatter.FindSubmatchIndex(content)
	if m == nil {
		return nil, 0, nil
	}
	block := content[m[2]:m[3]]
	offset := bytes.Count(content[:m[2]], []byte("\n"))

	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, 0, &ParseError{Msg: "malformed YAML in frontmatter", Err: err, Example: Example}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, 0, &ParseError{Msg: "frontmatter must be a YAML mapping, got empty document", Example: Example}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, 0, &ParseError{
			Msg:     fmt.Sprintf("frontmatter must be a YAML mapping, got %s", nodeKind(root)),
			Example: Example,
		}
	}
	return root, offset, nil
}

// ExtractRules reads a guide and returns its validated rule definitions in
// document order. A guide without frontmatter, or without a rules key,
// defines no rules.
func ExtractRules(path string) ([]rule.Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guide %s: %w", path, err)
	}
	defs, err := ParseRules(content)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		var re *RuleError
		if errors.As(err, &re) {
			re.Path = path
		}
		return nil, err
	}
	return defs, nil
}

// ParseRules extracts and validates rule definitions from guide content.
func ParseRules(content []byte) ([]rule.Definition, error) {
	root, offset, err := parseFrontmatter(content)
	if err != nil || root == nil {
		return nil, err
	}

	rulesNode := resolve(mappingValue(root, "rules"))
	if rulesNode == nil {
		return nil, nil
	}
	if rulesNode.Kind != yaml.SequenceNode {
		return nil, &ParseError{
			Msg:     fmt.Sprintf("'rules' in frontmatter must be a list, got %s", nodeKind(rulesNode)),
			Example: Example,
		}
	}

	defs := make([]rule.Definition, 0, len(rulesNode.Content))
	seen := make(map[string]int, len(rulesNode.Content))

	for i, item := range rulesNode.Content {
		line := item.Line + offset
		item = resolve(item)
		if item.Kind != yaml.MappingNode {
			return nil, &RuleError{
				Index: i,
				Line:  line,
				Err:   fmt.Errorf("rules[%d]: must be a mapping, got %s", i, nodeKind(item)),
			}
		}

		var fields map[string]any
		if err := item.Decode(&fields); err != nil {
			return nil, &RuleError{Index: i, Line: line, Err: fmt.Errorf("rules[%d]: %w", i, err)}
		}
		d := rule.Definition{Index: i, Line: line, Fields: fields}

		if err := rule.Validate(d); err != nil {
			return nil, &RuleError{RuleID: d.ID(), Index: i, Line: line, Err: err}
		}
		if prev, dup := seen[d.ID()]; dup {
			return nil, &RuleError{
				RuleID: d.ID(),
				Index:  i,
				Line:   line,
				Err:    fmt.Errorf("rule %q: duplicate id (first declared at rules[%d])", d.ID(), prev),
			}
		}
		seen[d.ID()] = i
		defs = append(defs, d)
	}

	return defs, nil
}

// resolve follows alias nodes to the anchored node they refer to.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "null"
		}
		return "scalar"
	default:
		return "unknown"
	}
}
