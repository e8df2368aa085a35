// Package agents manages file-backed agent and skill definitions stored as
// markdown documents with YAML frontmatter.
package agents

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is an ordered frontmatter entry. Order is preserved on write.
type Field struct {
	Key   string
	Value interface{}
}

// SplitFrontmatter separates a markdown document into its YAML frontmatter
// mapping and body. A document without a leading "---" is all body.
func SplitFrontmatter(raw string) (map[string]interface{}, string, error) {
	if !strings.HasPrefix(raw, "---\n") {
		return map[string]interface{}{}, raw, nil
	}

	rest := strings.TrimPrefix(raw, "---\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, "", fmt.Errorf("unterminated frontmatter block")
	}
	header := rest[:end]
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	meta := map[string]interface{}{}
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return nil, "", fmt.Errorf("invalid frontmatter yaml: %w", err)
	}
	return meta, body, nil
}

// EncodeFrontmatter renders fields and body back into a markdown document.
// List values are always emitted in YAML flow style ([a, b]).
func EncodeFrontmatter(fields []Field, body string) (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: f.Key}
		var valNode *yaml.Node
		switch v := f.Value.(type) {
		case string:
			valNode = &yaml.Node{Kind: yaml.ScalarNode, Value: v}
		case []string:
			valNode = &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, item := range v {
				valNode.Content = append(valNode.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: item})
			}
		default:
			return "", fmt.Errorf("unsupported frontmatter value for key %q", f.Key)
		}
		root.Content = append(root.Content, keyNode, valNode)
	}

	header, err := yaml.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// StringList coerces a frontmatter value into a string slice. Comma-separated
// strings are accepted on read and split into elements.
func StringList(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// StringValue coerces a frontmatter value into a string.
func StringValue(v interface{}) string {
	return asString(v)
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
