package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontmatter(t *testing.T) {
	t.Run("document with frontmatter", func(t *testing.T) {
		doc := "---\nname: Researcher\ntags: [a, b]\n---\n\nThe body.\n"
		meta, body, err := SplitFrontmatter(doc)
		require.NoError(t, err)
		assert.Equal(t, "Researcher", StringValue(meta["name"]))
		assert.Equal(t, []string{"a", "b"}, StringList(meta["tags"]))
		assert.Equal(t, "The body.\n", body)
	})

	t.Run("document without frontmatter is all body", func(t *testing.T) {
		meta, body, err := SplitFrontmatter("just markdown\n")
		require.NoError(t, err)
		assert.Empty(t, meta)
		assert.Equal(t, "just markdown\n", body)
	})

	t.Run("unterminated frontmatter is an error", func(t *testing.T) {
		_, _, err := SplitFrontmatter("---\nname: x\n")
		assert.Error(t, err)
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		_, _, err := SplitFrontmatter("---\n{not yaml\n---\n")
		assert.Error(t, err)
	})
}

func TestEncodeFrontmatter(t *testing.T) {
	t.Run("preserves field order and uses flow lists", func(t *testing.T) {
		doc, err := EncodeFrontmatter([]Field{
			{Key: "name", Value: "Researcher"},
			{Key: "tags", Value: []string{"a", "b"}},
		}, "Body text\n")
		require.NoError(t, err)
		assert.Equal(t, "---\nname: Researcher\ntags: [a, b]\n---\n\nBody text\n", doc)
	})

	t.Run("empty body omits the blank separator", func(t *testing.T) {
		doc, err := EncodeFrontmatter([]Field{{Key: "name", Value: "X"}}, "")
		require.NoError(t, err)
		assert.Equal(t, "---\nname: X\n---\n", doc)
	})

	t.Run("unsupported value type is an error", func(t *testing.T) {
		_, err := EncodeFrontmatter([]Field{{Key: "count", Value: 3}}, "")
		assert.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		doc, err := EncodeFrontmatter([]Field{
			{Key: "name", Value: "X"},
			{Key: "skills", Value: []string{"one", "two"}},
		}, "body\n")
		require.NoError(t, err)

		meta, body, err := SplitFrontmatter(doc)
		require.NoError(t, err)
		assert.Equal(t, "X", StringValue(meta["name"]))
		assert.Equal(t, []string{"one", "two"}, StringList(meta["skills"]))
		assert.Equal(t, "body\n", body)
	})
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"nil", nil, nil},
		{"string slice", []string{"a"}, []string{"a"}},
		{"interface slice", []interface{}{"a", "b"}, []string{"a", "b"}},
		{"comma separated", "a, b , c", []string{"a", "b", "c"}},
		{"blank string", "   ", nil},
		{"unsupported type", 42, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StringList(tt.in))
		})
	}
}
