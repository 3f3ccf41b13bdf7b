package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nkey: value\n# Title\n")

	_, _, had, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	input := []byte("---\nkey: value\n---")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Empty(t, body)
}

func TestParseYAML_ValidYAML_ReturnsMap(t *testing.T) {
	fm := []byte("author: ada\ntags:\n  - one\n")

	fields, err := ParseYAML(fm)
	require.NoError(t, err)
	require.Equal(t, "ada", fields["author"])
	require.Equal(t, []any{"one"}, fields["tags"])
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestParseYAML_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := ParseYAML([]byte(": not yaml"))
	require.Error(t, err)
}

func TestParse_DecodesDatesAndBools(t *testing.T) {
	fields, body, err := Parse([]byte("---\ndate: 2024-03-01\ndraft: true\n---\nHello\n"))
	require.NoError(t, err)
	require.Equal(t, "Hello\n", string(body))
	require.Equal(t, true, fields["draft"])
	// yaml.v3 keeps timestamp-like scalars as strings when decoding into any.
	require.Equal(t, "2024-03-01", fields["date"])
}

func TestParse_UnclosedDelimiter_TreatedAsBody(t *testing.T) {
	input := []byte("---\nnot frontmatter\n")

	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, input, body)
}
