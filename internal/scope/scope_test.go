package scope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWith_DoesNotMutateReceiver(t *testing.T) {
	base := New(map[string]any{"siteName": "Blog"})
	derived := base.With("title", "Hello")

	_, ok := base.Lookup("title")
	assert.False(t, ok)
	v, ok := derived.String("title")
	require.True(t, ok)
	assert.Equal(t, "Hello", v)
	assert.Equal(t, []string{"siteName", "title"}, derived.Keys())
}

func TestMerge_LastWriterWins(t *testing.T) {
	s := New(map[string]any{"title": "Globals", "a": "1"}).
		Merge(map[string]any{"title": "Frontmatter"})

	v, _ := s.String("title")
	assert.Equal(t, "Frontmatter", v)
	assert.Equal(t, []string{"a", "title"}, s.Keys())
}

func TestOverlay(t *testing.T) {
	low := New(map[string]any{"a": "low", "b": "low"})
	high := New(map[string]any{"b": "high"})

	out := low.Overlay(high)
	a, _ := out.String("a")
	b, _ := out.String("b")
	assert.Equal(t, "low", a)
	assert.Equal(t, "high", b)
}

func TestNilScope(t *testing.T) {
	var s *Scope
	_, ok := s.Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.With("x", "y").Len())
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "plain", "plain"},
		{"nil", nil, ""},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"date", time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC), "2024-05-06"},
		{"list", []any{"a", 1}, "a, 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}
