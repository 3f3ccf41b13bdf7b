// Package normalization maps loosely written configuration strings onto
// typed enumerations.
package normalization

import (
	"fmt"
	"slices"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string
}

// NewNormalizer creates a normalizer from the accepted spellings. Keys are
// compared case-insensitively and without surrounding space.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	n := &Normalizer[T]{
		values:       make(map[string]T, len(values)),
		defaultValue: defaultValue,
		keys:         make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	slices.Sort(n.keys)
	return n
}

// Normalize returns the value for raw, or the default when raw is empty or
// unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[clean(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// Parse returns the value for raw. Empty input yields the default; unknown
// input is an error listing the accepted keys.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if clean(raw) == "" {
		return n.defaultValue, nil
	}
	if v, ok := n.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// ValidKeys returns the accepted keys in sorted order.
func (n *Normalizer[T]) ValidKeys() []string {
	return slices.Clone(n.keys)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
