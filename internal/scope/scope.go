// Package scope holds the variable mapping used to resolve placeholders for
// one rendering context, and the rules for building it for a content file.
package scope

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the rendering used for date values.
const DateLayout = "2006-01-02"

// Scope is an ordered, immutable mapping from variable name to value. Values
// are usually strings; frontmatter can contribute dates, booleans or lists.
// With and Merge return extended copies and never modify the receiver, so a
// Scope can be shared freely between concurrent expansions.
type Scope struct {
	keys   []string
	values map[string]any
}

// New returns a scope holding fields in sorted key order.
func New(fields map[string]any) *Scope {
	return (&Scope{}).Merge(fields)
}

// With returns a copy of s where key is bound to value.
func (s *Scope) With(key string, value any) *Scope {
	out := s.clone(1)
	out.set(key, value)
	return out
}

// Merge returns a copy of s overlaid with fields. Keys are applied in sorted
// order so the result does not depend on map iteration.
func (s *Scope) Merge(fields map[string]any) *Scope {
	out := s.clone(len(fields))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		out.set(k, fields[k])
	}
	return out
}

// Overlay returns a copy of s with every binding of other applied on top.
func (s *Scope) Overlay(other *Scope) *Scope {
	if other == nil {
		return s.clone(0)
	}
	out := s.clone(len(other.keys))
	for _, k := range other.keys {
		out.set(k, other.values[k])
	}
	return out
}

// Lookup returns the raw value bound to key.
func (s *Scope) Lookup(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[key]
	return v, ok
}

// String returns the stringified value bound to key.
func (s *Scope) String(key string) (string, bool) {
	v, ok := s.Lookup(key)
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// Keys returns the bound names in insertion order.
func (s *Scope) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.keys)
}

// Len returns the number of bindings.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

func (s *Scope) clone(extra int) *Scope {
	out := &Scope{values: make(map[string]any, s.Len()+extra)}
	if s == nil {
		return out
	}
	out.keys = make([]string, len(s.keys), len(s.keys)+extra)
	copy(out.keys, s.keys)
	for k, v := range s.values {
		out.values[k] = v
	}
	return out
}

func (s *Scope) set(key string, value any) {
	if _, exists := s.values[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Stringify renders a scope value as text. Dates render as YYYY-MM-DD.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(DateLayout)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format(DateLayout)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
