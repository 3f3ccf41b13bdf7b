package expand

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitegen/internal/scope"
)

// Name identifies a registered function.
type Name string

// Function is a named text transform invoked for {name:arg} placeholders.
// The scope is read-only; dir resolves relative paths in arg.
type Function interface {
	Invoke(ctx context.Context, arg, dir string, sc *scope.Scope) (string, error)
}

// FunctionFunc adapts a plain function to Function.
type FunctionFunc func(ctx context.Context, arg, dir string, sc *scope.Scope) (string, error)

func (f FunctionFunc) Invoke(ctx context.Context, arg, dir string, sc *scope.Scope) (string, error) {
	return f(ctx, arg, dir, sc)
}

// Registry maps names to functions. It is built once per run and only read
// afterwards.
type Registry map[Name]Function

// ExpandFunc is the expansion capability handed to functions.
type ExpandFunc func(ctx context.Context, text string, sc *scope.Scope, dir string) (string, error)

// placeholderPattern matches {name} and {name:arg}; the argument runs up to
// the first closing brace.
var placeholderPattern = regexp.MustCompile(`\{([\w?]+)(?::([^}]+))?\}`)

// Expander evaluates placeholders against a scope and a registry.
type Expander struct {
	registry Registry
	observe  func(Name)
}

// Option configures an Expander.
type Option func(*Expander)

// WithObserver registers a callback invoked before every function call.
func WithObserver(fn func(Name)) Option {
	return func(e *Expander) { e.observe = fn }
}

// New builds an Expander. The registry factory receives the expander's own
// Expand method, which breaks the cycle between functions and expansion.
func New(registry func(ExpandFunc) Registry, opts ...Option) *Expander {
	e := &Expander{}
	for _, opt := range opts {
		opt(e)
	}
	if registry != nil {
		e.registry = registry(e.Expand)
	}
	if e.registry == nil {
		e.registry = Registry{}
	}
	return e
}

// Has reports whether name is registered.
func (e *Expander) Has(name Name) bool {
	_, ok := e.registry[name]
	return ok
}

type segment struct {
	start, end int
	out        string
}

// Expand substitutes every placeholder in text. Function placeholders run
// concurrently; the result keeps the original left-to-right order.
func (e *Expander) Expand(ctx context.Context, text string, sc *scope.Scope, dir string) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	segments := make([]segment, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range matches {
		segments[i] = segment{start: m[0], end: m[1]}
		token := text[m[0]+1 : m[1]-1]
		name := Name(text[m[2]:m[3]])
		var arg string
		if m[4] >= 0 {
			arg = text[m[4]:m[5]]
		}

		if fn, ok := e.registry[name]; ok && arg != "" {
			if e.observe != nil {
				e.observe(name)
			}
			g.Go(func() error {
				out, err := fn.Invoke(gctx, arg, dir, sc)
				if err != nil {
					return err
				}
				segments[i].out = out
				return nil
			})
			continue
		}
		if v, ok := sc.String(token); ok {
			segments[i].out = v
			continue
		}
		segments[i].out = text[m[0]:m[1]]
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, seg := range segments {
		b.WriteString(text[last:seg.start])
		b.WriteString(seg.out)
		last = seg.end
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
