package expand

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/scope"
)

func upperRegistry(ExpandFunc) Registry {
	return Registry{
		"upper": FunctionFunc(func(_ context.Context, arg, _ string, _ *scope.Scope) (string, error) {
			return strings.ToUpper(arg), nil
		}),
	}
}

func TestExpand_IdentityWithoutPlaceholders(t *testing.T) {
	e := New(upperRegistry)
	inputs := []string{
		"",
		"plain text",
		"a { spaced } brace",
		"unterminated {name",
		"function foo() { return 1; }",
	}
	for _, in := range inputs {
		out, err := e.Expand(context.Background(), in, scope.New(nil), ".")
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestExpand_Substitution(t *testing.T) {
	e := New(upperRegistry)
	sc := scope.New(map[string]any{
		"title": "Hello",
		"body":  "<p>{title}</p>",
		"draft": true,
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"scope lookup", "<h1>{title}</h1>", "<h1>Hello</h1>"},
		{"scope values are not re-expanded", "{body}", "<p>{title}</p>"},
		{"non-string value", "draft={draft}", "draft=true"},
		{"unknown name passes through", "{missing}", "{missing}"},
		{"single character name", "{x}", "{x}"},
		{"function call", "{upper:abc}", "ABC"},
		{"unknown function passes through", "{nope:abc}", "{nope:abc}"},
		{"function without argument", "{upper}", "{upper}"},
		{"css rule passes through", "a{color:red}", "a{color:red}"},
		{"mixed", "{title} {upper:x} {missing} {title}", "Hello X {missing} Hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Expand(context.Background(), tt.in, sc, ".")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestExpand_PreservesOrderRegardlessOfCompletion(t *testing.T) {
	e := New(func(ExpandFunc) Registry {
		return Registry{
			"sleep": FunctionFunc(func(_ context.Context, arg, _ string, _ *scope.Scope) (string, error) {
				d, err := time.ParseDuration(arg)
				if err != nil {
					return "", err
				}
				time.Sleep(d)
				return arg, nil
			}),
		}
	})

	out, err := e.Expand(context.Background(), "[{sleep:30ms}|{sleep:1ms}|{sleep:15ms}]", nil, ".")
	require.NoError(t, err)
	assert.Equal(t, "[30ms|1ms|15ms]", out)
}

func TestExpand_FunctionsRunConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	e := New(func(ExpandFunc) Registry {
		return Registry{
			"wait": FunctionFunc(func(_ context.Context, arg, _ string, _ *scope.Scope) (string, error) {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				if n == 3 {
					close(release)
				}
				select {
				case <-release:
				case <-time.After(2 * time.Second):
				}
				inFlight.Add(-1)
				return arg, nil
			}),
		}
	})

	out, err := e.Expand(context.Background(), "{wait:a}{wait:b}{wait:c}", nil, ".")
	require.NoError(t, err)
	assert.Equal(t, "abc", out)
	assert.Equal(t, int32(3), peak.Load())
}

func TestExpand_FunctionReceivesCapabilityAndDir(t *testing.T) {
	var gotDir string
	e := New(func(expand ExpandFunc) Registry {
		return Registry{
			"inline": FunctionFunc(func(ctx context.Context, arg, dir string, sc *scope.Scope) (string, error) {
				gotDir = dir
				return expand(ctx, "<{"+arg+"}>", sc, dir)
			}),
		}
	})

	out, err := e.Expand(context.Background(), "{inline:title}", scope.New(map[string]any{"title": "T"}), "/site/posts")
	require.NoError(t, err)
	assert.Equal(t, "<T>", out)
	assert.Equal(t, "/site/posts", gotDir)
	assert.True(t, e.Has("inline"))
	assert.False(t, e.Has("file"))
}

func TestExpand_FunctionErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	e := New(func(ExpandFunc) Registry {
		return Registry{
			"fail": FunctionFunc(func(context.Context, string, string, *scope.Scope) (string, error) {
				return "", boom
			}),
		}
	})

	_, err := e.Expand(context.Background(), "ok {fail:x}", nil, ".")
	require.ErrorIs(t, err, boom)
}

func TestExpand_ObserverSeesFunctionCalls(t *testing.T) {
	var calls []Name
	e := New(upperRegistry, WithObserver(func(n Name) { calls = append(calls, n) }))

	_, err := e.Expand(context.Background(), "{upper:a}{title}{upper:b}", nil, ".")
	require.NoError(t, err)
	assert.Equal(t, []Name{"upper", "upper"}, calls)
}
