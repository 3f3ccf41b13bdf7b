package functions

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/scope"
)

// conditionalFunc implements {?:cond:replacement}. When cond is bound, every
// literal occurrence of cond in replacement is replaced by its value. Boolean
// values are flags: true keeps replacement as written, false drops it. A key
// bound to null counts as present and stringifies to "".
type conditionalFunc struct{}

func (conditionalFunc) Invoke(_ context.Context, arg, _ string, sc *scope.Scope) (string, error) {
	cond, replacement, found := strings.Cut(arg, ":")
	if !found {
		replacement = cond
	}
	v, ok := sc.Lookup(cond)
	if !ok {
		return "", nil
	}
	if b, isBool := v.(bool); isBool {
		if b {
			return replacement, nil
		}
		return "", nil
	}
	return strings.ReplaceAll(replacement, cond, scope.Stringify(v)), nil
}
