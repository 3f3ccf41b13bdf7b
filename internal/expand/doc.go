// Package expand implements placeholder substitution for content and template
// text.
//
// A placeholder is either {name}, resolved against a scope, or {fn:arg},
// which invokes the named function with the raw argument. Unresolved
// placeholders are emitted verbatim, so expansion never fails on malformed
// input; only a function may return an error.
//
// Functions receive the expansion capability at construction time (see
// ExpandFunc and New) so they can expand the text they load without a global
// reference back to the expander.
package expand
