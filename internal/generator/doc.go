// Package generator walks a content tree and produces the output tree.
//
// Every directory level is processed by a bounded errgroup. Markdown pages
// are expanded, converted and wrapped in the nearest template; HTML pages and
// stylesheets/scripts are expanded in place; everything else is copied.
// Entries whose name starts with "_" are partials, templates or globals and
// never produce output themselves.
//
// A page failure is logged and recorded in the Report without stopping its
// siblings. A configuration error (missing template, invalid globals) stops
// new work from starting and is returned once in-flight entries settle.
package generator
