// Package functions provides the built-in placeholder functions:
//
//	{file:path}      include a file, expanded against the current scope
//	{md:path}        include a Markdown file (with frontmatter) as HTML
//	{css:path}       include a stylesheet, expanded and minified
//	{dir:path}       render a directory listing as an HTML list of links
//	{dataURL:url}    inline a remote resource as a base64 data: URL
//	{favicon:url}    inline a site's icon as a Markdown image
//	{?:cond:text}    emit text when cond is bound in scope
//
// Relative paths resolve against the dir passed to Invoke, never the process
// working directory.
package functions
