// Package markdown converts Markdown to HTML with goldmark. Fenced code blocks
// that declare a language are handed to a Highlighter when one is configured.
package markdown

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// Highlighter renders a code block in the given language to HTML.
type Highlighter interface {
	Highlight(ctx context.Context, code, lang string) (string, error)
}

// Options controls Markdown rendering.
type Options struct {
	// GFM enables tables, strikethrough, autolinks and task lists.
	GFM bool
	// HardWraps renders soft line breaks as <br>.
	HardWraps bool
	// Unsafe passes raw HTML through. Templates and function output embed
	// HTML in Markdown, so this is normally on.
	Unsafe bool
	// Highlighter is optional.
	Highlighter Highlighter
}

// DefaultOptions mirrors the behavior most sites expect.
func DefaultOptions() Options {
	return Options{GFM: true, Unsafe: true}
}

// Converter is a pure markdown -> HTML function configured once per run.
type Converter struct {
	opts Options
}

// NewConverter returns a Converter for opts.
func NewConverter(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Convert renders src to HTML. Highlighter failures surface as render errors
// carrying the collaborator's diagnostics.
func (c *Converter) Convert(ctx context.Context, src []byte) (string, error) {
	var buf bytes.Buffer
	if err := c.markdown(ctx).Convert(src, &buf); err != nil {
		if errors.IsClassified(err) {
			return "", err
		}
		return "", errors.WrapError(err, errors.CategoryRender, "markdown conversion failed").Build()
	}
	return buf.String(), nil
}

func (c *Converter) markdown(ctx context.Context) goldmark.Markdown {
	var exts []goldmark.Extender
	if c.opts.GFM {
		exts = append(exts, extension.GFM)
	}
	var rendererOpts []renderer.Option
	if c.opts.HardWraps {
		rendererOpts = append(rendererOpts, gmhtml.WithHardWraps())
	}
	if c.opts.Unsafe {
		rendererOpts = append(rendererOpts, gmhtml.WithUnsafe())
	}
	if c.opts.Highlighter != nil {
		rendererOpts = append(rendererOpts, renderer.WithNodeRenderers(
			util.Prioritized(&codeBlockRenderer{ctx: ctx, highlighter: c.opts.Highlighter}, 200),
		))
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

// codeBlockRenderer replaces goldmark's fenced code block rendering.
type codeBlockRenderer struct {
	ctx         context.Context
	highlighter Highlighter
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*gmast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	lang := string(n.Language(source))
	if lang == "" {
		_, _ = w.WriteString("<pre><code>")
		_, _ = w.Write(util.EscapeHTML(code.Bytes()))
		_, _ = w.WriteString("</code></pre>\n")
		return gmast.WalkSkipChildren, nil
	}

	html, err := r.highlighter.Highlight(r.ctx, code.String(), lang)
	if err != nil {
		return gmast.WalkStop, err
	}
	_, _ = w.WriteString(html)
	if len(html) > 0 && html[len(html)-1] != '\n' {
		_ = w.WriteByte('\n')
	}
	return gmast.WalkSkipChildren, nil
}
