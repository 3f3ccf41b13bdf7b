package generator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/expand"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/functions"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/minify"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newGenerator(cfg Config) *Generator {
	conv := markdown.NewConverter(markdown.DefaultOptions())
	exp := expand.New(functions.Builtins(functions.Deps{
		Markdown:  conv,
		MinifyCSS: minify.CSS,
	}))
	return New(cfg, exp, conv, WithRecorder(metrics.NewPrometheusRecorder(nil)))
}

// site lays out a small content tree and returns its root.
func site(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "content")
	writeFile(t, filepath.Join(root, "_globals.yaml"), "siteName: Blog\ncolor: red\n")
	writeFile(t, filepath.Join(root, "_index.html"), "<main>{title}: {body}</main>")
	writeFile(t, filepath.Join(root, "_post.html"), "<title>{title} | {siteName}</title>{body}{?:draft:<p>Draft</p>}")
	writeFile(t, filepath.Join(root, "_header.html"), "<header>{siteName}</header>\n")
	writeFile(t, filepath.Join(root, "index.md"), "# Welcome\n{siteName} home\n")
	writeFile(t, filepath.Join(root, "about.html"), "<h1>{title}</h1>{file:_header.html}")
	writeFile(t, filepath.Join(root, "style.css"), "body { color: {color}; }\n")
	writeFile(t, filepath.Join(root, "logo.png"), "\x89PNG")
	writeFile(t, filepath.Join(root, "posts", "hello.md"), "---\ntitle: Front\ndraft: true\n---\nHi {siteName}\n")
	writeFile(t, filepath.Join(root, "posts", "2024", "new.md"), "# New Year\nBy {author}\n")
	writeFile(t, filepath.Join(root, "_drafts", "secret.md"), "# Secret\n")
	return root
}

func TestGenerate_Site(t *testing.T) {
	in := site(t)
	out := filepath.Join(t.TempDir(), "out")

	g := newGenerator(Config{Concurrency: 2, Globals: map[string]any{"siteName": "Config", "author": "Site"}})
	report, err := g.Generate(context.Background(), in, out)
	require.NoError(t, err)

	index := readFile(t, filepath.Join(out, "index.html"))
	assert.Contains(t, index, "<main>Welcome: ")
	assert.Contains(t, index, "<p>Blog home</p>")

	assert.Equal(t, "<h1>About</h1><header>Blog</header>", readFile(t, filepath.Join(out, "about", "index.html")))
	assert.Equal(t, "body { color: red; }\n", readFile(t, filepath.Join(out, "style.css")))
	assert.Equal(t, "\x89PNG", readFile(t, filepath.Join(out, "logo.png")))

	hello := readFile(t, filepath.Join(out, "posts", "hello", "index.html"))
	assert.Equal(t, "<title>Front | Blog</title><p>Hi Blog</p><p>Draft</p>", hello)

	// posts/2024 sees no _globals.yaml (neither local nor parent), only the
	// configured globals; unknown placeholders pass through.
	newer := readFile(t, filepath.Join(out, "posts", "2024", "new", "index.html"))
	assert.Contains(t, newer, "<title>New Year | Config</title>")
	assert.Contains(t, newer, "<p>By Site</p>")
	assert.NotContains(t, newer, "Draft")

	_, err = os.Stat(filepath.Join(out, "_drafts"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(out, "_post.html"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 3, report.Written(KindMarkdown))
	assert.Equal(t, 1, report.Written(KindHTML))
	assert.Equal(t, 1, report.Written(KindAsset))
	assert.Equal(t, 1, report.Written(KindCopy))
	assert.Equal(t, 6, report.Total())
	assert.Equal(t, 5, report.Skipped())
	assert.Empty(t, report.Failures())
	assert.NotEmpty(t, report.RunID)
	assert.Contains(t, report.Summary(), "outcome=success")
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[rel] = readFile(t, path)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestGenerate_Idempotent(t *testing.T) {
	in := site(t)
	g := newGenerator(Config{Concurrency: 4})

	first := filepath.Join(t.TempDir(), "a")
	second := filepath.Join(t.TempDir(), "b")
	_, err := g.Generate(context.Background(), in, first)
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), in, second)
	require.NoError(t, err)

	a, b := snapshot(t, first), snapshot(t, second)
	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

func TestGenerate_MissingTemplateAborts(t *testing.T) {
	in := filepath.Join(t.TempDir(), "content")
	writeFile(t, filepath.Join(in, "notes", "todo.md"), "# Todo\n")
	writeFile(t, filepath.Join(in, "about.html"), "<p>about</p>")

	report, err := newGenerator(Config{}).Generate(context.Background(), in, filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, err, report.Err())
}

func TestGenerate_PageFailureDoesNotStopSiblings(t *testing.T) {
	in := filepath.Join(t.TempDir(), "content")
	writeFile(t, filepath.Join(in, "broken.html"), "{file:_missing.html}")
	writeFile(t, filepath.Join(in, "ok.html"), "<p>ok</p>")
	out := filepath.Join(t.TempDir(), "out")

	report, err := newGenerator(Config{Concurrency: 1}).Generate(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, "<p>ok</p>", readFile(t, filepath.Join(out, "ok", "index.html")))
	require.Len(t, report.Failures(), 1)
	failure := report.Failures()[0]
	assert.Equal(t, filepath.Join(in, "broken.html"), failure.Path)
	assert.True(t, errors.HasCategory(failure.Err, errors.CategoryFileSystem))
	assert.Equal(t, OutcomeWarning, report.Outcome)
}

func TestGenerate_Clean(t *testing.T) {
	in := filepath.Join(t.TempDir(), "content")
	writeFile(t, filepath.Join(in, "a.html"), "a")
	out := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(out, "stale.txt"), "old")

	_, err := newGenerator(Config{Clean: true}).Generate(context.Background(), in, out)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, "stale.txt"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "a", readFile(t, filepath.Join(out, "a", "index.html")))
}

func TestGenerate_RejectsOutputContainingInput(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "content")
	writeFile(t, filepath.Join(in, "a.html"), "a")

	_, err := newGenerator(Config{Clean: true}).Generate(context.Background(), in, root)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.FileExists(t, filepath.Join(in, "a.html"))
}

func TestGenerate_SkipsOutputNestedInInput(t *testing.T) {
	in := filepath.Join(t.TempDir(), "content")
	writeFile(t, filepath.Join(in, "about.html"), "<p>about</p>")
	out := filepath.Join(in, "public")

	g := newGenerator(Config{Concurrency: 2})
	for range 2 {
		report, err := g.Generate(context.Background(), in, out)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Total())
	}

	assert.Equal(t, "<p>about</p>", readFile(t, filepath.Join(out, "about", "index.html")))
	assert.NoDirExists(t, filepath.Join(out, "public"))
}

func TestGenerate_Canceled(t *testing.T) {
	in := site(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newGenerator(Config{}).Generate(ctx, in, filepath.Join(t.TempDir(), "out"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestKindForExt(t *testing.T) {
	assert.Equal(t, KindMarkdown, KindForExt(".md"))
	assert.Equal(t, KindHTML, KindForExt(".HTML"))
	assert.Equal(t, KindAsset, KindForExt(".css"))
	assert.Equal(t, KindAsset, KindForExt(".js"))
	assert.Equal(t, KindCopy, KindForExt(".png"))
	assert.Equal(t, KindCopy, KindForExt(""))
}
