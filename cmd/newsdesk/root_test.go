package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/newsdesk/content"
	"github.com/eringen/newsdesk/storage/sqlite"
)

const seedYAML = `
author: editor-1
articles:
  - title: Markets rally on rate cut
    excerpt: Stocks climbed after the central bank trimmed rates.
    category: Business
    tags: [markets, rates]
    content: <p>Stocks <script>x()</script>climbed.</p>
  - title: Markets rally on rate cut
    excerpt: A second take on the same story, with more detail.
    category: Business
  - title: Unreleased draft
    excerpt: This one should stay hidden from readers.
    draft: true
`

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env", "test"))
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "version", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Contains(t, out, "newsdesk dev")
}

func TestParseSeedDefaultsAuthor(t *testing.T) {
	f, err := parseSeed([]byte("articles:\n  - title: x\n"))
	require.NoError(t, err)
	assert.Equal(t, "admin", f.Author)
	require.Len(t, f.Articles, 1)

	_, err = parseSeed([]byte("articles: [unterminated"))
	assert.Error(t, err)
}

func TestImportSeed(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f, err := parseSeed([]byte(seedYAML))
	require.NoError(t, err)

	ctx := context.Background()
	n, err := importSeed(ctx, content.NewPublisher(store), f)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	first, err := store.GetArticleBySlug(ctx, "markets-rally-on-rate-cut", true)
	require.NoError(t, err)
	assert.Equal(t, "editor-1", first.AuthorID)
	assert.Equal(t, []string{"markets", "rates"}, first.Tags)
	assert.NotContains(t, first.ContentHTML, "<script>")

	_, err = store.GetArticleBySlug(ctx, "markets-rally-on-rate-cut-1", true)
	require.NoError(t, err)

	_, err = store.GetArticleBySlug(ctx, "unreleased-draft", true)
	assert.Error(t, err)
	draft, err := store.GetArticleBySlug(ctx, "unreleased-draft", false)
	require.NoError(t, err)
	assert.False(t, draft.Published)
	assert.Equal(t, content.DefaultCategory, draft.Category)
}

func TestImportSeedStopsOnInvalidArticle(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := seedFile{Author: "admin", Articles: []seedArticle{
		{Title: "Fine", Excerpt: "An excerpt that is long enough."},
		{Title: "Too short", Excerpt: "short"},
	}}
	n, err := importSeed(context.Background(), content.NewPublisher(store), f)
	assert.Equal(t, 1, n)
	assert.ErrorContains(t, err, `article 2 ("Too short")`)
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0o644))
	dbPath := filepath.Join(dir, "news.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("KAFKA_BROKERS", "")

	out, err := runCmd(t, "seed", seedPath, "--env-file", filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Contains(t, out, "imported 3 articles")

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	all, err := store.ListArticles(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSeedCommandRequiresFile(t *testing.T) {
	_, err := runCmd(t, "seed")
	assert.Error(t, err)
}
