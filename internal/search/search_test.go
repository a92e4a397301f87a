package search

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/internal/content"
	"arbor/internal/database"
	"arbor/internal/models"
	"arbor/internal/page"
)

func newTestSearcher(t *testing.T) (*Searcher, *page.Repository, *content.Repository) {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	_, err = db.Exec("INSERT INTO users (id, username, display_name) VALUES (1, 'ed', 'Ed Itor')")
	require.NoError(t, err)

	pages := page.NewRepository(db)
	return NewSearcher(db, pages), pages, content.NewRepository(db)
}

func seedPage(t *testing.T, pages *page.Repository, contents *content.Repository, slug, kind, text string, active bool) *models.Page {
	t.Helper()
	ctx := context.Background()
	p := &models.Page{
		Slug: slug, Title: slug, Language: "en",
		TemplateKey: "base", Active: active, InNavigation: true,
	}
	require.NoError(t, pages.Create(ctx, p))
	block := &models.Content{PageID: p.ID, Region: "main", Kind: kind, Text: text}
	require.NoError(t, contents.Create(ctx, block, 1, nil))
	return p
}

func TestSearch(t *testing.T) {
	searcher, pages, contents := newTestSearcher(t)

	first := seedPage(t, pages, contents, "widgets", models.ContentRichText,
		"<p>Our widgets are hand made in small batches.</p>", true)
	seedPage(t, pages, contents, "gadgets", models.ContentMarkup,
		"Gadgets ship next year.", true)
	seedPage(t, pages, contents, "secret", models.ContentRichText,
		"<p>Unreleased widgets.</p>", false)

	results, err := searcher.Search("widgets")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, first.ID, results[0].Page.ID)
	// HTML is stripped from the excerpt.
	assert.Equal(t, "Our widgets are hand made in small batches.", results[0].Excerpt)

	results, err = searcher.Search("ship")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "gadgets", results[0].Page.Slug)

	results, err = searcher.Search("   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchOneResultPerPage(t *testing.T) {
	searcher, pages, contents := newTestSearcher(t)
	ctx := context.Background()

	p := seedPage(t, pages, contents, "widgets", models.ContentRichText,
		"<p>widgets here</p>", true)
	second := &models.Content{PageID: p.ID, Region: "main", Ordering: 1,
		Kind: models.ContentMarkup, Text: "more widgets there"}
	require.NoError(t, contents.Create(ctx, second, 1, nil))

	results, err := searcher.Search("widgets")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "widgets here", results[0].Excerpt)
}

func TestSearchWildcardsMatchLiterally(t *testing.T) {
	searcher, pages, contents := newTestSearcher(t)

	seedPage(t, pages, contents, "organic", models.ContentRichText,
		"<p>100% organic widgets.</p>", true)
	seedPage(t, pages, contents, "gadgets", models.ContentMarkup,
		"Gadgets ship next year.", true)

	// A bare wildcard must not match every block.
	results, err := searcher.Search("%")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "organic", results[0].Page.Slug)

	results, err = searcher.Search("_")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = searcher.Search("100% organic")
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestExtract(t *testing.T) {
	got, err := Extract("<p>Hello   <strong>world</strong></p>\n<p>again</p>")
	require.NoError(t, err)
	assert.Equal(t, "Hello world again", got)
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("a", 100) + " needle " + strings.Repeat("b", 100)

	got := Excerpt(long, "needle")
	assert.True(t, strings.HasPrefix(got, "…"))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Contains(t, got, "needle")

	assert.Equal(t, "short text", Excerpt("short text", "text"))
	assert.Equal(t, "no match here", Excerpt("no match here", "zzz"))

	// Matching is case insensitive.
	assert.Contains(t, Excerpt("The Needle hides", "needle"), "Needle")
}

func TestExcerptKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("ä", 100) + " Nadel " + strings.Repeat("ö", 100)

	got := Excerpt(long, "Nadel")
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "Nadel")

	// Truncation without a match must not split a rune either.
	got = Excerpt(strings.Repeat("€", 200), "zzz")
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
