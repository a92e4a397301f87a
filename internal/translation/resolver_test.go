package translation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/internal/config"
	"arbor/internal/database"
	"arbor/internal/models"
	"arbor/internal/page"
)

var siteLanguages = []config.Language{
	{Code: "en", Name: "English"},
	{Code: "de", Name: "Deutsch"},
	{Code: "fr", Name: "Français"},
}

func newTestResolver(t *testing.T) (*Resolver, *page.Repository) {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	pages := page.NewRepository(db)
	return NewResolver(pages, siteLanguages), pages
}

func createPage(t *testing.T, pages *page.Repository, slug, lang string, base *models.Page) *models.Page {
	t.Helper()
	p := &models.Page{
		Slug: slug, Title: slug, Language: lang,
		TemplateKey: "base", Active: true, InNavigation: true,
	}
	if base != nil {
		p.TranslationOf = &base.ID
	}
	require.NoError(t, pages.Create(context.Background(), p))
	return p
}

func TestForLanguage(t *testing.T) {
	resolver, pages := newTestResolver(t)

	base := createPage(t, pages, "welcome", "en", nil)
	german := createPage(t, pages, "willkommen", "de", base)

	got, err := resolver.ForLanguage(base, "de")
	require.NoError(t, err)
	assert.Equal(t, german.ID, got.ID)

	// Lookup is symmetric: from the translation back to the base.
	got, err = resolver.ForLanguage(german, "en")
	require.NoError(t, err)
	assert.Equal(t, base.ID, got.ID)

	// And from one translation to another.
	french := createPage(t, pages, "bienvenue", "fr", base)
	got, err = resolver.ForLanguage(german, "fr")
	require.NoError(t, err)
	assert.Equal(t, french.ID, got.ID)
}

func TestForLanguageMissing(t *testing.T) {
	resolver, pages := newTestResolver(t)
	base := createPage(t, pages, "welcome", "en", nil)

	_, err := resolver.ForLanguage(base, "fr")
	assert.ErrorIs(t, err, ErrTranslationMissing)
}

func TestForLanguageOrBase(t *testing.T) {
	resolver, pages := newTestResolver(t)

	base := createPage(t, pages, "welcome", "en", nil)
	german := createPage(t, pages, "willkommen", "de", base)

	got, err := resolver.ForLanguageOrBase(german, "fr")
	require.NoError(t, err)
	assert.Equal(t, base.ID, got.ID)

	got, err = resolver.ForLanguageOrBase(base, "de")
	require.NoError(t, err)
	assert.Equal(t, german.ID, got.ID)
}

func TestLanguageLinks(t *testing.T) {
	resolver, pages := newTestResolver(t)

	base := createPage(t, pages, "welcome", "en", nil)
	createPage(t, pages, "willkommen", "de", base)

	links, err := resolver.LanguageLinks(base, ModeAll)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "en", links[0].Code)
	assert.NotNil(t, links[0].Page)
	assert.Equal(t, "de", links[1].Code)
	assert.NotNil(t, links[1].Page)
	assert.Equal(t, "fr", links[2].Code)
	assert.Nil(t, links[2].Page)

	links, err = resolver.LanguageLinks(base, ModeExisting)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "en", links[0].Code)
	assert.Equal(t, "de", links[1].Code)

	// Excluding the current language keeps languages without a
	// translation as unlinked entries.
	links, err = resolver.LanguageLinks(base, ModeExcludeCurrent)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "de", links[0].Code)
	assert.NotNil(t, links[0].Page)
	assert.Equal(t, "fr", links[1].Code)
	assert.Nil(t, links[1].Page)
}
