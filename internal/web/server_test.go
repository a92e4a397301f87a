package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"arbor/internal/apps"
	"arbor/internal/auth"
	"arbor/internal/config"
	"arbor/internal/content"
	"arbor/internal/database"
	"arbor/internal/models"
	"arbor/internal/page"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Addr:       ":0",
			SessionKey: "0123456789abcdef0123456789abcdef",
		},
		Database: config.DatabaseConfig{DSN: ":memory:"},
		Site: config.SiteConfig{
			Title: "Arbor",
			Languages: []config.Language{
				{Code: "en", Name: "English"},
			},
			// Relative to this package while under test.
			TemplatesDir: "templates",
			UploadsDir:   "uploads",
		},
		Logging: config.LoggingConfig{Level: "info"},
	}
}

func newTestServer(t *testing.T) (*Server, *page.Repository, *content.Repository) {
	t.Helper()
	require.NoError(t, auth.InitSessionStore("0123456789abcdef0123456789abcdef"))

	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	_, err = db.Exec("INSERT INTO users (id, username, display_name) VALUES (1, 'ed', 'Ed Itor')")
	require.NoError(t, err)

	s, err := NewServer(testConfig(), db, zap.NewNop())
	require.NoError(t, err)
	return s, page.NewRepository(db), content.NewRepository(db)
}

func createPage(t *testing.T, pages *page.Repository, parent *models.Page, slug, title string) *models.Page {
	t.Helper()
	p := &models.Page{
		Slug: slug, Title: title, Language: "en",
		TemplateKey: "base", Active: true, InNavigation: true,
	}
	if parent != nil {
		p.ParentID = &parent.ID
	}
	require.NoError(t, pages.Create(context.Background(), p))
	fresh, err := pages.ByID(p.ID)
	require.NoError(t, err)
	return fresh
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServePage(t *testing.T) {
	s, pages, contents := newTestServer(t)
	p := createPage(t, pages, nil, "welcome", "Welcome")
	block := &models.Content{PageID: p.ID, Region: "main", Kind: models.ContentRichText, Text: "<p>Hello from Arbor.</p>"}
	require.NoError(t, contents.Create(context.Background(), block, 1, nil))

	rec := get(s, "/welcome/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Welcome</h1>")
	assert.Contains(t, rec.Body.String(), "Hello from Arbor.")
}

func TestTrailingSlashRedirect(t *testing.T) {
	s, pages, _ := newTestServer(t)
	createPage(t, pages, nil, "welcome", "Welcome")

	rec := get(s, "/welcome")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/welcome/", rec.Header().Get("Location"))
}

func TestHomeRedirectsToFirstRoot(t *testing.T) {
	s, pages, _ := newTestServer(t)
	createPage(t, pages, nil, "welcome", "Welcome")

	rec := get(s, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/welcome/", rec.Header().Get("Location"))
}

func TestUnknownPage(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := get(s, "/nope/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPageRedirectTo(t *testing.T) {
	s, pages, _ := newTestServer(t)
	p := createPage(t, pages, nil, "old", "Old")
	p.RedirectTo = "/new/"
	require.NoError(t, pages.Update(context.Background(), p))

	rec := get(s, "/old/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/new/", rec.Header().Get("Location"))
}

func TestAdminRequiresLogin(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := get(s, "/admin/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestApplicationDispatch(t *testing.T) {
	s, pages, contents := newTestServer(t)
	p := createPage(t, pages, nil, "news", "News")
	block := &models.Content{PageID: p.ID, Region: "main", Kind: models.ContentApplication, AppName: "news"}
	require.NoError(t, contents.Create(context.Background(), block, 1, nil))

	require.NoError(t, s.Apps().Register(&apps.Application{
		Name: "news",
		Routes: []apps.Route{
			{Name: "index", Pattern: "", Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<ul class=\"entries\"><li>First post</li></ul>")
			})},
			{Name: "detail", Pattern: "entries/{id}/", Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, "<p>entry %s</p>", apps.Params(r.Context())["id"])
			})},
		},
	}))

	// The embedding page renders the application's index output inline.
	rec := get(s, "/news/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "First post")

	// Sub-paths below the page reach the application's routes.
	rec = get(s, "/news/entries/7/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>entry 7</p>")

	// Unroutable sub-paths fall through to a not found response.
	rec = get(s, "/news/bogus/deep/path/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
