package controller

import (
	"bytes"
	"database/sql"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"arbor/internal/apps"
	"arbor/internal/auth"
	"arbor/internal/config"
	"arbor/internal/content"
	"arbor/internal/models"
	"arbor/internal/page"
	"arbor/internal/search"
	"arbor/internal/web/viewmodels"
)

// Templates looks up a parsed template set by key.
type Templates func(key string) (*template.Template, bool)

// Site serves the public page tree.
type Site struct {
	Cfg         *config.Config
	PageRepo    *page.Repository
	ContentRepo *content.Repository
	Registry    *apps.Registry
	Searcher    *search.Searcher
	Templates   Templates
	Logger      *zap.Logger
}

// Register registers the public routes.
func (c *Site) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", c.search)
	// No method on the page pattern: embedded applications handle POSTs to
	// page URLs (form submissions).
	mux.HandleFunc("/", c.view)
}

func (c *Site) view(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" {
		c.home(w, r)
		return
	}
	if !strings.HasSuffix(path, "/") {
		http.Redirect(w, r, path+"/", http.StatusMovedPermanently)
		return
	}

	p, err := c.PageRepo.FindByURL(path)
	subpath := ""
	if errors.Is(err, sql.ErrNoRows) {
		// No exact page. The longest matching ancestor may embed an
		// application serving the remaining path.
		p, err = c.PageRepo.BestMatchForPath(path)
		if err == nil {
			subpath = strings.TrimPrefix(path, p.URL)
		}
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		c.Logger.Error("page lookup failed", zap.String("path", path), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}

	if p.RedirectTo != "" {
		http.Redirect(w, r, p.RedirectTo, http.StatusFound)
		return
	}

	appOutput := map[int]template.HTML{}
	block, err := c.ContentRepo.ApplicationBlock(p.ID)
	switch {
	case err == nil:
		done, aerr := c.runApplication(w, r, block, subpath, appOutput)
		if aerr != nil {
			c.Logger.Error("application dispatch failed",
				zap.String("app", block.AppName), zap.String("subpath", subpath), zap.Error(aerr))
			http.NotFound(w, r)
			return
		}
		if done {
			return
		}
	case errors.Is(err, sql.ErrNoRows):
		if subpath != "" {
			// A sub-path below a page without application content is a 404.
			http.NotFound(w, r)
			return
		}
	default:
		c.Logger.Error("content lookup failed", zap.Int("page", p.ID), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}

	c.render(w, r, p, appOutput)
}

// runApplication routes the sub-path to the embedded application and
// captures its output for the page's application block. It reports done
// when the application already wrote a full response (e.g. a redirect).
func (c *Site) runApplication(w http.ResponseWriter, r *http.Request, block *models.Content, subpath string, appOutput map[int]template.HTML) (bool, error) {
	route, params, err := c.Registry.Match(block.AppName, subpath)
	if err != nil {
		return false, err
	}

	buf := newResponseBuffer()
	route.Handler.ServeHTTP(buf, r.WithContext(apps.WithParams(r.Context(), params)))

	if buf.status >= 300 && buf.status < 400 {
		for k, vs := range buf.header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(buf.status)
		return true, nil
	}
	if buf.status >= 400 {
		http.Error(w, http.StatusText(buf.status), buf.status)
		return true, nil
	}

	appOutput[block.ID] = template.HTML(buf.body.String())
	return false, nil
}

func (c *Site) home(w http.ResponseWriter, r *http.Request) {
	// The root URL shows the first active root page.
	roots, err := c.PageRepo.Navigation(nil, 1, 1)
	if err != nil || len(roots) == 0 {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, roots[0].URL, http.StatusFound)
}

func (c *Site) render(w http.ResponseWriter, r *http.Request, p *models.Page, appOutput map[int]template.HTML) {
	key := p.TemplateKey + ".html"
	tmpl, ok := c.Templates(key)
	if !ok {
		c.Logger.Error("unknown template key", zap.String("key", key), zap.Int("page", p.ID))
		http.Error(w, "Internal Server Error", 500)
		return
	}

	user := auth.UserFromContext(r.Context())
	data := viewmodels.PageData{
		SiteTitle:   c.Cfg.Site.Title,
		Ctx:         &viewmodels.PageContext{Page: p, AppOutput: appOutput},
		Page:        p,
		CurrentUser: user,
		IsLoggedIn:  user != nil,
	}

	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		c.Logger.Error("template execution failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Site) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := c.Searcher.Search(query)
	if err != nil {
		c.Logger.Error("search failed", zap.String("query", query), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}

	tmpl, ok := c.Templates("search.html")
	if !ok {
		http.Error(w, "Internal Server Error", 500)
		return
	}

	user := auth.UserFromContext(r.Context())
	data := viewmodels.PageData{
		SiteTitle:   c.Cfg.Site.Title,
		Query:       query,
		CurrentUser: user,
		IsLoggedIn:  user != nil,
	}
	for _, res := range results {
		data.Results = append(data.Results, viewmodels.SearchResult{Page: res.Page, Excerpt: res.Excerpt})
	}

	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		c.Logger.Error("template execution failed", zap.String("key", "search.html"), zap.Error(err))
	}
}

// responseBuffer captures an application handler's response so it can be
// embedded into the page instead of written directly.
type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: http.Header{}, status: http.StatusOK}
}

func (b *responseBuffer) Header() http.Header {
	return b.header
}

func (b *responseBuffer) WriteHeader(status int) {
	b.status = status
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	return b.body.Write(p)
}
