package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"arbor/internal/apps"
	"arbor/internal/auth"
	"arbor/internal/config"
	"arbor/internal/content"
	"arbor/internal/media"
	"arbor/internal/page"
	"arbor/internal/search"
	"arbor/internal/translation"
	"arbor/internal/web/renderer"
	"arbor/internal/web/templatetags"
)

// Server holds the dependencies for the web server.
type Server struct {
	cfg    *config.Config
	db     *sql.DB
	logger *zap.Logger

	authService  *auth.Service
	pageRepo     *page.Repository
	contentRepo  *content.Repository
	mediaRepo    *media.Repository
	translations *translation.Resolver
	registry     *apps.Registry
	renderer     *renderer.Renderer
	helpers      *templatetags.Helpers
	searcher     *search.Searcher

	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewServer creates a new server with the given dependencies and parses the
// template sets.
func NewServer(cfg *config.Config, db *sql.DB, logger *zap.Logger) (*Server, error) {
	pageRepo := page.NewRepository(db)
	contentRepo := content.NewRepository(db)
	mediaRepo := media.NewRepository(db)
	authRepo := auth.NewRepository(db)

	s := &Server{
		cfg:          cfg,
		db:           db,
		logger:       logger,
		authService:  auth.NewService(authRepo),
		pageRepo:     pageRepo,
		contentRepo:  contentRepo,
		mediaRepo:    mediaRepo,
		translations: translation.NewResolver(pageRepo, cfg.Site.Languages),
		registry:     apps.NewRegistry(contentRepo, pageRepo),
		renderer:     renderer.New(mediaRepo, "/uploads/"),
		searcher:     search.NewSearcher(db, pageRepo),
	}
	s.helpers = &templatetags.Helpers{
		Pages:        pageRepo,
		Contents:     contentRepo,
		Translations: s.translations,
		Apps:         s.registry,
		Renderer:     s.renderer,
	}

	if err := s.ReloadTemplates(); err != nil {
		return nil, err
	}
	return s, nil
}

// Apps exposes the application registry so callers can register embedded
// applications before serving.
func (s *Server) Apps() *apps.Registry {
	return s.registry
}

// ReloadTemplates re-parses all template sets from the templates directory.
// Every *.html file except layout.html becomes its own set combined with
// the shared layout.
func (s *Server) ReloadTemplates() error {
	dir := s.cfg.Site.TemplatesDir
	layout := filepath.Join(dir, "layout.html")

	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return err
	}

	funcs := s.helpers.FuncMap()
	templates := make(map[string]*template.Template)
	for _, file := range files {
		name := filepath.Base(file)
		if name == "layout.html" {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFiles(layout, file)
		if err != nil {
			return fmt.Errorf("error parsing template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	if len(templates) == 0 {
		return fmt.Errorf("no templates found in %s", dir)
	}

	s.mu.Lock()
	s.templates = templates
	s.mu.Unlock()
	return nil
}

// Template returns the parsed template set for a key such as "base.html".
func (s *Server) Template(key string) (*template.Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tmpl, ok := s.templates[key]
	return tmpl, ok
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.routes().ServeHTTP(w, r)
}
