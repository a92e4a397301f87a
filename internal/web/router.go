package web

import (
	"net/http"

	"arbor/internal/web/controller"
	"arbor/internal/web/middleware"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", StaticFileServer()))
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.Site.UploadsDir))))

	authController := controller.Auth{Cfg: s.cfg, AuthService: s.authService, Templates: s.Template, Logger: s.logger}
	authController.Register(mux)

	adminMux := http.NewServeMux()
	adminController := controller.Admin{Cfg: s.cfg, PageRepo: s.pageRepo, Templates: s.Template, Logger: s.logger}
	adminController.Register(adminMux)

	contentController := controller.Content{Cfg: s.cfg, PageRepo: s.pageRepo, ContentRepo: s.contentRepo, Templates: s.Template, Logger: s.logger}
	contentController.Register(adminMux)

	miscController := controller.Misc{Cfg: s.cfg, MediaRepo: s.mediaRepo, Templates: s.Template, Logger: s.logger}
	miscController.Register(adminMux)

	mux.Handle("/admin/", middleware.WithUser(s.authService)(middleware.Auth(s.authService)(adminMux)))

	siteController := controller.Site{
		Cfg:         s.cfg,
		PageRepo:    s.pageRepo,
		ContentRepo: s.contentRepo,
		Registry:    s.registry,
		Searcher:    s.searcher,
		Templates:   s.Template,
		Logger:      s.logger,
	}
	siteMux := http.NewServeMux()
	siteController.Register(siteMux)
	mux.Handle("/", middleware.WithUser(s.authService)(siteMux))

	return mux
}
