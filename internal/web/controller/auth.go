package controller

import (
	"net/http"

	"go.uber.org/zap"

	"arbor/internal/auth"
	"arbor/internal/config"
	"arbor/internal/web/viewmodels"
)

// Auth provides login and logout handlers.
type Auth struct {
	Cfg         *config.Config
	AuthService *auth.Service
	Templates   Templates
	Logger      *zap.Logger
}

// Register registers the auth routes.
func (c *Auth) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /login", c.loginForm)
	mux.HandleFunc("POST /login", c.login)
	mux.HandleFunc("POST /logout", c.logout)
}

func (c *Auth) loginForm(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := c.Templates("login.html")
	if !ok {
		http.Error(w, "Internal Server Error", 500)
		return
	}
	data := viewmodels.PageData{SiteTitle: c.Cfg.Site.Title}
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		c.Logger.Error("template execution failed", zap.String("key", "login.html"), zap.Error(err))
	}
}

func (c *Auth) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if _, err := c.AuthService.Login(w, r, username, password); err != nil {
		c.Logger.Warn("login failed", zap.String("username", username))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

func (c *Auth) logout(w http.ResponseWriter, r *http.Request) {
	c.AuthService.Logout(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
