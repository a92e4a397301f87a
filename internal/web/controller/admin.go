package controller

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"arbor/internal/auth"
	"arbor/internal/config"
	"arbor/internal/models"
	"arbor/internal/page"
	"arbor/internal/web/viewmodels"
)

// Admin provides the page tree management handlers.
type Admin struct {
	Cfg       *config.Config
	PageRepo  *page.Repository
	Templates Templates
	Logger    *zap.Logger
}

// Register registers the admin page routes.
func (c *Admin) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/", c.tree)
	mux.HandleFunc("GET /admin/pages/new", c.newForm)
	mux.HandleFunc("POST /admin/pages/new", c.create)
	mux.HandleFunc("GET /admin/pages/{id}", c.editForm)
	mux.HandleFunc("POST /admin/pages/{id}", c.update)
	mux.HandleFunc("POST /admin/pages/{id}/move", c.move)
	mux.HandleFunc("POST /admin/pages/{id}/delete", c.delete)
}

func (c *Admin) render(w http.ResponseWriter, r *http.Request, key string, data viewmodels.PageData) {
	tmpl, ok := c.Templates(key)
	if !ok {
		c.Logger.Error("unknown template key", zap.String("key", key))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	user := auth.UserFromContext(r.Context())
	data.SiteTitle = c.Cfg.Site.Title
	data.CurrentUser = user
	data.IsLoggedIn = user != nil
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		c.Logger.Error("template execution failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Admin) tree(w http.ResponseWriter, r *http.Request) {
	all, err := c.PageRepo.All()
	if err != nil {
		c.Logger.Error("listing pages failed", zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	c.render(w, r, "admin_tree.html", viewmodels.PageData{
		PageTree: buildTree(all),
		AllPages: all,
	})
}

// buildTree links a flat, tree-ordered page list into a forest.
func buildTree(pages []*models.Page) []*models.Page {
	byID := make(map[int]*models.Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}
	var roots []*models.Page
	for _, p := range pages {
		if p.ParentID == nil {
			roots = append(roots, p)
		} else if parent, ok := byID[*p.ParentID]; ok {
			parent.Children = append(parent.Children, p)
		}
	}
	return roots
}

func (c *Admin) newForm(w http.ResponseWriter, r *http.Request) {
	all, err := c.PageRepo.All()
	if err != nil {
		c.Logger.Error("listing pages failed", zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	c.render(w, r, "admin_page.html", viewmodels.PageData{AllPages: all})
}

func (c *Admin) pageFromForm(r *http.Request) (*models.Page, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	p := &models.Page{
		Slug:         r.PostFormValue("slug"),
		Title:        r.PostFormValue("title"),
		Language:     r.PostFormValue("language"),
		TemplateKey:  r.PostFormValue("template_key"),
		Active:       r.PostFormValue("active") == "on",
		InNavigation: r.PostFormValue("in_navigation") == "on",
		OverrideURL:  r.PostFormValue("override_url"),
		RedirectTo:   r.PostFormValue("redirect_to"),
	}
	if p.Language == "" {
		p.Language = c.Cfg.PrimaryLanguage()
	}
	if p.TemplateKey == "" {
		p.TemplateKey = "base"
	}
	if v := r.PostFormValue("parent"); v != "" && v != "0" {
		parentID, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		p.ParentID = &parentID
	}
	if v := r.PostFormValue("translation_of"); v != "" && v != "0" {
		baseID, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		p.TranslationOf = &baseID
	}
	if v := r.PostFormValue("position"); v != "" {
		position, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		p.Position = position
	}
	return p, nil
}

func (c *Admin) create(w http.ResponseWriter, r *http.Request) {
	p, err := c.pageFromForm(r)
	if err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}
	if err := c.PageRepo.Create(r.Context(), p); err != nil {
		c.Logger.Error("creating page failed", zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	http.Redirect(w, r, "/admin/pages/"+strconv.Itoa(p.ID), http.StatusSeeOther)
}

func (c *Admin) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p, err := c.PageRepo.ByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		c.Logger.Error("loading page failed", zap.Int("page", id), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	all, err := c.PageRepo.All()
	if err != nil {
		c.Logger.Error("listing pages failed", zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	c.render(w, r, "admin_page.html", viewmodels.PageData{Page: p, AllPages: all})
}

func (c *Admin) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p, err := c.pageFromForm(r)
	if err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}
	p.ID = id
	if err := c.PageRepo.Update(r.Context(), p); err != nil {
		c.Logger.Error("updating page failed", zap.Int("page", id), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	http.Redirect(w, r, "/admin/pages/"+strconv.Itoa(id), http.StatusSeeOther)
}

func (c *Admin) move(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	var newParent *int
	if v := r.PostFormValue("parent"); v != "" && v != "0" {
		parentID, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid parent", http.StatusBadRequest)
			return
		}
		newParent = &parentID
	}
	position, _ := strconv.Atoi(r.PostFormValue("position"))

	if err := c.PageRepo.Move(r.Context(), id, newParent, position); err != nil {
		c.Logger.Error("moving page failed", zap.Int("page", id), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

func (c *Admin) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := c.PageRepo.Delete(r.Context(), id); err != nil {
		c.Logger.Error("deleting page failed", zap.Int("page", id), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}
