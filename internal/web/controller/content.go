package controller

import (
	"bytes"
	"database/sql"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"arbor/internal/auth"
	"arbor/internal/config"
	"arbor/internal/content"
	"arbor/internal/models"
	"arbor/internal/page"
	"arbor/internal/web/renderer"
	"arbor/internal/web/viewmodels"
)

// Content provides content block editing handlers.
type Content struct {
	Cfg         *config.Config
	PageRepo    *page.Repository
	ContentRepo *content.Repository
	Templates   Templates
	Logger      *zap.Logger
}

// Register registers the content routes.
func (c *Content) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/pages/{id}/contents", c.list)
	mux.HandleFunc("POST /admin/pages/{id}/contents", c.create)
	mux.HandleFunc("POST /admin/contents/{id}", c.update)
	mux.HandleFunc("POST /admin/contents/{id}/delete", c.delete)
	mux.HandleFunc("GET /admin/contents/{id}/history", c.history)
	mux.HandleFunc("GET /admin/contents/{id}/diff", c.diff)
	mux.HandleFunc("POST /admin/_preview", c.preview)
}

func (c *Content) render(w http.ResponseWriter, r *http.Request, key string, data viewmodels.PageData) {
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

func (c *Content) list(w http.ResponseWriter, r *http.Request) {
	pageID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p, err := c.PageRepo.ByID(pageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		c.Logger.Error("loading page failed", zap.Int("page", pageID), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	blocks, err := c.ContentRepo.ListByPage(pageID)
	if err != nil {
		c.Logger.Error("listing contents failed", zap.Int("page", pageID), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	c.render(w, r, "admin_contents.html", viewmodels.PageData{Page: p, Contents: blocks})
}

func (c *Content) create(w http.ResponseWriter, r *http.Request) {
	pageID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	block := &models.Content{
		PageID:  pageID,
		Region:  r.PostFormValue("region"),
		Kind:    r.PostFormValue("kind"),
		Text:    r.PostFormValue("text"),
		AppName: r.PostFormValue("app_name"),
	}
	if block.Region == "" {
		block.Region = "main"
	}
	if v := r.PostFormValue("ordering"); v != "" {
		block.Ordering, _ = strconv.Atoi(v)
	}
	if v := r.PostFormValue("media_file"); v != "" && v != "0" {
		mediaID, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid media file", http.StatusBadRequest)
			return
		}
		block.MediaFileID = &mediaID
	}

	comment := r.PostFormValue("comment")
	if err := c.ContentRepo.Create(r.Context(), block, user.ID, &comment); err != nil {
		c.Logger.Error("creating content failed", zap.Int("page", pageID), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	http.Redirect(w, r, "/admin/pages/"+strconv.Itoa(pageID)+"/contents", http.StatusSeeOther)
}

func (c *Content) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	block, err := c.ContentRepo.ByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		c.Logger.Error("loading content failed", zap.Int("content", id), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}

	comment := r.PostFormValue("comment")
	if err := c.ContentRepo.UpdateText(r.Context(), id, r.PostFormValue("text"), user.ID, &comment); err != nil {
		c.Logger.Error("updating content failed", zap.Int("content", id), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	http.Redirect(w, r, "/admin/pages/"+strconv.Itoa(block.PageID)+"/contents", http.StatusSeeOther)
}

func (c *Content) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	block, err := c.ContentRepo.ByID(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := c.ContentRepo.Delete(r.Context(), id); err != nil {
		c.Logger.Error("deleting content failed", zap.Int("content", id), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	http.Redirect(w, r, "/admin/pages/"+strconv.Itoa(block.PageID)+"/contents", http.StatusSeeOther)
}

func (c *Content) history(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	block, err := c.ContentRepo.ByID(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p, err := c.PageRepo.ByID(block.PageID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	infos, err := c.ContentRepo.ListRevisionInfo(id)
	if err != nil {
		c.Logger.Error("listing revisions failed", zap.Int("content", id), zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}

	data := viewmodels.PageData{Page: p, Content: block}
	for _, info := range infos {
		data.Revisions = append(data.Revisions, viewmodels.RevisionViewModel{
			ID:        info.ID,
			CreatedAt: info.CreatedAt,
			Author:    info.Author,
			Comment:   info.Comment,
		})
	}
	c.render(w, r, "history.html", data)
}

func (c *Content) diff(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	fromID, err := strconv.Atoi(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "Invalid 'from' revision", http.StatusBadRequest)
		return
	}
	toID, err := strconv.Atoi(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "Invalid 'to' revision", http.StatusBadRequest)
		return
	}

	block, err := c.ContentRepo.ByID(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p, err := c.PageRepo.ByID(block.PageID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	fromText, err := c.ContentRepo.RevisionText(fromID)
	if err != nil {
		http.Error(w, "Could not find 'from' revision", http.StatusInternalServerError)
		return
	}
	toText, err := c.ContentRepo.RevisionText(toID)
	if err != nil {
		http.Error(w, "Could not find 'to' revision", http.StatusInternalServerError)
		return
	}

	c.render(w, r, "diff.html", viewmodels.PageData{
		Page:    p,
		Content: block,
		Diff:    DiffHTML(fromText, toText),
	})
}

// DiffHTML renders the difference between two revision texts as
// ins/del/span markup.
func DiffHTML(from, to string) template.HTML {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(from, to, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var buff bytes.Buffer
	for _, diff := range diffs {
		var tag string
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			tag = "ins"
		case diffmatchpatch.DiffDelete:
			tag = "del"
		default:
			tag = "span"
		}
		buff.WriteString("<" + tag + ">")
		buff.WriteString(template.HTMLEscapeString(diff.Text))
		buff.WriteString("</" + tag + ">")
	}
	return template.HTML(buff.String())
}

func (c *Content) preview(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Error reading request body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	html, err := renderer.Markup(string(body))
	if err != nil {
		c.Logger.Error("preview rendering failed", zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}
