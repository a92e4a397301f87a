package controller

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"arbor/internal/config"
	"arbor/internal/media"
	"arbor/internal/models"
	"arbor/internal/web/viewmodels"
)

// Misc provides media upload and listing handlers.
type Misc struct {
	Cfg       *config.Config
	MediaRepo *media.Repository
	Templates Templates
	Logger    *zap.Logger
}

// Register registers the misc routes.
func (m *Misc) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/media", m.list)
	mux.HandleFunc("POST /admin/upload", m.upload)
}

func (m *Misc) list(w http.ResponseWriter, r *http.Request) {
	files, err := m.MediaRepo.List()
	if err != nil {
		m.Logger.Error("listing media failed", zap.Error(err))
		http.Error(w, "Internal Server Error", 500)
		return
	}
	tmpl, ok := m.Templates("media.html")
	if !ok {
		http.Error(w, "Internal Server Error", 500)
		return
	}
	data := viewmodels.PageData{SiteTitle: m.Cfg.Site.Title, Media: files, IsLoggedIn: true}
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		m.Logger.Error("template execution failed", zap.String("key", "media.html"), zap.Error(err))
	}
}

func (m *Misc) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "The uploaded file is too big.", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error retrieving the file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	storedName := media.StoredName(handler.Filename)

	dst, err := os.Create(filepath.Join(m.Cfg.Site.UploadsDir, storedName))
	if err != nil {
		http.Error(w, "Error saving the file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		http.Error(w, "Error writing the file", http.StatusInternalServerError)
		return
	}

	f := &models.MediaFile{
		Filename:   handler.Filename,
		StoredName: storedName,
		MimeType:   handler.Header.Get("Content-Type"),
		Size:       handler.Size,
	}
	if err := m.MediaRepo.Create(f); err != nil {
		m.Logger.Error("saving media file failed", zap.Error(err))
		http.Error(w, "Error saving file metadata", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"id": %d, "url": "/uploads/%s"}`, f.ID, storedName)
}
