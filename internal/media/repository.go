package media

import (
	"database/sql"
	"path/filepath"

	"github.com/google/uuid"

	"arbor/internal/models"
)

// Repository provides access to the media file storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new media repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// StoredName derives a unique on-disk name for an uploaded file.
func StoredName(filename string) string {
	return uuid.NewString() + filepath.Ext(filename)
}

// Create inserts a new media file record.
func (r *Repository) Create(f *models.MediaFile) error {
	res, err := r.DB.Exec(
		"INSERT INTO media_files (filename, stored_name, mime_type, size) VALUES (?, ?, ?, ?)",
		f.Filename, f.StoredName, f.MimeType, f.Size)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	f.ID = int(id)
	return nil
}

// ByID returns a media file by its primary key.
func (r *Repository) ByID(id int) (*models.MediaFile, error) {
	var f models.MediaFile
	err := r.DB.QueryRow(
		"SELECT id, filename, stored_name, mime_type, size, created_at FROM media_files WHERE id = ?", id).
		Scan(&f.ID, &f.Filename, &f.StoredName, &f.MimeType, &f.Size, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// List returns all media files, newest first.
func (r *Repository) List() ([]*models.MediaFile, error) {
	rows, err := r.DB.Query(
		"SELECT id, filename, stored_name, mime_type, size, created_at FROM media_files ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.MediaFile
	for rows.Next() {
		var f models.MediaFile
		if err := rows.Scan(&f.ID, &f.Filename, &f.StoredName, &f.MimeType, &f.Size, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}
