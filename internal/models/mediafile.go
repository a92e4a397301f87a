package models

import "time"

// MediaFile represents an uploaded file.
type MediaFile struct {
	ID         int
	Filename   string
	StoredName string
	MimeType   string
	Size       int64
	CreatedAt  time.Time
}
