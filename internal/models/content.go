package models

import "time"

// Content block kinds.
const (
	ContentRichText    = "richtext"
	ContentMarkup      = "markup"
	ContentMediaFile   = "mediafile"
	ContentApplication = "application"
)

// Content is a single content block placed into a named region of a page.
// Blocks within a region are ordered by Ordering.
type Content struct {
	ID       int
	PageID   int
	Region   string
	Ordering int
	Kind     string

	// Text holds HTML for richtext blocks and org source for markup blocks.
	Text        string
	MediaFileID *int
	AppName     string
}

// ContentRevision is a stored version of a text-carrying content block.
type ContentRevision struct {
	ID        int
	ContentID int
	Text      string
	AuthorID  int
	Comment   *string
	CreatedAt time.Time
}
