package viewmodels

import (
	"html/template"
	"time"

	"arbor/internal/models"
)

// Crumb is a single breadcrumb entry. The current page's crumb has no URL.
type Crumb struct {
	Title string
	URL   string
}

// PageContext carries the request-scoped data the template helpers need:
// the page being rendered and the output of application blocks, keyed by
// block id.
type PageContext struct {
	Page      *models.Page
	AppOutput map[int]template.HTML
}

// RevisionViewModel combines revision and user information for display.
type RevisionViewModel struct {
	ID        int
	CreatedAt time.Time
	Author    string
	Comment   *string
}

// SearchResult is one matched page with a text excerpt.
type SearchResult struct {
	Page    *models.Page
	Excerpt string
}

// PageData is a unified struct to hold all possible data for any view.
type PageData struct {
	SiteTitle string
	Ctx       *PageContext

	// Admin views
	PageTree  []*models.Page
	AllPages  []*models.Page
	Page      *models.Page
	Contents  []*models.Content
	Content   *models.Content
	Revisions []RevisionViewModel
	Diff      template.HTML
	Media     []*models.MediaFile

	// Search
	Query   string
	Results []SearchResult

	CurrentUser *models.User
	IsLoggedIn  bool
}
