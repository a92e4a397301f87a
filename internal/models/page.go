package models

// Page represents a single node in the site's page tree.
//
// TreeID, Lft, Rght and Level are nested-set columns maintained by the page
// repository whenever the tree structure changes. URL is the cached absolute
// URL of the page (parent URL + own slug), unless OverrideURL is set.
type Page struct {
	ID            int
	ParentID      *int
	Slug          string
	Title         string
	Language      string
	TranslationOf *int
	TemplateKey   string
	Active        bool
	InNavigation  bool
	OverrideURL   string
	RedirectTo    string
	Position      int

	TreeID int
	Lft    int
	Rght   int
	Level  int
	URL    string

	Children []*Page
}

// IsParentOf reports whether p is a strict ancestor of other.
func (p *Page) IsParentOf(other *Page) bool {
	if other == nil {
		return false
	}
	return p.TreeID == other.TreeID && p.Lft < other.Lft && p.Rght > other.Rght
}

// IsEqualOrParentOf reports whether p is other itself or one of its ancestors.
func (p *Page) IsEqualOrParentOf(other *Page) bool {
	if other == nil {
		return false
	}
	return p.TreeID == other.TreeID && p.Lft <= other.Lft && p.Rght >= other.Rght
}

// NavigationLevel is the 1-based level used by the navigation helpers,
// where 1 means a root page.
func (p *Page) NavigationLevel() int {
	return p.Level + 1
}
