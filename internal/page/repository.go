package page

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"arbor/internal/models"
)

const pageColumns = `id, parent_id, slug, title, language, translation_of, template_key,
	active, in_navigation, override_url, redirect_to, position, tree_id, lft, rght, level, url`

// Repository provides access to the page tree storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new page repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

func scanPage(row interface{ Scan(...any) error }) (*models.Page, error) {
	var p models.Page
	err := row.Scan(&p.ID, &p.ParentID, &p.Slug, &p.Title, &p.Language, &p.TranslationOf,
		&p.TemplateKey, &p.Active, &p.InNavigation, &p.OverrideURL, &p.RedirectTo,
		&p.Position, &p.TreeID, &p.Lft, &p.Rght, &p.Level, &p.URL)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) queryPages(query string, args ...any) ([]*models.Page, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ByID returns a page by its primary key.
func (r *Repository) ByID(id int) (*models.Page, error) {
	row := r.DB.QueryRow("SELECT "+pageColumns+" FROM pages WHERE id = ?", id)
	return scanPage(row)
}

// FindByURL returns the active page whose cached URL matches exactly.
func (r *Repository) FindByURL(url string) (*models.Page, error) {
	row := r.DB.QueryRow("SELECT "+pageColumns+" FROM pages WHERE url = ? AND active = 1", url)
	return scanPage(row)
}

// BestMatchForPath returns the active page whose cached URL is the longest
// prefix of the given request path. Used to resolve application content
// sub-paths that have no page of their own.
func (r *Repository) BestMatchForPath(path string) (*models.Page, error) {
	row := r.DB.QueryRow(
		"SELECT "+pageColumns+" FROM pages WHERE active = 1 AND ? LIKE url || '%' ORDER BY length(url) DESC LIMIT 1",
		path)
	return scanPage(row)
}

// All returns every page in tree order.
func (r *Repository) All() ([]*models.Page, error) {
	return r.queryPages("SELECT " + pageColumns + " FROM pages ORDER BY tree_id, lft")
}

// Ancestors returns the ancestors of a page, root first.
func (r *Repository) Ancestors(p *models.Page) ([]*models.Page, error) {
	return r.queryPages(
		"SELECT "+pageColumns+" FROM pages WHERE tree_id = ? AND lft < ? AND rght > ? ORDER BY lft",
		p.TreeID, p.Lft, p.Rght)
}

// AncestorAtLevel returns the ancestor of p at the given 1-based navigation
// level. When p itself sits at that level, p is returned.
func (r *Repository) AncestorAtLevel(p *models.Page, level int) (*models.Page, error) {
	if level < 1 {
		return nil, fmt.Errorf("navigation level must be >= 1, got %d", level)
	}
	if p.NavigationLevel() == level {
		return p, nil
	}
	if p.NavigationLevel() < level {
		return nil, sql.ErrNoRows
	}
	row := r.DB.QueryRow(
		"SELECT "+pageColumns+" FROM pages WHERE tree_id = ? AND lft < ? AND rght > ? AND level = ?",
		p.TreeID, p.Lft, p.Rght, level-1)
	return scanPage(row)
}

// Subtree returns p's descendants in tree order, p excluded.
func (r *Repository) Subtree(p *models.Page) ([]*models.Page, error) {
	return r.queryPages(
		"SELECT "+pageColumns+" FROM pages WHERE tree_id = ? AND lft > ? AND rght < ? ORDER BY lft",
		p.TreeID, p.Lft, p.Rght)
}

// TranslationsOf returns the pages translated from the given base page.
func (r *Repository) TranslationsOf(baseID int) ([]*models.Page, error) {
	return r.queryPages("SELECT "+pageColumns+" FROM pages WHERE translation_of = ?", baseID)
}

// Navigation returns the pages for a navigation tree. Level is the 1-based
// starting level (1 = root pages), depth the number of levels to include.
// For level > 1 the result is scoped to the branch containing current; the
// current page's ancestor one level above the starting level anchors the
// branch. Only active pages with in_navigation set appear. The returned
// slice holds the entries of the starting level with Children populated
// for deeper levels.
func (r *Repository) Navigation(current *models.Page, level, depth int) ([]*models.Page, error) {
	if level < 1 || depth < 1 {
		return nil, fmt.Errorf("invalid navigation request: level %d, depth %d", level, depth)
	}

	minLevel := level - 1
	maxLevel := minLevel + depth - 1

	var (
		pages []*models.Page
		err   error
	)
	if level == 1 {
		pages, err = r.queryPages(
			"SELECT "+pageColumns+" FROM pages WHERE active = 1 AND in_navigation = 1 AND level BETWEEN ? AND ? ORDER BY tree_id, lft",
			minLevel, maxLevel)
	} else {
		if current == nil || current.NavigationLevel() < level-1 {
			return nil, nil
		}
		anchor, aerr := r.AncestorAtLevel(current, level-1)
		if aerr != nil {
			return nil, aerr
		}
		pages, err = r.queryPages(
			"SELECT "+pageColumns+" FROM pages WHERE active = 1 AND in_navigation = 1 AND level BETWEEN ? AND ? AND tree_id = ? AND lft > ? AND rght < ? ORDER BY lft",
			minLevel, maxLevel, anchor.TreeID, anchor.Lft, anchor.Rght)
	}
	if err != nil {
		return nil, err
	}

	return assembleTree(pages, minLevel), nil
}

// assembleTree links the flat, tree-ordered page list into parent/children
// structure and returns the entries at the top level.
func assembleTree(pages []*models.Page, topLevel int) []*models.Page {
	byID := make(map[int]*models.Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}

	var top []*models.Page
	for _, p := range pages {
		if p.Level == topLevel {
			top = append(top, p)
			continue
		}
		if p.ParentID != nil {
			if parent, ok := byID[*p.ParentID]; ok {
				parent.Children = append(parent.Children, p)
			}
		}
	}
	return top
}

// Create inserts a new page and rebuilds the tree columns.
func (r *Repository) Create(ctx context.Context, p *models.Page) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO pages (parent_id, slug, title, language, translation_of, template_key,
			active, in_navigation, override_url, redirect_to, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ParentID, p.Slug, p.Title, p.Language, p.TranslationOf, p.TemplateKey,
		p.Active, p.InNavigation, p.OverrideURL, p.RedirectTo, p.Position)
	if err != nil {
		return fmt.Errorf("error creating page: %w", err)
	}
	id, _ := res.LastInsertId()
	p.ID = int(id)

	if err := r.Rebuild(ctx); err != nil {
		return err
	}
	return r.refresh(p)
}

// Update stores the mutable attributes of a page and rebuilds the tree
// columns, since slug, position and override_url all feed into them.
func (r *Repository) Update(ctx context.Context, p *models.Page) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE pages SET slug = ?, title = ?, language = ?, translation_of = ?, template_key = ?,
			active = ?, in_navigation = ?, override_url = ?, redirect_to = ?, position = ?
		 WHERE id = ?`,
		p.Slug, p.Title, p.Language, p.TranslationOf, p.TemplateKey,
		p.Active, p.InNavigation, p.OverrideURL, p.RedirectTo, p.Position, p.ID)
	if err != nil {
		return fmt.Errorf("error updating page: %w", err)
	}

	if err := r.Rebuild(ctx); err != nil {
		return err
	}
	return r.refresh(p)
}

// Move reattaches a page below a new parent at the given position.
func (r *Repository) Move(ctx context.Context, pageID int, newParentID *int, position int) error {
	if newParentID != nil {
		p, err := r.ByID(pageID)
		if err != nil {
			return err
		}
		np, err := r.ByID(*newParentID)
		if err != nil {
			return err
		}
		if p.IsEqualOrParentOf(np) {
			return fmt.Errorf("cannot move page %d below its own descendant %d", pageID, *newParentID)
		}
	}

	_, err := r.DB.ExecContext(ctx, "UPDATE pages SET parent_id = ?, position = ? WHERE id = ?",
		newParentID, position, pageID)
	if err != nil {
		return fmt.Errorf("error moving page: %w", err)
	}
	return r.Rebuild(ctx)
}

// Delete removes a page together with its subtree and contents.
func (r *Repository) Delete(ctx context.Context, pageID int) error {
	p, err := r.ByID(pageID)
	if err != nil {
		return err
	}

	subtree, err := r.Subtree(p)
	if err != nil {
		return err
	}
	ids := []any{p.ID}
	placeholders := "?"
	for _, d := range subtree {
		ids = append(ids, d.ID)
		placeholders += ", ?"
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM content_revisions WHERE content_id IN (SELECT id FROM contents WHERE page_id IN ("+placeholders+"))", ids...); err != nil {
		return fmt.Errorf("error deleting content revisions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM contents WHERE page_id IN ("+placeholders+")", ids...); err != nil {
		return fmt.Errorf("error deleting contents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE id IN ("+placeholders+")", ids...); err != nil {
		return fmt.Errorf("error deleting pages: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return r.Rebuild(ctx)
}

func (r *Repository) refresh(p *models.Page) error {
	fresh, err := r.ByID(p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Rebuild recomputes the nested-set columns and cached URLs for the whole
// tree from parent_id and position. Structural edits always touch a large
// part of the numbering, so the whole tree is renumbered in one pass.
func (r *Repository) Rebuild(ctx context.Context) error {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, parent_id, slug, position, override_url FROM pages")
	if err != nil {
		return err
	}
	defer rows.Close()

	type node struct {
		id          int
		parentID    *int
		slug        string
		position    int
		overrideURL string
	}
	var all []node
	for rows.Next() {
		var n node
		if err := rows.Scan(&n.id, &n.parentID, &n.slug, &n.position, &n.overrideURL); err != nil {
			return err
		}
		all = append(all, n)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	children := map[int][]node{}
	var roots []node
	for _, n := range all {
		if n.parentID == nil {
			roots = append(roots, n)
		} else {
			children[*n.parentID] = append(children[*n.parentID], n)
		}
	}
	byPosition := func(ns []node) {
		sort.SliceStable(ns, func(i, j int) bool {
			if ns[i].position != ns[j].position {
				return ns[i].position < ns[j].position
			}
			return ns[i].id < ns[j].id
		})
	}
	byPosition(roots)
	for _, ns := range children {
		byPosition(ns)
	}

	type update struct {
		treeID, lft, rght, level int
		url                      string
		id                       int
	}
	var updates []update

	var walk func(n node, treeID, level int, counter *int, parentURL string)
	walk = func(n node, treeID, level int, counter *int, parentURL string) {
		lft := *counter
		*counter++

		url := parentURL + n.slug + "/"
		if n.overrideURL != "" {
			url = n.overrideURL
		}

		for _, c := range children[n.id] {
			walk(c, treeID, level+1, counter, url)
		}

		rght := *counter
		*counter++
		updates = append(updates, update{treeID, lft, rght, level, url, n.id})
	}

	for i, root := range roots {
		counter := 1
		walk(root, i+1, 0, &counter, "/")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE pages SET tree_id = ?, lft = ?, rght = ?, level = ?, url = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.treeID, u.lft, u.rght, u.level, u.url, u.id); err != nil {
			return fmt.Errorf("error updating tree columns: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}
