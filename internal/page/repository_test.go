package page

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/internal/database"
	"arbor/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return NewRepository(db)
}

func mustCreate(t *testing.T, repo *Repository, parent *models.Page, slug, title string, position int) *models.Page {
	t.Helper()
	p := &models.Page{
		Slug:         slug,
		Title:        title,
		Language:     "en",
		TemplateKey:  "base",
		Active:       true,
		InNavigation: true,
		Position:     position,
	}
	if parent != nil {
		p.ParentID = &parent.ID
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

// fixture builds:
//
//	home
//	products
//	  widgets
//	    blue
//	    red
//	  gadgets
//	about
//	  team
type fixture struct {
	home, products, widgets, blue, red, gadgets, about, team *models.Page
}

func newFixture(t *testing.T, repo *Repository) *fixture {
	f := &fixture{}
	f.home = mustCreate(t, repo, nil, "home", "Home", 0)
	f.products = mustCreate(t, repo, nil, "products", "Products", 1)
	f.widgets = mustCreate(t, repo, f.products, "widgets", "Widgets", 0)
	f.blue = mustCreate(t, repo, f.widgets, "blue", "Blue Widget", 0)
	f.red = mustCreate(t, repo, f.widgets, "red", "Red Widget", 1)
	f.gadgets = mustCreate(t, repo, f.products, "gadgets", "Gadgets", 1)
	f.about = mustCreate(t, repo, nil, "about", "About", 2)
	f.team = mustCreate(t, repo, f.about, "team", "Team", 0)

	// Reload everything so the structs carry the final tree columns.
	for _, p := range []*models.Page{f.home, f.products, f.widgets, f.blue, f.red, f.gadgets, f.about, f.team} {
		fresh, err := repo.ByID(p.ID)
		require.NoError(t, err)
		*p = *fresh
	}
	return f
}

func TestRebuildNestedSets(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	assert.Equal(t, 1, f.home.TreeID)
	assert.Equal(t, 1, f.home.Lft)
	assert.Equal(t, 2, f.home.Rght)
	assert.Equal(t, 0, f.home.Level)

	assert.Equal(t, 2, f.products.TreeID)
	assert.Equal(t, 1, f.products.Lft)
	assert.Equal(t, 10, f.products.Rght)

	assert.Equal(t, 2, f.widgets.Lft)
	assert.Equal(t, 7, f.widgets.Rght)
	assert.Equal(t, 1, f.widgets.Level)

	assert.Equal(t, 3, f.blue.Lft)
	assert.Equal(t, 4, f.blue.Rght)
	assert.Equal(t, 2, f.blue.Level)

	assert.Equal(t, 5, f.red.Lft)
	assert.Equal(t, 6, f.red.Rght)

	assert.Equal(t, 8, f.gadgets.Lft)
	assert.Equal(t, 9, f.gadgets.Rght)

	assert.Equal(t, 3, f.about.TreeID)
}

func TestCachedURLs(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	assert.Equal(t, "/home/", f.home.URL)
	assert.Equal(t, "/products/widgets/blue/", f.blue.URL)
	assert.Equal(t, "/about/team/", f.team.URL)
}

func TestOverrideURL(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	f.widgets.OverrideURL = "/shop/"
	require.NoError(t, repo.Update(context.Background(), f.widgets))

	assert.Equal(t, "/shop/", f.widgets.URL)

	// Children build on the overridden URL.
	blue, err := repo.ByID(f.blue.ID)
	require.NoError(t, err)
	assert.Equal(t, "/shop/blue/", blue.URL)
}

func TestFindByURL(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	p, err := repo.FindByURL("/products/widgets/")
	require.NoError(t, err)
	assert.Equal(t, f.widgets.ID, p.ID)

	f.widgets.Active = false
	require.NoError(t, repo.Update(context.Background(), f.widgets))

	_, err = repo.FindByURL("/products/widgets/")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBestMatchForPath(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	p, err := repo.BestMatchForPath("/products/widgets/blue/comments/3/")
	require.NoError(t, err)
	assert.Equal(t, f.blue.ID, p.ID)

	p, err = repo.BestMatchForPath("/products/unknown/")
	require.NoError(t, err)
	assert.Equal(t, f.products.ID, p.ID)
}

func TestAncestors(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	ancestors, err := repo.Ancestors(f.blue)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, f.products.ID, ancestors[0].ID)
	assert.Equal(t, f.widgets.ID, ancestors[1].ID)

	ancestors, err = repo.Ancestors(f.home)
	require.NoError(t, err)
	assert.Empty(t, ancestors)
}

func TestAncestorAtLevel(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	a, err := repo.AncestorAtLevel(f.blue, 1)
	require.NoError(t, err)
	assert.Equal(t, f.products.ID, a.ID)

	a, err = repo.AncestorAtLevel(f.blue, 2)
	require.NoError(t, err)
	assert.Equal(t, f.widgets.ID, a.ID)

	a, err = repo.AncestorAtLevel(f.blue, 3)
	require.NoError(t, err)
	assert.Equal(t, f.blue.ID, a.ID)

	_, err = repo.AncestorAtLevel(f.blue, 4)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPredicates(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	assert.True(t, f.products.IsParentOf(f.blue))
	assert.True(t, f.widgets.IsParentOf(f.blue))
	assert.False(t, f.blue.IsParentOf(f.widgets))
	assert.False(t, f.products.IsParentOf(f.products))
	assert.False(t, f.about.IsParentOf(f.blue))

	assert.True(t, f.products.IsEqualOrParentOf(f.products))
	assert.True(t, f.products.IsEqualOrParentOf(f.red))
	assert.False(t, f.home.IsEqualOrParentOf(f.red))
}

func navTitles(pages []*models.Page) []string {
	var titles []string
	for _, p := range pages {
		titles = append(titles, p.Title)
	}
	return titles
}

func TestNavigationTopLevel(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	nav, err := repo.Navigation(nil, 1, 1)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"Home", "Products", "About"}, navTitles(nav)); diff != "" {
		t.Errorf("navigation mismatch (-want +got):\n%s", diff)
	}

	// Pages excluded from navigation disappear.
	f.about.InNavigation = false
	require.NoError(t, repo.Update(context.Background(), f.about))

	nav, err = repo.Navigation(nil, 1, 1)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"Home", "Products"}, navTitles(nav)); diff != "" {
		t.Errorf("navigation mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigationBranch(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	// Second level, two levels deep, scoped to the branch holding blue.
	nav, err := repo.Navigation(f.blue, 2, 2)
	require.NoError(t, err)
	require.Len(t, nav, 2)
	assert.Equal(t, "Widgets", nav[0].Title)
	assert.Equal(t, "Gadgets", nav[1].Title)
	if diff := cmp.Diff([]string{"Blue Widget", "Red Widget"}, navTitles(nav[0].Children)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, nav[1].Children)

	// The anchor works from the branch root itself too.
	nav, err = repo.Navigation(f.products, 2, 1)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"Widgets", "Gadgets"}, navTitles(nav)); diff != "" {
		t.Errorf("navigation mismatch (-want +got):\n%s", diff)
	}

	// A branch without children yields nothing.
	nav, err = repo.Navigation(f.home, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, nav)
}

func TestMove(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.Move(ctx, f.gadgets.ID, &f.about.ID, 5))

	moved, err := repo.ByID(f.gadgets.ID)
	require.NoError(t, err)
	assert.Equal(t, "/about/gadgets/", moved.URL)
	assert.Equal(t, 1, moved.Level)

	// Moving a page below its own descendant must fail.
	err = repo.Move(ctx, f.products.ID, &f.blue.ID, 0)
	assert.Error(t, err)
}

func TestDeleteSubtree(t *testing.T) {
	repo := newTestRepo(t)
	f := newFixture(t, repo)

	require.NoError(t, repo.Delete(context.Background(), f.widgets.ID))

	_, err := repo.ByID(f.blue.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = repo.ByID(f.red.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Siblings survive and keep consistent numbering.
	gadgets, err := repo.ByID(f.gadgets.ID)
	require.NoError(t, err)
	assert.Equal(t, "/products/gadgets/", gadgets.URL)

	products, err := repo.ByID(f.products.ID)
	require.NoError(t, err)
	assert.Equal(t, products.Lft+3, products.Rght)
}
