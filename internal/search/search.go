// Package search provides plain-text search over page contents.
package search

import (
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"arbor/internal/models"
	"arbor/internal/page"
)

const excerptRadius = 80

// Result is one matched page with a text excerpt around the query.
type Result struct {
	Page    *models.Page
	Excerpt string
}

// Searcher matches a query against the text of content blocks.
type Searcher struct {
	DB    *sql.DB
	Pages *page.Repository
}

// NewSearcher creates a searcher.
func NewSearcher(db *sql.DB, pages *page.Repository) *Searcher {
	return &Searcher{DB: db, Pages: pages}
}

// Search returns the active pages whose text blocks contain the query,
// in tree order, one result per page.
func (s *Searcher) Search(query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	rows, err := s.DB.Query(
		`SELECT c.page_id, c.text, c.kind FROM contents c
		 JOIN pages p ON p.id = c.page_id
		 WHERE p.active = 1 AND c.kind IN (?, ?) AND c.text LIKE '%' || ? || '%' ESCAPE '\'
		 ORDER BY p.tree_id, p.lft, c.ordering`,
		models.ContentRichText, models.ContentMarkup, escapeLike(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type hit struct {
		text, kind string
	}
	var order []int
	hits := map[int]hit{}
	for rows.Next() {
		var pageID int
		var h hit
		if err := rows.Scan(&pageID, &h.text, &h.kind); err != nil {
			return nil, err
		}
		if _, seen := hits[pageID]; !seen {
			hits[pageID] = h
			order = append(order, pageID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []Result
	for _, pageID := range order {
		p, err := s.Pages.ByID(pageID)
		if err != nil {
			return nil, err
		}
		h := hits[pageID]
		text := h.text
		if h.kind == models.ContentRichText {
			if plain, err := Extract(text); err == nil {
				text = plain
			}
		}
		results = append(results, Result{Page: p, Excerpt: Excerpt(text, query)})
	}
	return results, nil
}

// escapeLike escapes the LIKE wildcards so queries match them literally.
var escapeLike = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace

// Extract returns the visible text of an HTML fragment with whitespace
// collapsed.
func Extract(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// Excerpt cuts a window of text around the first occurrence of the query.
func Excerpt(text, query string) string {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 || idx > len(text) {
		if len(text) > 2*excerptRadius {
			return text[:snapToRuneStart(text, 2*excerptRadius)] + "…"
		}
		return text
	}
	idx = snapToRuneStart(text, idx)

	start := snapToRuneStart(text, idx-excerptRadius)
	end := idx + len(query) + excerptRadius
	if end > len(text) {
		end = len(text)
	} else {
		end = snapToRuneStart(text, end)
	}

	excerpt := text[start:end]
	if start > 0 {
		excerpt = "…" + excerpt
	}
	if end < len(text) {
		excerpt += "…"
	}
	return excerpt
}

// snapToRuneStart moves a byte offset back onto a rune boundary so the
// excerpt window never splits a multi-byte rune.
func snapToRuneStart(s string, i int) int {
	if i <= 0 {
		return 0
	}
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
