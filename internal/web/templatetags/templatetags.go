// Package templatetags provides the helper functions available inside page
// templates: region rendering, navigation, breadcrumbs, translation links
// and application URL reversal.
package templatetags

import (
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"arbor/internal/apps"
	"arbor/internal/content"
	"arbor/internal/models"
	"arbor/internal/page"
	"arbor/internal/translation"
	"arbor/internal/web/renderer"
	"arbor/internal/web/viewmodels"
)

// Helpers bundles the dependencies behind the template FuncMap.
type Helpers struct {
	Pages        *page.Repository
	Contents     *content.Repository
	Translations *translation.Resolver
	Apps         *apps.Registry
	Renderer     *renderer.Renderer
}

// FuncMap returns the helper functions for html/template.
func (h *Helpers) FuncMap() template.FuncMap {
	return template.FuncMap{
		"renderRegion":         h.RenderRegion,
		"renderContent":        h.RenderContent,
		"nav":                  h.Nav,
		"parentLink":           h.ParentLink,
		"languageLinks":        h.LanguageLinks,
		"translatedPage":       h.TranslatedPage,
		"translatedPageOrBase": h.TranslatedPageOrBase,
		"breadcrumbs":          h.Breadcrumbs,
		"isParentOf":           h.IsParentOf,
		"isEqualOrParentOf":    h.IsEqualOrParentOf,
		"appURL":               h.AppURL,
	}
}

// RenderRegion renders all blocks of the named region of the current page,
// concatenated in their stored order.
func (h *Helpers) RenderRegion(ctx *viewmodels.PageContext, region string) (template.HTML, error) {
	blocks, err := h.Contents.ListByRegion(ctx.Page.ID, region)
	if err != nil {
		return "", fmt.Errorf("error loading region %q: %w", region, err)
	}

	var b strings.Builder
	for _, block := range blocks {
		html, err := h.Renderer.RenderContent(block, ctx.AppOutput)
		if err != nil {
			return "", err
		}
		b.WriteString(string(html))
	}
	return template.HTML(b.String()), nil
}

// RenderContent renders a single block.
func (h *Helpers) RenderContent(ctx *viewmodels.PageContext, block *models.Content) (template.HTML, error) {
	return h.Renderer.RenderContent(block, ctx.AppOutput)
}

// Nav returns the navigation entries starting at the given 1-based level,
// depth levels deep. For level > 1 the branch containing the current page
// anchors the result.
func (h *Helpers) Nav(current *models.Page, level, depth int) ([]*models.Page, error) {
	return h.Pages.Navigation(current, level, depth)
}

// ParentLink returns the URL of the ancestor of page at the given level.
// When the page itself sits at that level its own URL is returned; "#" is
// returned when no such ancestor exists.
func (h *Helpers) ParentLink(p *models.Page, level int) (string, error) {
	ancestor, err := h.Pages.AncestorAtLevel(p, level)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "#", nil
		}
		return "", err
	}
	return ancestor.URL, nil
}

// LanguageLinks returns one entry per site language for the language
// switcher. Mode is one of "all", "existing" or "excludecurrent".
func (h *Helpers) LanguageLinks(p *models.Page, mode string) ([]translation.LanguageLink, error) {
	return h.Translations.LanguageLinks(p, mode)
}

// TranslatedPage resolves the version of page in the given language, nil
// when none exists.
func (h *Helpers) TranslatedPage(p *models.Page, lang string) (*models.Page, error) {
	translated, err := h.Translations.ForLanguage(p, lang)
	if err != nil {
		if translation.IsMissing(err) {
			return nil, nil
		}
		return nil, err
	}
	return translated, nil
}

// TranslatedPageOrBase resolves like TranslatedPage but falls back to the
// base page when the language is missing.
func (h *Helpers) TranslatedPageOrBase(p *models.Page, lang string) (*models.Page, error) {
	return h.Translations.ForLanguageOrBase(p, lang)
}

// Breadcrumbs returns the ancestors of page plus the page itself. The final
// crumb carries no URL.
func (h *Helpers) Breadcrumbs(p *models.Page) ([]viewmodels.Crumb, error) {
	ancestors, err := h.Pages.Ancestors(p)
	if err != nil {
		return nil, err
	}

	crumbs := make([]viewmodels.Crumb, 0, len(ancestors)+1)
	for _, a := range ancestors {
		crumbs = append(crumbs, viewmodels.Crumb{Title: a.Title, URL: a.URL})
	}
	return append(crumbs, viewmodels.Crumb{Title: p.Title}), nil
}

// IsParentOf reports whether a is a strict ancestor of b.
func (h *Helpers) IsParentOf(a, b *models.Page) bool {
	return a != nil && a.IsParentOf(b)
}

// IsEqualOrParentOf reports whether a is b or one of b's ancestors. Used to
// highlight the active navigation entry.
func (h *Helpers) IsEqualOrParentOf(a, b *models.Page) bool {
	return a != nil && a.IsEqualOrParentOf(b)
}

// AppURL reverses an application route. Parameters are given as alternating
// name/value pairs: {{ appURL "news" "detail" "id" .Entry.ID }}.
func (h *Helpers) AppURL(appName, routeName string, pairs ...any) (string, error) {
	if len(pairs)%2 != 0 {
		return "", fmt.Errorf("appURL: parameters must come in name/value pairs, got %d values", len(pairs))
	}
	params := make(map[string]string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return "", fmt.Errorf("appURL: parameter name %v is not a string", pairs[i])
		}
		params[name] = fmt.Sprint(pairs[i+1])
	}
	return h.Apps.Reverse(appName, routeName, params)
}
