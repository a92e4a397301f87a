// Package translation resolves pages across site languages.
package translation

import (
	"database/sql"
	"errors"

	"arbor/internal/config"
	"arbor/internal/models"
	"arbor/internal/page"
)

// ErrTranslationMissing is returned when a page has no version in the
// requested language.
var ErrTranslationMissing = errors.New("translation missing")

// Link modes for LanguageLinks.
const (
	ModeAll            = "all"
	ModeExisting       = "existing"
	ModeExcludeCurrent = "excludecurrent"
)

// LanguageLink pairs a site language with the matching page translation.
// Page is nil when no translation exists.
type LanguageLink struct {
	Code string
	Name string
	Page *models.Page
}

// Resolver looks up page translations. Lookup is symmetric: it works from
// the base page as well as from any of its translations.
type Resolver struct {
	pages     *page.Repository
	languages []config.Language
}

// NewResolver creates a resolver for the configured site languages.
func NewResolver(pages *page.Repository, languages []config.Language) *Resolver {
	return &Resolver{pages: pages, languages: languages}
}

// base returns the base (original language) page of p.
func (r *Resolver) base(p *models.Page) (*models.Page, error) {
	if p.TranslationOf == nil {
		return p, nil
	}
	return r.pages.ByID(*p.TranslationOf)
}

// Translations returns every language version of p, the base page included.
func (r *Resolver) Translations(p *models.Page) ([]*models.Page, error) {
	base, err := r.base(p)
	if err != nil {
		return nil, err
	}

	versions, err := r.pages.TranslationsOf(base.ID)
	if err != nil {
		return nil, err
	}
	return append([]*models.Page{base}, versions...), nil
}

// ForLanguage returns p's version in the given language.
// Returns ErrTranslationMissing when none exists.
func (r *Resolver) ForLanguage(p *models.Page, lang string) (*models.Page, error) {
	versions, err := r.Translations(p)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.Language == lang {
			return v, nil
		}
	}
	return nil, ErrTranslationMissing
}

// ForLanguageOrBase resolves like ForLanguage but falls back to the base
// page when the requested language is missing.
func (r *Resolver) ForLanguageOrBase(p *models.Page, lang string) (*models.Page, error) {
	translated, err := r.ForLanguage(p, lang)
	if err == nil {
		return translated, nil
	}
	if !errors.Is(err, ErrTranslationMissing) {
		return nil, err
	}
	return r.base(p)
}

// LanguageLinks returns one entry per configured site language, in
// configuration order. Mode controls filtering: ModeExisting drops
// languages without a translation, ModeExcludeCurrent drops p's own
// language, and ModeAll keeps everything (Page nil when missing).
func (r *Resolver) LanguageLinks(p *models.Page, mode string) ([]LanguageLink, error) {
	versions, err := r.Translations(p)
	if err != nil {
		return nil, err
	}
	byLang := make(map[string]*models.Page, len(versions))
	for _, v := range versions {
		byLang[v.Language] = v
	}

	var links []LanguageLink
	for _, lang := range r.languages {
		if mode == ModeExcludeCurrent && lang.Code == p.Language {
			continue
		}
		translated := byLang[lang.Code]
		if translated == nil && mode == ModeExisting {
			continue
		}
		links = append(links, LanguageLink{Code: lang.Code, Name: lang.Name, Page: translated})
	}
	return links, nil
}

// IsMissing reports whether err signals an absent translation, whichever
// layer produced it.
func IsMissing(err error) bool {
	return errors.Is(err, ErrTranslationMissing) || errors.Is(err, sql.ErrNoRows)
}
