// Package apps implements application content: pluggable applications
// embedded into CMS pages, served below the embedding page's URL.
package apps

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"arbor/internal/models"
)

var (
	ErrUnknownApp        = errors.New("unknown application")
	ErrUnknownRoute      = errors.New("unknown application route")
	ErrNotEmbedded       = errors.New("application is not embedded in any page")
	ErrMissingParam      = errors.New("missing route parameter")
	ErrAlreadyRegistered = errors.New("application already registered")
)

// Route maps a name to a path pattern below the embedding page. Patterns
// consist of literal segments and {param} placeholders, e.g. "entries/{id}/".
type Route struct {
	Name    string
	Pattern string
	Handler http.Handler
}

// Application is a named bundle of routes.
type Application struct {
	Name   string
	Routes []Route
}

// EmbeddingFinder locates the page embedding an application.
type EmbeddingFinder interface {
	PageEmbedding(appName string) (int, error)
}

// PageFinder loads pages by id.
type PageFinder interface {
	ByID(id int) (*models.Page, error)
}

// Registry holds the registered applications and reverses their URLs
// against the pages embedding them.
type Registry struct {
	mu       sync.RWMutex
	apps     map[string]*Application
	contents EmbeddingFinder
	pages    PageFinder
}

// NewRegistry creates an empty registry.
func NewRegistry(contents EmbeddingFinder, pages PageFinder) *Registry {
	return &Registry{
		apps:     map[string]*Application{},
		contents: contents,
		pages:    pages,
	}
}

// Register adds an application. Registering the same name twice is an error.
func (r *Registry) Register(app *Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.Name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, app.Name)
	}
	r.apps[app.Name] = app
	return nil
}

// Get returns a registered application.
func (r *Registry) Get(name string) (*Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApp, name)
	}
	return app, nil
}

// EmbeddingPage returns the page embedding the named application.
func (r *Registry) EmbeddingPage(appName string) (*models.Page, error) {
	if _, err := r.Get(appName); err != nil {
		return nil, err
	}
	pageID, err := r.contents.PageEmbedding(appName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotEmbedded, appName)
	}
	return r.pages.ByID(pageID)
}

// Reverse builds the absolute URL of an application route: the URL of the
// embedding page followed by the route pattern with params substituted.
func (r *Registry) Reverse(appName, routeName string, params map[string]string) (string, error) {
	app, err := r.Get(appName)
	if err != nil {
		return "", err
	}

	var route *Route
	for i := range app.Routes {
		if app.Routes[i].Name == routeName {
			route = &app.Routes[i]
			break
		}
	}
	if route == nil {
		return "", fmt.Errorf("%w: %s in %s", ErrUnknownRoute, routeName, appName)
	}

	path, err := expandPattern(route.Pattern, params)
	if err != nil {
		return "", err
	}

	embedding, err := r.EmbeddingPage(appName)
	if err != nil {
		return "", err
	}
	return embedding.URL + path, nil
}

// Match finds the route of an application matching the given sub-path and
// extracts its parameters. Sub-paths are relative to the embedding page, an
// empty sub-path matches a route with an empty pattern.
func (r *Registry) Match(appName, subpath string) (*Route, map[string]string, error) {
	app, err := r.Get(appName)
	if err != nil {
		return nil, nil, err
	}

	for i := range app.Routes {
		if params, ok := matchPattern(app.Routes[i].Pattern, subpath); ok {
			return &app.Routes[i], params, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: no route for %q in %s", ErrUnknownRoute, subpath, appName)
}

func splitPattern(pattern string) []string {
	trimmed := strings.Trim(pattern, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func expandPattern(pattern string, params map[string]string) (string, error) {
	segments := splitPattern(pattern)
	for i, seg := range segments {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			name := seg[1 : len(seg)-1]
			value, ok := params[name]
			if !ok || value == "" {
				return "", fmt.Errorf("%w: %s", ErrMissingParam, name)
			}
			segments[i] = value
		}
	}
	if len(segments) == 0 {
		return "", nil
	}
	return strings.Join(segments, "/") + "/", nil
}

func matchPattern(pattern, subpath string) (map[string]string, bool) {
	want := splitPattern(pattern)
	have := splitPattern(subpath)
	if len(want) != len(have) {
		return nil, false
	}

	params := map[string]string{}
	for i, seg := range want {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			params[seg[1:len(seg)-1]] = have[i]
			continue
		}
		if seg != have[i] {
			return nil, false
		}
	}
	return params, true
}
