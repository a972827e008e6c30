// Package site describes a complete route set (routes, default route,
// not-found page and click triggers) and mounts it onto routers.
//
// A Site is immutable once built and may be shared by many routers, one per
// browser tab.
package site

import (
	"fmt"

	"github.com/vango-dev/pushroute/pkg/router"
)

// Route is a path with its resolved content.
type Route struct {
	Path    string
	Title   string
	Content string
}

// Trigger binds a clickable element id to a path.
type Trigger struct {
	ID   string
	Path string
}

// Site is a declarative route set.
type Site struct {
	Name     string
	Routes   []Route
	Default  string
	NotFound string
	Triggers []Trigger
}

// RouterOptions returns the router options implied by the site. Pass them to
// router.New along with any of your own.
func (s *Site) RouterOptions() []router.Option {
	if s.NotFound == "" {
		return nil
	}
	return []router.Option{router.WithNotFound(s.NotFound)}
}

// Mount registers the routes on r, sets the default route and returns the
// trigger table. Routes are registered before the default is set, so the
// default must be one of them.
func (s *Site) Mount(r *router.Router) (*router.Triggers, error) {
	for _, rt := range s.Routes {
		r.RegisterTitled(rt.Path, rt.Title, rt.Content)
	}
	if s.Default != "" {
		if err := r.SetDefault(s.Default); err != nil {
			return nil, fmt.Errorf("mount site %q: %w", s.Name, err)
		}
	}

	t := router.NewTriggers(r)
	for _, tr := range s.Triggers {
		t.Bind(tr.ID, tr.Path)
	}
	return t, nil
}

// Lookup returns the route registered under path, comparing paths verbatim.
func (s *Site) Lookup(path string) (Route, bool) {
	for _, rt := range s.Routes {
		if rt.Path == path {
			return rt, true
		}
	}
	return Route{}, false
}
