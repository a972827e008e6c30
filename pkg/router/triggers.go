package router

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTrigger is returned by Dispatch for an id with no binding.
var ErrUnknownTrigger = errors.New("unknown trigger")

// Triggers maps UI trigger ids (such as the id of a clickable element) to the
// path they navigate to. One Dispatch function serves every binding.
type Triggers struct {
	router   *Router
	bindings map[string]string
}

// NewTriggers creates an empty trigger table dispatching to r.
func NewTriggers(r *Router) *Triggers {
	return &Triggers{
		router:   r,
		bindings: make(map[string]string),
	}
}

// Bind maps id to path, replacing any previous binding.
func (t *Triggers) Bind(id, path string) {
	t.bindings[id] = path
}

// Path returns the path bound to id.
func (t *Triggers) Path(id string) (string, bool) {
	p, ok := t.bindings[id]
	return p, ok
}

// IDs returns the bound ids in lexical order.
func (t *Triggers) IDs() []string {
	ids := make([]string, 0, len(t.bindings))
	for id := range t.bindings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispatch navigates to the path bound to id.
func (t *Triggers) Dispatch(id string) error {
	path, ok := t.bindings[id]
	if !ok {
		err := fmt.Errorf("dispatch %q: %w", id, ErrUnknownTrigger)
		t.router.metrics.RecordTrigger(err)
		return err
	}
	err := t.router.Navigate(path)
	t.router.metrics.RecordTrigger(err)
	return err
}
