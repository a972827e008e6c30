package browser

import "github.com/vango-dev/pushroute/pkg/router"

// Entry is one session history entry.
type Entry struct {
	// State is the pushed state, nil for the entry the tab was opened on.
	State *router.State
	Title string
	URL   string
}

// History is the session history of a tab, a stack of entries with a
// cursor. It implements router.History.
type History struct {
	entries   []Entry
	index     int
	location  *Location
	listeners []func(router.HistoryEvent)
}

// NewHistory creates a history whose single entry is the current location.
func NewHistory(loc *Location) *History {
	return &History{
		entries:  []Entry{{URL: loc.Href()}},
		location: loc,
	}
}

// PushState discards any forward entries, appends a new entry and makes it
// current. It does not fire popstate.
func (h *History) PushState(state router.State, title, url string) error {
	h.entries = append(h.entries[:h.index+1], Entry{State: &state, Title: title, URL: url})
	h.index++
	h.location.set(url)
	return nil
}

// ReplaceState overwrites the current entry. It does not fire popstate.
func (h *History) ReplaceState(state router.State, title, url string) error {
	h.entries[h.index] = Entry{State: &state, Title: title, URL: url}
	h.location.set(url)
	return nil
}

// Subscribe registers fn for popstate notifications.
func (h *History) Subscribe(fn func(router.HistoryEvent)) {
	h.listeners = append(h.listeners, fn)
}

// Back moves one entry back. It reports false at the start of history.
func (h *History) Back() bool {
	return h.Go(-1)
}

// Forward moves one entry forward. It reports false at the end of history.
func (h *History) Forward() bool {
	return h.Go(1)
}

// Go moves the cursor by delta entries and fires popstate with the state of
// the entry moved to. Moves outside the stack do nothing and report false.
func (h *History) Go(delta int) bool {
	next := h.index + delta
	if delta == 0 || next < 0 || next >= len(h.entries) {
		return false
	}
	h.index = next
	entry := h.entries[next]
	h.location.set(entry.URL)

	var ev router.HistoryEvent
	if entry.State != nil {
		s := *entry.State
		ev.State = &s
	}
	for _, fn := range h.listeners {
		fn(ev)
	}
	return true
}

// Current returns the entry under the cursor.
func (h *History) Current() Entry {
	return h.entries[h.index]
}

// Top returns the most recently pushed entry, which is the last one on the
// stack.
func (h *History) Top() Entry {
	return h.entries[len(h.entries)-1]
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Index returns the cursor position.
func (h *History) Index() int {
	return h.index
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []Entry {
	return append([]Entry(nil), h.entries...)
}
