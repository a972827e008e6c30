package router

// State is a navigation entry recorded in the history stack.
// It carries everything needed to redraw the page on back/forward, so a
// replay never consults the route table.
type State struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

// HistoryEvent is a back/forward notification from the history stack.
// State is nil when the entry being restored was not pushed by a router
// (for example the initial page entry).
type HistoryEvent struct {
	State *State
}

// Location reads the current navigation path (the address bar pathname).
type Location interface {
	Path() string
}

// SearchLocation is a Location that also exposes the query string, without
// the leading "?". ResolveCurrent keeps the query when the Location
// implements it.
type SearchLocation interface {
	Location
	Search() string
}

// LocationFunc is a function adapter for Location.
type LocationFunc func() string

// Path implements Location.
func (f LocationFunc) Path() string {
	return f()
}

// Renderer writes content into the display region and sets the document
// title.
type Renderer interface {
	Render(content, title string) error
}

// RenderFunc is a function adapter for Renderer.
type RenderFunc func(content, title string) error

// Render implements Renderer.
func (f RenderFunc) Render(content, title string) error {
	return f(content, title)
}

// History is the external navigation history stack.
type History interface {
	// PushState appends an entry and makes url the visible address.
	PushState(state State, title, url string) error

	// ReplaceState overwrites the current entry.
	ReplaceState(state State, title, url string) error

	// Subscribe registers fn to be called on every back/forward transition.
	Subscribe(fn func(HistoryEvent))
}
