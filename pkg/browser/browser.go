// Package browser is a headless, in-memory stand-in for the parts of a web
// browser a router talks to: the address bar, the document and the session
// history.
//
// It exists so routers can be driven deterministically in tests and from the
// command line:
//
//	w := browser.NewWindow("/", "about", "home")
//	r := w.NewRouter()
//	r.Register("/about", "<div>About me</div>")
//	r.Navigate("/about")
//	w.Document.Content() // "<div>About me</div>"
//	w.History.Back()     // fires popstate
package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vango-dev/pushroute/pkg/router"
)

// ContentID is the id of the display region routers render into.
const ContentID = "content"

// ErrNoElement is returned when an element id is not in the document.
var ErrNoElement = errors.New("no such element")

// Location is the address bar.
type Location struct {
	path  string
	query string
}

// NewLocation creates a location showing url.
func NewLocation(url string) *Location {
	l := &Location{}
	l.set(url)
	return l
}

// Path implements router.Location. It returns the pathname only.
func (l *Location) Path() string {
	return l.path
}

// Search returns the query string without the leading "?".
func (l *Location) Search() string {
	return l.query
}

// Href returns the pathname with any query string.
func (l *Location) Href() string {
	if l.query == "" {
		return l.path
	}
	return l.path + "?" + l.query
}

func (l *Location) set(url string) {
	path, query, _ := strings.Cut(url, "?")
	if path == "" {
		path = "/"
	}
	l.path, l.query = path, query
}

// Element is a document element addressable by id.
type Element struct {
	ID        string
	InnerHTML string

	listeners []func() error
}

// Document holds the page elements and the document title.
type Document struct {
	Title string

	elements map[string]*Element
}

// NewDocument creates a document containing elements with the given ids.
func NewDocument(ids ...string) *Document {
	d := &Document{elements: make(map[string]*Element)}
	for _, id := range ids {
		d.AddElement(id)
	}
	return d
}

// AddElement adds an empty element, or returns the existing one.
func (d *Document) AddElement(id string) *Element {
	if el, ok := d.elements[id]; ok {
		return el
	}
	el := &Element{ID: id}
	d.elements[id] = el
	return el
}

// GetElementByID returns the element with id, or nil.
func (d *Document) GetElementByID(id string) *Element {
	return d.elements[id]
}

// Content returns the markup of the display region.
func (d *Document) Content() string {
	if el := d.elements[ContentID]; el != nil {
		return el.InnerHTML
	}
	return ""
}

// AddEventListener registers fn to run when the element is clicked.
func (d *Document) AddEventListener(id string, fn func() error) error {
	el := d.elements[id]
	if el == nil {
		return fmt.Errorf("add listener to %q: %w", id, ErrNoElement)
	}
	el.listeners = append(el.listeners, fn)
	return nil
}

// Click runs the click listeners of the element in registration order and
// returns their joined errors.
func (d *Document) Click(id string) error {
	el := d.elements[id]
	if el == nil {
		return fmt.Errorf("click %q: %w", id, ErrNoElement)
	}
	var errs []error
	for _, fn := range el.listeners {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Window bundles a location, document and history into one tab.
type Window struct {
	Location *Location
	Document *Document
	History  *History
}

// NewWindow opens a tab at url. The document always contains the display
// region; ids adds further (clickable) elements.
func NewWindow(url string, ids ...string) *Window {
	loc := NewLocation(url)
	return &Window{
		Location: loc,
		Document: NewDocument(append([]string{ContentID}, ids...)...),
		History:  NewHistory(loc),
	}
}

// Renderer returns a router.Renderer that writes into the element with id
// and sets the document title.
func (w *Window) Renderer(id string) router.Renderer {
	return router.RenderFunc(func(content, title string) error {
		el := w.Document.GetElementByID(id)
		if el == nil {
			return fmt.Errorf("render into %q: %w", id, ErrNoElement)
		}
		el.InnerHTML = content
		w.Document.Title = title
		return nil
	})
}

// NewRouter creates a router rendering into the display region of w.
func (w *Window) NewRouter(opts ...router.Option) *router.Router {
	return router.New(w.Location, w.Renderer(ContentID), w.History, opts...)
}

// BindTriggers makes every trigger id in t clickable: a click on the element
// with that id dispatches the trigger. Missing elements are added.
func (w *Window) BindTriggers(t *router.Triggers) error {
	for _, id := range t.IDs() {
		w.Document.AddElement(id)
		id := id
		if err := w.Document.AddEventListener(id, func() error {
			return t.Dispatch(id)
		}); err != nil {
			return err
		}
	}
	return nil
}
