package live

import (
	"encoding/json"

	"github.com/vango-dev/pushroute/pkg/router"
)

// Client → server operations.
const (
	OpResolve  = "resolve"
	OpNavigate = "navigate"
	OpClick    = "click"
	OpPopState = "popstate"
)

// Server → client operations.
const (
	OpRender  = "render"
	OpPush    = "push"
	OpReplace = "replace"
	OpError   = "error"
)

// Error codes carried by OpError messages.
const (
	ErrCodeBadMessage   = "bad_message"
	ErrCodeBadPath      = "bad_path"
	ErrCodeBadState     = "bad_state"
	ErrCodeUnknownOp    = "unknown_op"
	ErrCodeNavigation   = "navigation_failed"
	ErrCodeUnknownClick = "unknown_trigger"
)

// ClientMessage is a message sent by the browser.
type ClientMessage struct {
	Op string `json:"op"`

	// Path is location.pathname plus location.search for resolve, and the
	// target for navigate. Both are percent-encoded as the browser shows them.
	Path string `json:"path,omitempty"`

	// ID is the clicked element id.
	ID string `json:"id,omitempty"`

	// State is history.state of the entry popped to. It is kept raw so the
	// shape can be checked before anything is rendered.
	State json.RawMessage `json:"state,omitempty"`
}

// ServerMessage is a message sent to the browser.
type ServerMessage struct {
	Op string `json:"op"`

	// Content and Title are set for render.
	Content string `json:"content,omitempty"`
	Title   string `json:"title,omitempty"`

	// State and URL are set for push and replace.
	State *router.State `json:"state,omitempty"`
	URL   string        `json:"url,omitempty"`

	// Code and Message are set for error.
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
