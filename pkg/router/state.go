package router

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Validate checks that s has the shape the router pushes.
func (s *State) Validate() error {
	if s == nil {
		return nil
	}
	if s.Title == "" {
		return fmt.Errorf("%w: empty title", ErrMalformedState)
	}
	return nil
}

// ParseState decodes a history state payload received from outside the
// process. A JSON null decodes to a nil state. Anything other than an object
// with string "content" and "title" members is rejected.
func ParseState(raw []byte) (*State, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	var s State
	for name, dst := range map[string]*string{"content": &s.Content, "title": &s.Title} {
		v, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedState, name)
		}
		if bytes.Equal(v, []byte("null")) || json.Unmarshal(v, dst) != nil {
			return nil, fmt.Errorf("%w: %q is not a string", ErrMalformedState, name)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
