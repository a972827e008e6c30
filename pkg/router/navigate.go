package router

import (
	"fmt"
	"net/url"
)

// NavigateOptions configures navigation behavior.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Params are query parameters to add to the visible URL.
	// They do not take part in the route lookup.
	Params map[string]any
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithParams adds query parameters to the navigation URL.
func WithParams(params map[string]any) NavigateOption {
	return func(o *NavigateOptions) {
		o.Params = params
	}
}

// buildURL joins an already escaped canonical path with its query string
// and extra params.
// url.Values.Encode sorts keys, so the result is deterministic.
func buildURL(path, rawQuery string, params map[string]any) (string, error) {
	if rawQuery == "" && len(params) == 0 {
		return path, nil
	}

	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("invalid query %q: %w", rawQuery, err)
	}
	for k, v := range params {
		q.Set(k, fmt.Sprintf("%v", v))
	}
	if len(q) == 0 {
		return path, nil
	}
	return path + "?" + q.Encode(), nil
}
