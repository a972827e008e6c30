// Package routepath normalizes route paths so that every spelling of a path
// maps to a single route table key.
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Root is the canonical root path.
const Root = "/"

// Path canonicalization errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Result is a canonicalized path split from its query string.
type Result struct {
	// Path is the canonical path, always starting with "/".
	Path string

	// Query is the raw query string without the leading "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// Canonicalize normalizes a route path:
//   - an empty input is the root path
//   - a missing leading slash is added
//   - repeated slashes collapse to one
//   - "." segments are dropped and ".." segments pop their parent
//   - a trailing slash is removed (except for "/")
//   - each segment is percent-encoded in one form: "/café", "/caf%c3%a9"
//     and "/caf%C3%A9" are all "/caf%C3%A9"
//
// Backslashes, NUL bytes, malformed percent escapes and ".." segments that
// climb above the root are rejected. Any query string is split off untouched.
func Canonicalize(input string) (Result, error) {
	if input == "" {
		return Result{Path: Root, Changed: true}, nil
	}

	raw, query, _ := strings.Cut(input, "?")

	if strings.ContainsRune(raw, '\\') {
		return Result{}, ErrBackslashInPath
	}
	if strings.ContainsRune(raw, 0) || strings.Contains(strings.ToUpper(raw), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.ContainsRune(raw, '%') {
		if err := checkEscapes(raw); err != nil {
			return Result{}, err
		}
	}

	segments := make([]string, 0, strings.Count(raw, "/")+1)
	for _, seg := range strings.Split(raw, "/") {
		// Escapes were checked above, so unescaping cannot fail.
		dec, _ := url.PathUnescape(seg)
		switch dec {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, url.PathEscape(dec))
		}
	}

	path := Root + strings.Join(segments, "/")
	return Result{Path: path, Query: query, Changed: path != raw}, nil
}

// Clean returns only the canonical path of input.
func Clean(input string) (string, error) {
	res, err := Canonicalize(input)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// NavTarget validates a navigation target received from an untrusted
// client and returns its canonical path with the query string reattached.
// Targets must be site-relative: absolute and protocol-relative urls are
// rejected.
func NavTarget(target string) (string, error) {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "", ErrInvalidPath
	}
	res, err := Canonicalize(target)
	if err != nil {
		return "", err
	}
	if res.Query != "" {
		return res.Path + "?" + res.Query, nil
	}
	return res.Path, nil
}

// IsRoot reports whether input canonicalizes to the root path.
func IsRoot(input string) bool {
	path, err := Clean(input)
	return err == nil && path == Root
}

func checkEscapes(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
