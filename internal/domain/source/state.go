package source

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags one of the three fragments
type Kind string

const (
	Markup Kind = "html"
	Style  Kind = "css"
	Script Kind = "javascript"
)

// ErrUnknownKind is returned when a fragment tag is outside the closed set
var ErrUnknownKind = errors.New("unknown fragment kind")

var kinds = []Kind{Markup, Style, Script}

// Kinds returns the fragment kinds in editor tab order
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// ParseKind accepts the canonical tags plus the usual file extensions
// ("html", "css", "js") and editor file names ("index.html", "style.css",
// "script.js").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "markup", "index.html":
		return Markup, nil
	case "css", "style", "style.css":
		return Style, nil
	case "javascript", "js", "script", "script.js":
		return Script, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Valid reports whether k is one of the three fragment kinds
func (k Kind) Valid() bool {
	return k == Markup || k == Style || k == Script
}

// FileName returns the editor tab file name for the fragment
func (k Kind) FileName() string {
	switch k {
	case Markup:
		return "index.html"
	case Style:
		return "style.css"
	case Script:
		return "script.js"
	}
	return ""
}

// State holds one text per fragment kind. The zero value is a valid state of
// three empty fragments.
type State struct {
	Markup string `json:"html" yaml:"html" toml:"html"`
	Style  string `json:"css" yaml:"css" toml:"css"`
	Script string `json:"javascript" yaml:"javascript" toml:"javascript"`
}

// Get returns the text of one fragment
func (s State) Get(k Kind) string {
	switch k {
	case Markup:
		return s.Markup
	case Style:
		return s.Style
	case Script:
		return s.Script
	}
	return ""
}

// With returns a copy of s with exactly one fragment replaced. An unknown
// kind returns s unchanged.
func (s State) With(k Kind, text string) State {
	switch k {
	case Markup:
		s.Markup = text
	case Style:
		s.Style = text
	case Script:
		s.Script = text
	}
	return s
}
