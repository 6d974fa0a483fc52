package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DocumentKind selects the compilation mode for a source document.
type DocumentKind int

const (
	// KindLive compiles to a stateful, interactive component.
	KindLive DocumentKind = iota
	// KindStatic compiles to a plain render-only component.
	KindStatic
)

const (
	ExtLive   = ".svx"
	ExtStatic = ".ssvx"
)

// KindForPath maps a file extension to its document kind. The second return
// value is false for unrecognized extensions.
func KindForPath(path string) (DocumentKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtLive:
		return KindLive, true
	case ExtStatic:
		return KindStatic, true
	}
	return 0, false
}

func (k DocumentKind) String() string {
	if k == KindStatic {
		return "static"
	}
	return "live"
}

type TokenKind int

const (
	TagOpen TokenKind = iota
	TagClose
	Text
)

type AttrKind int

const (
	// AttrLiteral is a plain value, quoted or not.
	AttrLiteral AttrKind = iota
	// AttrExpr is an embedded expression value: name={expr}.
	AttrExpr
	// AttrBare is an attribute with no value at all.
	AttrBare
)

// Attr is one tag attribute in source order. Delim records the quote
// character seen at tokenize time (0 if the value was unquoted).
type Attr struct {
	Name  string
	Kind  AttrKind
	Value string
	Delim byte
}

// Token is one structural unit of a tokenized document. Name is set for tag
// tokens, Body for text tokens. Line and Col are relative to the tokenized
// text and are only used for duplicate-section diagnostics.
type Token struct {
	Kind        TokenKind
	Name        string
	Body        string
	Attrs       []Attr
	SelfClosing bool
	Line        int
	Col         int
}

// ParsedSections are the three logical regions of one source document, in
// original order. Module and Style each come from at most one contiguous
// tag region.
type ParsedSections struct {
	Path    string
	Module  []Token
	Content []Token
	Style   []Token
}

// CompiledUnit is the result of compiling one source document: the
// namespaced unit name, the synthesized source text, the reconstructed
// template, and the extracted style fragments. Diagnostic units stand in
// for documents that failed to compile; they render the error text and
// contribute no style.
type CompiledUnit struct {
	Name       string
	Kind       DocumentKind
	Source     string
	Template   string
	Style      []string
	Diagnostic bool
}

// StyleText concatenates the style fragments.
func (u CompiledUnit) StyleText() string {
	if len(u.Style) == 0 {
		return ""
	}
	return strings.Join(u.Style, "")
}

// ParseError is a structural violation in a source document, such as a
// second module or style section.
type ParseError struct {
	Path        string
	Line        int
	Col         int
	Description string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Col, e.Description)
}

type EventKind int

const (
	EventCreated EventKind = iota
	EventUpdated
	EventRemoved
)

// FileEvent is one file-system notification from the watch boundary.
type FileEvent struct {
	Path  string
	Kinds []EventKind
}
