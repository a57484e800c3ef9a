package tomledit

import "fmt"

// Document is a parsed TOML file: a root table of key-value pairs plus
// the ordered `[header]` sections nested beneath it, with enough source
// decor retained to serialize untouched regions byte-for-byte.
type Document struct {
	root    *Table
	trailer string // whitespace and comments after the last element
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{root: &Table{pos: -1}}
}

// Parse reads TOML text into a document tree. Malformed input returns a
// [ParseError] locating the first offending character.
func Parse(text string) (*Document, error) {
	p := &parser{src: text, line: 1, col: 1}
	return p.parseDocument()
}

// Root returns the document's root table. Top-level key-value pairs and
// every `[header]` section are entries of the root.
func (d *Document) Root() *Table { return d.root }

// Get returns the top-level value for key, or nil if absent.
func (d *Document) Get(key string) Value { return d.root.Get(key) }

// GetPath descends nested tables from the root by decoded key, returning
// nil if any step is absent or not table-like.
func (d *Document) GetPath(path []string) Value { return d.root.GetPath(path) }

// ParseError describes a TOML syntax error with its source location.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Col, e.Msg)
}
