package tomledit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind identifies the concrete type of a [Value].
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBool
	KindDatetime
	KindArray
	KindInlineTable
	KindTable
	KindArrayOfTables
)

// String returns the TOML name for the kind, used in schema error messages.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindDatetime:
		return "datetime"
	case KindArray:
		return "array"
	case KindInlineTable:
		return "inline table"
	case KindTable:
		return "table"
	case KindArrayOfTables:
		return "array of tables"
	}
	return "unknown"
}

// Value is a single TOML value node in a document tree.
type Value interface {
	Kind() Kind
}

// Scalar is a leaf value: a string, integer, float, boolean, or datetime.
// Scalars parsed from source keep their exact lexeme; integers, floats,
// and datetimes are carried as raw text only, since editing never needs
// their numeric interpretation.
type Scalar struct {
	kind Kind
	raw  string
	str  string // decoded value when kind == KindString
	b    bool   // decoded value when kind == KindBool
}

// NewString creates a string scalar encoded as a basic quoted string.
func NewString(s string) *Scalar {
	return &Scalar{kind: KindString, raw: encodeString(s), str: s}
}

// NewBool creates a boolean scalar.
func NewBool(v bool) *Scalar {
	raw := "false"
	if v {
		raw = "true"
	}
	return &Scalar{kind: KindBool, raw: raw, b: v}
}

// Kind implements [Value].
func (s *Scalar) Kind() Kind { return s.kind }

// Raw returns the source lexeme of the scalar.
func (s *Scalar) Raw() string { return s.raw }

// arrayElem is one array element with its surrounding decor.
type arrayElem struct {
	prefix string // decor before the value (whitespace, newlines, comments)
	value  Value
	suffix string // decor after the value, before the comma or bracket
}

// Array is an ordered sequence of values. Single- and multi-line layouts
// are both preserved; elements keep their individual comments.
type Array struct {
	elems    []*arrayElem
	close    string // decor between the last element (or bracket) and `]`
	trailing bool   // a trailing comma follows the last element
}

// NewArray creates an empty single-line array.
func NewArray() *Array { return &Array{} }

// Kind implements [Value].
func (a *Array) Kind() Kind { return KindArray }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.elems) }

// At returns the i-th element value.
func (a *Array) At(i int) Value { return a.elems[i].value }

// Append adds a value at the end of the array. The new element copies the
// layout of the last element, so multi-line arrays stay multi-line.
func (a *Array) Append(v Value) {
	prefix := ""
	if n := len(a.elems); n > 0 {
		prefix = " "
		if last := a.elems[n-1].prefix; strings.ContainsRune(last, '\n') {
			prefix = last
		}
	}
	a.elems = append(a.elems, &arrayElem{prefix: prefix, value: v})
}

// Remove deletes the i-th element along with its decor.
func (a *Array) Remove(i int) {
	a.elems = append(a.elems[:i], a.elems[i+1:]...)
	if len(a.elems) == 0 {
		a.trailing = false
		a.close = ""
	}
}

// Strings returns the decoded string values of all elements. The second
// return is false if any element is not a string.
func (a *Array) Strings() ([]string, bool) {
	out := make([]string, 0, len(a.elems))
	for _, e := range a.elems {
		s, ok := AsString(e.value)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// TableLike is the editing surface shared by [Table] and [InlineTable].
// Keys are decoded (unquoted) and ordered as written.
type TableLike interface {
	Value
	Keys() []string
	Get(key string) Value
	Set(key string, v Value)
	Remove(key string) bool
	Len() int
	SortKeys()
}

// tableEntry is one key-value pair with its decor. Block-table entries
// carry full line decor (suffix includes the newline); inline-table
// entries carry intra-line spacing only.
type tableEntry struct {
	prefix string // decor before the key
	key    string // decoded key
	keyRaw string // key as written
	eq     string // text between key and value, usually " = "
	value  Value
	suffix string // decor after the value
}

// InlineTable is a `{ key = value }` style table.
type InlineTable struct {
	entries []*tableEntry
	open    string // decor inside an empty table, between `{` and `}`
}

// NewInlineTable creates an empty inline table.
func NewInlineTable() *InlineTable { return &InlineTable{} }

// Kind implements [Value].
func (t *InlineTable) Kind() Kind { return KindInlineTable }

// Keys returns the decoded keys in written order.
func (t *InlineTable) Keys() []string { return entryKeys(t.entries) }

// Get returns the value for key, or nil if absent.
func (t *InlineTable) Get(key string) Value {
	if e := findEntry(t.entries, key); e != nil {
		return e.value
	}
	return nil
}

// Set replaces the value for an existing key, keeping its formatting, or
// appends a new entry.
func (t *InlineTable) Set(key string, v Value) {
	if e := findEntry(t.entries, key); e != nil {
		e.value = v
		return
	}
	t.entries = append(t.entries, &tableEntry{
		prefix: " ",
		key:    key,
		keyRaw: EncodeKey(key),
		eq:     " = ",
		value:  v,
	})
}

// Remove deletes the entry for key, reporting whether it was present.
func (t *InlineTable) Remove(key string) bool {
	for i, e := range t.entries {
		if e.key == key {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (t *InlineTable) Len() int { return len(t.entries) }

// SortKeys reorders the entries alphabetically by decoded key.
func (t *InlineTable) SortKeys() { sortEntries(t.entries) }

// Normalize re-applies conventional inline-table spacing: a space after
// the opening brace, `, ` between entries, ` = ` around equals, and a
// space before the closing brace. Called after field-level mutation so a
// merged table reads as if written by hand.
func (t *InlineTable) Normalize() {
	for i, e := range t.entries {
		e.prefix = " "
		e.eq = " = "
		e.suffix = ""
		if i == len(t.entries)-1 {
			e.suffix = " "
		}
	}
	t.open = ""
}

// Table is a block table: the root of a document, a `[header]` table, or
// a group of dotted keys.
type Table struct {
	entries []*tableEntry

	explicit bool // appeared literally as a [header] in the source
	dotted   bool // written as dotted keys inside the parent
	fresh    bool // created programmatically, never parsed
	pos      int  // header sequence number from parsing; -1 when fresh

	headerPre string // decor before the `[` line
	headerRaw string // exact text between the brackets
	headerSuf string // decor after `]`, through the end of the line
}

// NewTable creates an empty table that serializes as an explicit
// `[header]` section appended at the end of the document.
func NewTable() *Table {
	return &Table{explicit: true, fresh: true, pos: -1}
}

// Kind implements [Value].
func (t *Table) Kind() Kind { return KindTable }

// Keys returns the decoded keys in written order.
func (t *Table) Keys() []string { return entryKeys(t.entries) }

// Get returns the value for key, or nil if absent.
func (t *Table) Get(key string) Value {
	if e := findEntry(t.entries, key); e != nil {
		return e.value
	}
	return nil
}

// GetPath descends nested tables by decoded key, returning nil if any
// step is absent or not table-like.
func (t *Table) GetPath(path []string) Value {
	var cur Value = t
	for _, seg := range path {
		tl, ok := AsTableLike(cur)
		if !ok {
			return nil
		}
		cur = tl.Get(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Set replaces the value for an existing key, keeping its position and
// formatting, or appends a new entry at the end of the table.
func (t *Table) Set(key string, v Value) {
	if e := findEntry(t.entries, key); e != nil {
		// A header table being replaced by a plain value needs line
		// decor the header entry never had.
		if _, wasTable := e.value.(*Table); wasTable {
			if _, isTable := v.(*Table); !isTable {
				if e.eq == "" {
					e.eq = " = "
				}
				if !strings.HasSuffix(e.suffix, "\n") {
					e.suffix = "\n"
				}
			}
		}
		e.value = v
		return
	}
	t.entries = append(t.entries, &tableEntry{
		key:    key,
		keyRaw: EncodeKey(key),
		eq:     " = ",
		value:  v,
		suffix: "\n",
	})
}

// Remove deletes the entry for key, reporting whether it was present.
func (t *Table) Remove(key string) bool {
	for i, e := range t.entries {
		if e.key == key {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// SortKeys reorders the entries alphabetically by decoded key.
func (t *Table) SortKeys() { sortEntries(t.entries) }

// SetImplicit marks whether the table exists only as an intermediate of a
// deeper header, like `target` in `[target.x.dependencies]`. Implicit
// tables serialize no header of their own.
func (t *Table) SetImplicit(implicit bool) {
	t.explicit = !implicit
}

// IsImplicit reports whether the table serializes without a header.
func (t *Table) IsImplicit() bool { return !t.explicit && !t.dotted }

// entry returns the entry for key, or nil.
func (t *Table) entry(key string) *tableEntry { return findEntry(t.entries, key) }

// ArrayOfTables is a `[[header]]` sequence. Editing operations treat it
// as opaque; it is preserved verbatim.
type ArrayOfTables struct {
	tables []*Table
}

// Kind implements [Value].
func (a *ArrayOfTables) Kind() Kind { return KindArrayOfTables }

// Tables returns the member tables in document order.
func (a *ArrayOfTables) Tables() []*Table { return a.tables }

func (a *ArrayOfTables) last() *Table { return a.tables[len(a.tables)-1] }

// AsString returns the decoded string value of v, if v is a string scalar.
func AsString(v Value) (string, bool) {
	s, ok := v.(*Scalar)
	if !ok || s.kind != KindString {
		return "", false
	}
	return s.str, true
}

// AsBool returns the boolean value of v, if v is a boolean scalar.
func AsBool(v Value) (bool, bool) {
	s, ok := v.(*Scalar)
	if !ok || s.kind != KindBool {
		return false, false
	}
	return s.b, true
}

// AsArray returns v as an [Array], if it is one.
func AsArray(v Value) (*Array, bool) {
	a, ok := v.(*Array)
	return a, ok
}

// AsInlineTable returns v as an [InlineTable], if it is one.
func AsInlineTable(v Value) (*InlineTable, bool) {
	t, ok := v.(*InlineTable)
	return t, ok
}

// AsTable returns v as a [Table], if it is one.
func AsTable(v Value) (*Table, bool) {
	t, ok := v.(*Table)
	return t, ok
}

// AsTableLike returns v as a [TableLike], if it is a table of either
// style. Arrays of tables are not table-like.
func AsTableLike(v Value) (TableLike, bool) {
	switch t := v.(type) {
	case *Table:
		return t, true
	case *InlineTable:
		return t, true
	}
	return nil, false
}

// IsString reports whether v is a string scalar.
func IsString(v Value) bool {
	_, ok := AsString(v)
	return ok
}

func entryKeys(entries []*tableEntry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

func findEntry(entries []*tableEntry, key string) *tableEntry {
	for _, e := range entries {
		if e.key == key {
			return e
		}
	}
	return nil
}

func sortEntries(entries []*tableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})
}

// bareKeyRe matches keys that need no quoting.
var bareKeyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// EncodeKey renders a decoded key as TOML source: bare when possible,
// literal-quoted otherwise (matching cargo's `'cfg(unix)'` style), basic
// quoted as a last resort.
func EncodeKey(k string) string {
	if bareKeyRe.MatchString(k) {
		return k
	}
	if !strings.ContainsAny(k, "'\n") {
		return "'" + k + "'"
	}
	return encodeString(k)
}

// encodeString renders s as a TOML basic string.
func encodeString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
