package tomledit

import (
	"fmt"
	"regexp"
	"strings"
)

// keyPart is one dotted-key segment: the source text and the decoded key.
type keyPart struct {
	raw     string
	decoded string
}

type parser struct {
	src      string
	pos      int
	line     int
	col      int
	tablePos int // sequence number assigned to each parsed header
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) at(off int) byte {
	if p.pos+off >= len(p.src) {
		return 0
	}
	return p.src[p.pos+off]
}

func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Line: p.line, Col: p.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseDocument() (*Document, error) {
	doc := NewDocument()
	current := doc.root
	for {
		decor := p.readDecor()
		if p.eof() {
			doc.trailer = decor
			return doc, nil
		}
		if p.peek() == '[' {
			t, err := p.parseHeader(doc.root, decor)
			if err != nil {
				return nil, err
			}
			current = t
			continue
		}
		if err := p.parseKeyValue(current, decor); err != nil {
			return nil, err
		}
	}
}

// readDecor consumes whitespace, newlines, and full-line comments,
// returning them verbatim.
func (p *parser) readDecor() string {
	start := p.pos
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.advance()
		case '#':
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
		default:
			return p.src[start:p.pos]
		}
	}
	return p.src[start:p.pos]
}

// inlineWS consumes spaces and tabs only.
func (p *parser) inlineWS() string {
	start := p.pos
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.advance()
	}
	return p.src[start:p.pos]
}

// readLineEnd consumes trailing whitespace, an optional comment, and the
// line's newline, returning them verbatim.
func (p *parser) readLineEnd() (string, error) {
	start := p.pos
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.advance()
	}
	if !p.eof() && p.peek() == '#' {
		for !p.eof() && p.peek() != '\n' {
			p.advance()
		}
	}
	if p.eof() {
		return p.src[start:p.pos], nil
	}
	if p.peek() == '\r' && p.at(1) == '\n' {
		p.advance()
	}
	if p.peek() != '\n' {
		return "", p.errf("expected newline")
	}
	p.advance()
	return p.src[start:p.pos], nil
}

func (p *parser) parseHeader(root *Table, pre string) (*Table, error) {
	p.advance() // '['
	aot := p.peek() == '['
	if aot {
		p.advance()
	}
	rawStart := p.pos
	parts, _, err := p.parseKeyParts()
	if err != nil {
		return nil, err
	}
	raw := p.src[rawStart:p.pos]
	if p.peek() != ']' {
		return nil, p.errf("expected `]`")
	}
	p.advance()
	if aot {
		if p.peek() != ']' {
			return nil, p.errf("expected `]]`")
		}
		p.advance()
	}
	suf, err := p.readLineEnd()
	if err != nil {
		return nil, err
	}
	p.tablePos++
	if aot {
		return p.defineArrayTable(root, parts, pre, raw, suf)
	}
	return p.defineTable(root, parts, pre, raw, suf)
}

// parseKeyParts reads a possibly dotted key. It returns the segments and
// the source offset just past the final segment, before any trailing
// whitespace.
func (p *parser) parseKeyParts() ([]keyPart, int, error) {
	var parts []keyPart
	for {
		p.inlineWS()
		part, err := p.parseKeyPart()
		if err != nil {
			return nil, 0, err
		}
		parts = append(parts, part)
		end := p.pos
		p.inlineWS()
		if p.peek() == '.' {
			p.advance()
			continue
		}
		return parts, end, nil
	}
}

func (p *parser) parseKeyPart() (keyPart, error) {
	start := p.pos
	switch p.peek() {
	case '"':
		s, err := p.parseBasicString(false)
		if err != nil {
			return keyPart{}, err
		}
		return keyPart{raw: p.src[start:p.pos], decoded: s.str}, nil
	case '\'':
		s, err := p.parseLiteralString(false)
		if err != nil {
			return keyPart{}, err
		}
		return keyPart{raw: p.src[start:p.pos], decoded: s.str}, nil
	}
	for !p.eof() && isBareChar(p.peek()) {
		p.advance()
	}
	if p.pos == start {
		return keyPart{}, p.errf("expected key")
	}
	raw := p.src[start:p.pos]
	return keyPart{raw: raw, decoded: raw}, nil
}

func isBareChar(c byte) bool {
	return c == '-' || c == '_' ||
		('0' <= c && c <= '9') || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

func (p *parser) defineTable(root *Table, parts []keyPart, pre, raw, suf string) (*Table, error) {
	t := root
	for i, part := range parts {
		last := i == len(parts)-1
		e := t.entry(part.decoded)
		if e == nil {
			nt := &Table{pos: -1}
			if last {
				nt.explicit = true
				nt.pos = p.tablePos
				nt.headerPre = pre
				nt.headerRaw = raw
				nt.headerSuf = suf
			}
			t.entries = append(t.entries, &tableEntry{key: part.decoded, keyRaw: part.raw, value: nt})
			t = nt
			continue
		}
		switch v := e.value.(type) {
		case *Table:
			if last {
				if v.explicit || v.dotted {
					return nil, p.errf("duplicate table `%s`", part.decoded)
				}
				v.explicit = true
				v.pos = p.tablePos
				v.headerPre = pre
				v.headerRaw = raw
				v.headerSuf = suf
			}
			t = v
		case *ArrayOfTables:
			if last {
				return nil, p.errf("duplicate key `%s`", part.decoded)
			}
			t = v.last()
		default:
			return nil, p.errf("key `%s` is not a table", part.decoded)
		}
	}
	return t, nil
}

func (p *parser) defineArrayTable(root *Table, parts []keyPart, pre, raw, suf string) (*Table, error) {
	t := root
	for _, part := range parts[:len(parts)-1] {
		e := t.entry(part.decoded)
		if e == nil {
			nt := &Table{pos: -1}
			t.entries = append(t.entries, &tableEntry{key: part.decoded, keyRaw: part.raw, value: nt})
			t = nt
			continue
		}
		switch v := e.value.(type) {
		case *Table:
			t = v
		case *ArrayOfTables:
			t = v.last()
		default:
			return nil, p.errf("key `%s` is not a table", part.decoded)
		}
	}
	last := parts[len(parts)-1]
	nt := &Table{explicit: true, pos: p.tablePos, headerPre: pre, headerRaw: raw, headerSuf: suf}
	if e := t.entry(last.decoded); e != nil {
		aot, ok := e.value.(*ArrayOfTables)
		if !ok {
			return nil, p.errf("duplicate key `%s`", last.decoded)
		}
		aot.tables = append(aot.tables, nt)
		return nt, nil
	}
	t.entries = append(t.entries, &tableEntry{
		key:    last.decoded,
		keyRaw: last.raw,
		value:  &ArrayOfTables{tables: []*Table{nt}},
	})
	return nt, nil
}

func (p *parser) parseKeyValue(current *Table, prefix string) error {
	parts, end, err := p.parseKeyParts()
	if err != nil {
		return err
	}
	if p.peek() != '=' {
		return p.errf("expected `=` after key")
	}
	p.advance()
	p.inlineWS()
	eq := p.src[end:p.pos]
	v, err := p.parseValue()
	if err != nil {
		return err
	}
	suffix, err := p.readLineEnd()
	if err != nil {
		return err
	}
	return p.attach(current, parts, prefix, eq, v, suffix)
}

func (p *parser) attach(t *Table, parts []keyPart, prefix, eq string, v Value, suffix string) error {
	for _, part := range parts[:len(parts)-1] {
		e := t.entry(part.decoded)
		if e == nil {
			nt := &Table{dotted: true, pos: -1}
			t.entries = append(t.entries, &tableEntry{key: part.decoded, keyRaw: part.raw, value: nt})
			t = nt
			continue
		}
		sub, ok := e.value.(*Table)
		if !ok || !sub.dotted {
			return p.errf("duplicate key `%s`", part.decoded)
		}
		t = sub
	}
	last := parts[len(parts)-1]
	if t.entry(last.decoded) != nil {
		return p.errf("duplicate key `%s`", last.decoded)
	}
	t.entries = append(t.entries, &tableEntry{
		prefix: prefix,
		key:    last.decoded,
		keyRaw: last.raw,
		eq:     eq,
		value:  v,
		suffix: suffix,
	})
	return nil
}

func (p *parser) parseValue() (Value, error) {
	switch p.peek() {
	case '"':
		return p.parseBasicString(true)
	case '\'':
		return p.parseLiteralString(true)
	case '[':
		return p.parseArray()
	case '{':
		return p.parseInlineTable()
	}
	return p.parseOther()
}

func (p *parser) parseBasicString(allowMultiline bool) (*Scalar, error) {
	start := p.pos
	p.advance() // '"'
	if p.peek() == '"' && p.at(1) == '"' {
		if !allowMultiline {
			return nil, p.errf("multi-line string not allowed here")
		}
		p.advance()
		p.advance()
		return p.parseMultilineBasic(start)
	}
	var b strings.Builder
	for {
		if p.eof() || p.peek() == '\n' {
			return nil, p.errf("unterminated string")
		}
		c := p.peek()
		if c == '"' {
			p.advance()
			break
		}
		if c == '\\' {
			p.advance()
			if err := p.parseEscape(&b, false); err != nil {
				return nil, err
			}
			continue
		}
		b.WriteByte(c)
		p.advance()
	}
	return &Scalar{kind: KindString, raw: p.src[start:p.pos], str: b.String()}, nil
}

func (p *parser) parseMultilineBasic(start int) (*Scalar, error) {
	if p.peek() == '\r' && p.at(1) == '\n' {
		p.advance()
		p.advance()
	} else if p.peek() == '\n' {
		p.advance()
	}
	var b strings.Builder
	for {
		if p.eof() {
			return nil, p.errf("unterminated string")
		}
		if p.peek() == '"' && p.at(1) == '"' && p.at(2) == '"' {
			q := 0
			for p.at(q) == '"' {
				q++
			}
			for i := 0; i < q-3; i++ {
				b.WriteByte('"')
			}
			for i := 0; i < q; i++ {
				p.advance()
			}
			break
		}
		c := p.peek()
		if c == '\\' {
			p.advance()
			if err := p.parseEscape(&b, true); err != nil {
				return nil, err
			}
			continue
		}
		b.WriteByte(c)
		p.advance()
	}
	return &Scalar{kind: KindString, raw: p.src[start:p.pos], str: b.String()}, nil
}

func (p *parser) parseLiteralString(allowMultiline bool) (*Scalar, error) {
	start := p.pos
	p.advance() // '\''
	if p.peek() == '\'' && p.at(1) == '\'' {
		if !allowMultiline {
			return nil, p.errf("multi-line string not allowed here")
		}
		p.advance()
		p.advance()
		return p.parseMultilineLiteral(start)
	}
	contentStart := p.pos
	for {
		if p.eof() || p.peek() == '\n' {
			return nil, p.errf("unterminated string")
		}
		if p.peek() == '\'' {
			break
		}
		p.advance()
	}
	str := p.src[contentStart:p.pos]
	p.advance() // closing quote
	return &Scalar{kind: KindString, raw: p.src[start:p.pos], str: str}, nil
}

func (p *parser) parseMultilineLiteral(start int) (*Scalar, error) {
	if p.peek() == '\r' && p.at(1) == '\n' {
		p.advance()
		p.advance()
	} else if p.peek() == '\n' {
		p.advance()
	}
	var b strings.Builder
	for {
		if p.eof() {
			return nil, p.errf("unterminated string")
		}
		if p.peek() == '\'' && p.at(1) == '\'' && p.at(2) == '\'' {
			q := 0
			for p.at(q) == '\'' {
				q++
			}
			for i := 0; i < q-3; i++ {
				b.WriteByte('\'')
			}
			for i := 0; i < q; i++ {
				p.advance()
			}
			break
		}
		b.WriteByte(p.peek())
		p.advance()
	}
	return &Scalar{kind: KindString, raw: p.src[start:p.pos], str: b.String()}, nil
}

func (p *parser) parseEscape(b *strings.Builder, multiline bool) error {
	if p.eof() {
		return p.errf("unterminated escape")
	}
	c := p.advance()
	switch c {
	case 'b':
		b.WriteByte('\b')
	case 't':
		b.WriteByte('\t')
	case 'n':
		b.WriteByte('\n')
	case 'f':
		b.WriteByte('\f')
	case 'r':
		b.WriteByte('\r')
	case '"':
		b.WriteByte('"')
	case '\\':
		b.WriteByte('\\')
	case 'u':
		return p.parseHexRune(4, b)
	case 'U':
		return p.parseHexRune(8, b)
	case ' ', '\t', '\r', '\n':
		if !multiline {
			return p.errf("invalid escape `\\%c`", c)
		}
		// Line-ending backslash: trim whitespace through the newline.
		for !p.eof() {
			switch p.peek() {
			case ' ', '\t', '\r', '\n':
				p.advance()
			default:
				return nil
			}
		}
	default:
		return p.errf("invalid escape `\\%c`", c)
	}
	return nil
}

func (p *parser) parseHexRune(n int, b *strings.Builder) error {
	v := 0
	for i := 0; i < n; i++ {
		d := hexVal(p.peek())
		if d < 0 {
			return p.errf("invalid unicode escape")
		}
		v = v*16 + d
		p.advance()
	}
	b.WriteRune(rune(v))
	return nil
}

func hexVal(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

func (p *parser) parseArray() (Value, error) {
	p.advance() // '['
	a := &Array{}
	for {
		pre := p.readDecor()
		if p.eof() {
			return nil, p.errf("unterminated array")
		}
		if p.peek() == ']' {
			p.advance()
			a.close = pre
			a.trailing = len(a.elems) > 0
			return a, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		suf := p.readDecor()
		if p.eof() {
			return nil, p.errf("unterminated array")
		}
		switch p.peek() {
		case ',':
			p.advance()
			a.elems = append(a.elems, &arrayElem{prefix: pre, value: v, suffix: suf})
		case ']':
			p.advance()
			a.elems = append(a.elems, &arrayElem{prefix: pre, value: v, suffix: suf})
			a.trailing = false
			return a, nil
		default:
			return nil, p.errf("expected `,` or `]` in array")
		}
	}
}

func (p *parser) parseInlineTable() (Value, error) {
	p.advance() // '{'
	t := &InlineTable{}
	prefix := p.inlineWS()
	if p.peek() == '}' {
		p.advance()
		t.open = prefix
		return t, nil
	}
	for {
		parts, end, err := p.parseKeyParts()
		if err != nil {
			return nil, err
		}
		if p.peek() != '=' {
			return nil, p.errf("expected `=` after key")
		}
		p.advance()
		p.inlineWS()
		eq := p.src[end:p.pos]
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		suffix := p.inlineWS()
		if err := p.attachInline(t, parts, prefix, eq, v, suffix); err != nil {
			return nil, err
		}
		switch p.peek() {
		case ',':
			p.advance()
			prefix = p.inlineWS()
		case '}':
			p.advance()
			return t, nil
		default:
			return nil, p.errf("expected `,` or `}` in inline table")
		}
	}
}

func (p *parser) attachInline(t *InlineTable, parts []keyPart, prefix, eq string, v Value, suffix string) error {
	if len(parts) == 1 {
		if findEntry(t.entries, parts[0].decoded) != nil {
			return p.errf("duplicate key `%s`", parts[0].decoded)
		}
		t.entries = append(t.entries, &tableEntry{
			prefix: prefix,
			key:    parts[0].decoded,
			keyRaw: parts[0].raw,
			eq:     eq,
			value:  v,
			suffix: suffix,
		})
		return nil
	}
	// Dotted key inside an inline table: nest dotted tables so the
	// logical view matches, and flatten again on output.
	cur := t.entries
	var parent *tableEntry
	for _, part := range parts[:len(parts)-1] {
		e := findEntry(cur, part.decoded)
		if e == nil {
			nt := &Table{dotted: true, pos: -1}
			e = &tableEntry{key: part.decoded, keyRaw: part.raw, value: nt}
			if parent == nil {
				t.entries = append(t.entries, e)
			} else {
				pt := parent.value.(*Table)
				pt.entries = append(pt.entries, e)
			}
		}
		sub, ok := e.value.(*Table)
		if !ok || !sub.dotted {
			return p.errf("duplicate key `%s`", part.decoded)
		}
		parent = e
		cur = sub.entries
	}
	last := parts[len(parts)-1]
	if findEntry(cur, last.decoded) != nil {
		return p.errf("duplicate key `%s`", last.decoded)
	}
	pt := parent.value.(*Table)
	pt.entries = append(pt.entries, &tableEntry{
		prefix: prefix,
		key:    last.decoded,
		keyRaw: last.raw,
		eq:     eq,
		value:  v,
		suffix: suffix,
	})
	return nil
}

func (p *parser) parseOther() (Value, error) {
	start := p.pos
	for !p.eof() && isOtherChar(p.peek()) {
		p.advance()
	}
	raw := p.src[start:p.pos]
	if raw == "" {
		return nil, p.errf("expected value")
	}
	if raw == "true" || raw == "false" {
		return &Scalar{kind: KindBool, raw: raw, b: raw == "true"}, nil
	}
	// Offset date-times may separate the date and time with a space.
	if fullDateRe.MatchString(raw) && p.peek() == ' ' &&
		isDigit(p.at(1)) && isDigit(p.at(2)) && p.at(3) == ':' {
		p.advance()
		for !p.eof() && isOtherChar(p.peek()) {
			p.advance()
		}
		raw = p.src[start:p.pos]
	}
	switch {
	case datetimeRe.MatchString(raw):
		return &Scalar{kind: KindDatetime, raw: raw}, nil
	case intRe.MatchString(raw):
		return &Scalar{kind: KindInteger, raw: raw}, nil
	case floatRe.MatchString(raw):
		return &Scalar{kind: KindFloat, raw: raw}, nil
	}
	return nil, p.errf("invalid value `%s`", raw)
}

func isOtherChar(c byte) bool {
	return c == '_' || c == '+' || c == '-' || c == '.' || c == ':' ||
		('0' <= c && c <= '9') || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

var (
	fullDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	datetimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([Tt ]\d{2}:\d{2}:\d{2}(\.\d+)?([Zz]|[+-]\d{2}:\d{2})?)?$|^\d{2}:\d{2}:\d{2}(\.\d+)?$`)
	intRe      = regexp.MustCompile(`^[+-]?(0[xX][0-9A-Fa-f_]+|0[oO][0-7_]+|0[bB][01_]+|\d[\d_]*)$`)
	floatRe    = regexp.MustCompile(`^[+-]?(\d[\d_]*(\.\d[\d_]*)?([eE][+-]?\d[\d_]*)?|inf|nan)$`)
)
