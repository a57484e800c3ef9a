package tomledit

import (
	"sort"
	"strings"
)

// String serializes the document back to TOML text. Regions that were
// never touched by an edit reproduce their source bytes exactly; entries
// added programmatically serialize with conventional spacing, and fresh
// top-level tables are appended at the end of the document.
func (d *Document) String() string {
	var b strings.Builder
	writeEntries(&b, d.root.entries, nil)

	secs := collectSections(d.root, nil)
	maxPos := 0
	for _, s := range secs {
		if s.table.pos > maxPos {
			maxPos = s.table.pos
		}
	}
	for i := range secs {
		if secs[i].table.pos < 0 {
			maxPos++
			secs[i].order = maxPos
		} else {
			secs[i].order = secs[i].table.pos
		}
	}
	sort.SliceStable(secs, func(i, j int) bool { return secs[i].order < secs[j].order })

	for _, s := range secs {
		writeSection(&b, s)
	}
	b.WriteString(d.trailer)
	return b.String()
}

// section is one `[header]` or `[[header]]` occurrence scheduled for
// output, with the key path leading to it.
type section struct {
	table *Table
	path  []string // keyRaw segments from the root
	aot   bool
	order int
}

// collectSections gathers every explicit table and array-of-tables member
// beneath t, depth first. Implicit intermediates contribute only their key
// segment.
func collectSections(t *Table, path []string) []section {
	var out []section
	for _, e := range t.entries {
		switch v := e.value.(type) {
		case *Table:
			if v.dotted {
				continue
			}
			sub := append(append([]string(nil), path...), e.keyRaw)
			if v.explicit {
				out = append(out, section{table: v, path: sub})
			}
			out = append(out, collectSections(v, sub)...)
		case *ArrayOfTables:
			sub := append(append([]string(nil), path...), e.keyRaw)
			for _, member := range v.tables {
				out = append(out, section{table: member, path: sub, aot: true})
				out = append(out, collectSections(member, sub)...)
			}
		}
	}
	return out
}

func writeSection(b *strings.Builder, s section) {
	t := s.table
	if t.fresh {
		// Appended tables get a separating blank line and a synthesized
		// header from their key path.
		b.WriteString("\n[")
		b.WriteString(strings.Join(s.path, "."))
		b.WriteString("]\n")
	} else {
		b.WriteString(t.headerPre)
		if s.aot {
			b.WriteString("[[")
		} else {
			b.WriteString("[")
		}
		b.WriteString(t.headerRaw)
		if s.aot {
			b.WriteString("]]")
		} else {
			b.WriteString("]")
		}
		b.WriteString(t.headerSuf)
	}
	writeEntries(b, t.entries, nil)
}

// writeEntries emits the key-value entries of a block table, flattening
// dotted-key groups back into `a.b = v` lines. Sub-tables and arrays of
// tables are skipped; they serialize as their own sections.
func writeEntries(b *strings.Builder, entries []*tableEntry, dotted []string) {
	for _, e := range entries {
		switch v := e.value.(type) {
		case *Table:
			if v.dotted {
				writeEntries(b, v.entries, append(dotted, e.keyRaw))
			}
		case *ArrayOfTables:
			// Section, not an entry.
		default:
			b.WriteString(e.prefix)
			for _, seg := range dotted {
				b.WriteString(seg)
				b.WriteString(".")
			}
			b.WriteString(e.keyRaw)
			b.WriteString(e.eq)
			writeValue(b, e.value)
			b.WriteString(e.suffix)
		}
	}
}

func writeValue(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case *Scalar:
		b.WriteString(v.raw)
	case *Array:
		b.WriteString("[")
		for i, e := range v.elems {
			b.WriteString(e.prefix)
			writeValue(b, e.value)
			b.WriteString(e.suffix)
			if i < len(v.elems)-1 || v.trailing {
				b.WriteString(",")
			}
		}
		b.WriteString(v.close)
		b.WriteString("]")
	case *InlineTable:
		b.WriteString("{")
		if len(v.entries) == 0 {
			b.WriteString(v.open)
		} else {
			writeInlineEntries(b, v.entries, nil, true)
		}
		b.WriteString("}")
	}
}

// writeInlineEntries emits inline-table pairs, re-flattening dotted keys.
// first tracks whether a comma is still pending.
func writeInlineEntries(b *strings.Builder, entries []*tableEntry, dotted []string, first bool) bool {
	for _, e := range entries {
		if sub, ok := e.value.(*Table); ok && sub.dotted {
			first = writeInlineEntries(b, sub.entries, append(dotted, e.keyRaw), first)
			continue
		}
		if !first {
			b.WriteString(",")
		}
		first = false
		b.WriteString(e.prefix)
		for _, seg := range dotted {
			b.WriteString(seg)
			b.WriteString(".")
		}
		b.WriteString(e.keyRaw)
		b.WriteString(e.eq)
		writeValue(b, e.value)
		b.WriteString(e.suffix)
	}
	return first
}
