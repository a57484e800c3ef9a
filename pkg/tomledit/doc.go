// Package tomledit provides format-preserving TOML document editing.
//
// # Overview
//
// Standard TOML decoders produce plain Go values and lose everything the
// author wrote around them: comments, blank lines, key order, string
// styles, table layout. That is fine for reading configuration but
// useless for editing a file a human maintains. This package parses TOML
// into a mutable document tree that remembers the source text of every
// node, so targeted edits re-serialize with the rest of the file
// byte-for-byte unchanged.
//
//	doc, err := tomledit.Parse(text)
//	deps, _ := tomledit.AsTableLike(doc.Root().Get("dependencies"))
//	deps.Set("serde", tomledit.NewString("1.0"))
//	out := doc.String()
//
// # Node Model
//
// A document is a tree of [Value] nodes:
//
//   - [Scalar]: strings, integers, floats, booleans, datetimes. Unmodified
//     scalars keep their exact source lexeme.
//   - [Array]: ordered values, single- or multi-line, comments preserved
//     per element.
//   - [InlineTable]: `{ k = v }` style tables.
//   - [Table]: `[header]` tables and dotted-key groups.
//   - [ArrayOfTables]: `[[header]]` sequences.
//
// [Table] and [InlineTable] both implement [TableLike], which is the
// surface editing code works against: ordered Keys, Get/Set/Remove by
// decoded key, Len, and SortKeys. Set on an existing key swaps the value
// and keeps the key's surrounding formatting; Set on a new key appends.
//
// # Formatting
//
// Every entry stores its decor: the whitespace and comments before the
// key, the spacing around `=`, and the trailing comment. Serialization
// concatenates decor and lexemes back together, so regions the edit did
// not touch come out identical to the input. Tables created
// programmatically are appended at the end of the document with a
// separating blank line, matching how cargo itself grows a manifest.
//
// [InlineTable.Normalize] re-applies conventional `{ k = v, k2 = v2 }`
// spacing after field-level mutation of an inline table.
//
// # Errors
//
// [Parse] returns a [ParseError] with the line and column of the first
// offending character for malformed input.
package tomledit
