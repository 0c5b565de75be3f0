package models

import "strings"

// Field is one column of a parsed row.
type Field struct {
	Name  string
	Value string
}

// Row is one data line of an import file: the header names paired with the
// line's values, in header order. Lookups by column name ignore case.
// A Row is immutable once built.
type Row struct {
	line   int
	fields []Field
	index  map[string]int
}

// NewRow pairs header with values. Missing trailing values read as empty
// strings and values without a header are dropped. When a header name is
// repeated, the first occurrence wins for lookups.
func NewRow(line int, header, values []string) Row {
	fields := make([]Field, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		fields[i] = Field{Name: name, Value: value}

		key := CanonicalColumn(name)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	return Row{line: line, fields: fields, index: index}
}

// CanonicalColumn normalizes a header name for lookups.
func CanonicalColumn(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Line returns the 1-based line number of the row in its source file.
func (r Row) Line() int {
	return r.line
}

// Get returns the value of column name, or "" when the column is absent.
func (r Row) Get(name string) string {
	i, ok := r.index[CanonicalColumn(name)]
	if !ok {
		return ""
	}
	return r.fields[i].Value
}

// Has reports whether the row has a column called name.
func (r Row) Has(name string) bool {
	_, ok := r.index[CanonicalColumn(name)]
	return ok
}

// Fields returns a copy of the row's columns in header order.
func (r Row) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// ActivityID returns the row's ACTIVITY_ID.
func (r Row) ActivityID() string {
	return r.Get(ColumnActivityID)
}

// IsBlank reports whether the row has no activity ID and should be skipped.
func (r Row) IsBlank() bool {
	return strings.TrimSpace(r.ActivityID()) == ""
}
