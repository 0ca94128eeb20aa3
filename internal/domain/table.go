package domain

// Table is raw tabular data as fetched from a source or read back from a
// cache file: a header row plus string cells. Schema checks and typed
// parsing happen in the transform, so fetchers and the cache can stay
// oblivious to source vintage differences.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Col returns the index of the named column, or -1 if absent.
func (t *Table) Col(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Get returns the cell under the named column for the given row, or ""
// when the column is absent or the row is short.
func (t *Table) Get(row []string, name string) string {
	i := t.Col(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// MissingColumns returns the subset of names not present in the header.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, n := range names {
		if t.Col(n) < 0 {
			missing = append(missing, n)
		}
	}
	return missing
}
