package models

import "sort"

// SchemaDescription is the caller-supplied description of the target database,
// a nested mapping of table name to column metadata. Immutable after
// submission.
type SchemaDescription struct {
	Tables map[string]TableSchema `json:"tables"`
}

// TableSchema describes one table.
type TableSchema struct {
	Columns []string `json:"columns"`
}

// TableNames returns the table names in deterministic order.
func (s SchemaDescription) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// HasColumn reports whether the named table declares the column.
func (s SchemaDescription) HasColumn(table, column string) bool {
	t, ok := s.Tables[table]
	if !ok {
		return false
	}

	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}

	return false
}
