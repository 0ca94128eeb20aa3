package domain

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns absent from an input table. It is
// fatal: the run aborts before any output is written.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s table missing required columns: %s",
		e.Table, strings.Join(e.Missing, ", "))
}

// MissingInputError reports that a required source produced no data, either
// because its cache file is absent or because the fetch failed. Fatal.
type MissingInputError struct {
	Source string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("required input unavailable: %s", e.Source)
}
