package models

import "strings"

// Outcome is the result of importing one file: the activity IDs that went
// through, in order, and the row errors, in order. A file is a success when
// Errors is empty.
type Outcome struct {
	Succeeded []string
	Errors    []string
}

// Success reports whether the file imported without errors.
func (o Outcome) Success() bool {
	return len(o.Errors) == 0
}

// Summary renders the outcome the way it is logged and reported.
func (o Outcome) Summary() string {
	if o.Success() {
		return "Success"
	}
	return "Imported: " + strings.Join(o.Succeeded, ", ") + " Errors: " + strings.Join(o.Errors, "; ")
}
