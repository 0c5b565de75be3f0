// Package retry provides the bounded retry used around persistence calls.
package retry

import "csvimport/csv-import/internal/importerror"

// DefaultAttempts is the number of tries a row gets before its error is kept.
const DefaultAttempts = 5

// Do calls fn until it succeeds, returns an error not marked with
// importerror.Transient, or has been called maxAttempts times. There is no
// delay between attempts. Do returns the number of calls made and the last
// error.
func Do(maxAttempts int, fn func(attempt int) error) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn(attempt)
		if err == nil || !importerror.IsTransient(err) {
			return attempt, err
		}
	}
	return maxAttempts, err
}
