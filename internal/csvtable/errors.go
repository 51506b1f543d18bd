package csvtable

import "fmt"

// LoadError reports a dataset that could not be fetched or has no header.
// Callers show Message inline and keep running.
type LoadError struct {
	Dataset string
	Op      string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Dataset, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Dataset, e.Op, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }
