package redlock

import (
	"fmt"
	"strings"
)

// QuorumError is returned when so many stores faulted that a majority can never be reached.
// It wraps the errors of all faulting stores.
type QuorumError struct {
	Op     string
	Errors []error
}

func (e *QuorumError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("redlock %s: quorum impossible, %d store(s) faulted: [%s]", e.Op, len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap allows errors.Is and errors.As to look at every store error
func (e *QuorumError) Unwrap() []error {
	return e.Errors
}
