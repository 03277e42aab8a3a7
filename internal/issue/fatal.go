// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
)

// ErrFatal is the sentinel wrapped by every FatalError.
var ErrFatal = errors.New("fatal configuration error")

// FatalError marks a configuration problem that must stop the build. The CLI
// maps it to a non-zero process exit after printing Message and, when set,
// the rendered catalog entry for IssueID.
type FatalError struct {
	// IssueID selects the catalog entry with remediation guidance (optional).
	IssueID Id
	// Message is the one-line, human-readable description.
	Message string
	// Path is the missing or broken file, when there is one.
	Path string
	// Cause is the underlying error (optional).
	Cause error
}

// NewFatal creates a FatalError for the given catalog entry.
func NewFatal(id Id, path, format string, args ...any) *FatalError {
	return &FatalError{
		IssueID: id,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	}
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the cause so errors.Is can see through the fatal marker.
func (e *FatalError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrFatal}
	}
	return []error{ErrFatal, e.Cause}
}

// IsFatal reports whether err (or anything it wraps) is a FatalError.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
