// SPDX-License-Identifier: MPL-2.0

package discovery

import "fmt"

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"

	// CodeManifestUnreadable marks a module skipped because its package.json
	// could not be read or decoded.
	CodeManifestUnreadable = "manifest_unreadable"
	// CodeDuplicateModule marks a module shadowed by an earlier source.
	CodeDuplicateModule = "module_duplicate"
	// CodeMissingDependency marks a dependency that is not part of the build.
	CodeMissingDependency = "dependency_missing"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic is a structured, non-fatal discovery finding.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier such as "module_duplicate".
		Code    string
		Message string
		// Path is the file or directory concerned, if any.
		Path string
		// Cause is the underlying error, if any.
		Cause error
	}
)

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s", d.Severity, d.Message)
	if d.Path != "" {
		s += " (" + d.Path + ")"
	}
	if d.Cause != nil {
		s += ": " + d.Cause.Error()
	}
	return s
}

func warning(code, path, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	}
}
