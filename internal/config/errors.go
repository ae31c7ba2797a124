package config

import "fmt"

// ValidationError reports a settings field that failed type, range, or
// enumeration validation, together with the offending raw value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Field, e.Reason)
}

// NotFoundError reports a missing profile file or a profile name that is not
// defined in it. Exactly one of Path and Profile is set.
type NotFoundError struct {
	Profile string
	Path    string
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("profile file %s does not exist", e.Path)
	}
	return fmt.Sprintf("profile %q is not defined in the profile file", e.Profile)
}
