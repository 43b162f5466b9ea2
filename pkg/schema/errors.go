package schema

import "fmt"

// BuildError reports a problem discovered while compiling a Builder into
// a Registry: an unknown variant/group reference, a duplicate name, or a
// bidirectional pair declared over a Sequence-shape field.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string {
	return "schema: " + e.Reason
}

func errf(format string, args ...any) error {
	return &BuildError{Reason: fmt.Sprintf(format, args...)}
}
