package scan

import "strings"

// DefinitionError reports malformed definition text. Pos is the byte offset
// of the main failure, or -1 when the error aggregates several alternatives.
type DefinitionError struct {
	Description string
	Pos         int
	Causes      []Cause
}

func (e *DefinitionError) Error() string {
	return e.Description
}

// Cause pairs an error with the header describing which alternative
// produced it.
type Cause struct {
	Err    error
	Header string
}

// MultiError folds the errors from several parse alternatives into one
// DefinitionError. A single cause is returned as is, optionally prefixed
// by header.
func MultiError(causes []Cause, header string) error {
	if len(causes) == 1 {
		if header == "" {
			return causes[0].Err
		}
		return &DefinitionError{
			Description: header + "\n" + causes[0].Err.Error(),
			Pos:         errorPos(causes[0].Err),
			Causes:      causes,
		}
	}
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, c := range causes {
		if c.Header == "" {
			b.WriteString(c.Err.Error())
			continue
		}
		b.WriteString(c.Header)
		b.WriteString(":\n")
		for _, line := range strings.Split(c.Err.Error(), "\n") {
			if line == "" {
				continue
			}
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return &DefinitionError{Description: b.String(), Pos: -1, Causes: causes}
}

func errorPos(err error) int {
	if de, ok := err.(*DefinitionError); ok {
		return de.Pos
	}
	return -1
}
