package diag

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics; only SeverityError counts against strict runs.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Code identifies the kind of problem.
type Code string

const (
	CodeUnresolvedType  Code = "unresolved-type"
	CodeUnresolvedAlias Code = "unresolved-alias"
	CodeMissingLocation Code = "missing-location"
	CodeMissingType     Code = "missing-type"
	CodeNameCollision   Code = "name-collision"
	CodeDuplicateValue  Code = "duplicate-enum-value"
	CodeBitField        Code = "bit-field"
	CodeParserMessage   Code = "parser"
)

// Diagnostic is one problem found while collecting or emitting.
type Diagnostic struct {
	Severity Severity
	Code     Code
	// Subject names the declaration the problem belongs to, e.g. "Shape.tag".
	Subject  string
	Spelling string
	Message  string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", d.Severity, d.Code)
	if d.Subject != "" {
		b.WriteString(" " + d.Subject)
	}
	if d.Spelling != "" {
		fmt.Fprintf(&b, " %q", d.Spelling)
	}
	if d.Message != "" {
		b.WriteString(": " + d.Message)
	}
	return b.String()
}

// List accumulates diagnostics in discovery order.
type List []Diagnostic

// Add appends d.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// Warnf appends a warning.
func (l *List) Warnf(code Code, subject, spelling, format string, args ...any) {
	l.Add(Diagnostic{Severity: SeverityWarning, Code: code, Subject: subject, Spelling: spelling, Message: fmt.Sprintf(format, args...)})
}

// Errorf appends an error.
func (l *List) Errorf(code Code, subject, spelling, format string, args ...any) {
	l.Add(Diagnostic{Severity: SeverityError, Code: code, Subject: subject, Spelling: spelling, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of diagnostics at severity s.
func (l List) Count(s Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	return l.Count(SeverityError) > 0
}
