package resolver

import (
	"fmt"

	"github.com/seitarof/gen-ffi/internal/target"
)

// Result is the outcome of resolving one spelling.
//
// When Resolved is false, Type is still usable: it is the best-effort type with the
// failing part replaced by the placeholder recorded in the registry's unknown set.
type Result struct {
	Type     target.Type
	Resolved bool
	// Original is the spelling that was asked for.
	Original string
	// Reason describes the innermost failure; empty when resolved.
	Reason string
	// Rule names the rule that produced Type.
	Rule string
}

func (r Result) String() string {
	if r.Resolved {
		return r.Type.String()
	}
	return fmt.Sprintf("unresolved(%q: %s)", r.Original, r.Reason)
}

func resolved(t target.Type) Result {
	return Result{Type: t, Resolved: true}
}

// wrap applies fn to the resolved inner type and carries the inner outcome through.
func wrap(inner Result, fn func(target.Type) target.Type) Result {
	return Result{
		Type:     fn(inner.Type),
		Resolved: inner.Resolved,
		Reason:   inner.Reason,
	}
}
