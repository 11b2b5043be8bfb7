package resolver

import (
	"github.com/seitarof/gen-ffi/internal/ctype"
	"github.com/seitarof/gen-ffi/internal/registry"
	"github.com/seitarof/gen-ffi/internal/target"
)

// DefaultRules returns built-in rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		&NativeRule{},
		&UnknownRule{},
		&RegistryRule{},
		&StructRefRule{},
		&ArrayRule{},
		&PointerRule{},
	}
}

// NativeRule: spelling in the native table -> primitive. Never consults the registry.
type NativeRule struct {
	natives *NativeTable
}

func (r *NativeRule) Name() string { return "native" }

func (r *NativeRule) SetNatives(t *NativeTable) { r.natives = t }

func (r *NativeRule) Try(c *Context, s ctype.Shape) (Result, bool) {
	if r.natives == nil {
		return Result{}, false
	}
	if c.Original != "" {
		if t, ok := r.natives.Lookup(c.Original); ok {
			return resolved(t), true
		}
	}
	if t, ok := r.natives.LookupShape(s); ok {
		return resolved(t), true
	}
	return Result{}, false
}

// UnknownRule: a spelling that already failed keeps its placeholder, no retries.
type UnknownRule struct{}

func (r *UnknownRule) Name() string { return "unknown" }

func (r *UnknownRule) Try(c *Context, s ctype.Shape) (Result, bool) {
	spelling := s.String()
	sentinel, ok := c.Registry.Unknown(spelling)
	if !ok {
		return Result{}, false
	}
	return Result{
		Type:     target.Named(sentinel),
		Original: spelling,
		Reason:   "previously unresolved",
	}, true
}

// RegistryRule: declared struct, alias, enum or opaque name -> nominal reference.
// Aliases are never flattened to their underlying type. "union N" never matches:
// unions are not emitted, and N may be a typedef of the union itself.
type RegistryRule struct{}

func (r *RegistryRule) Name() string { return "registry" }

func (r *RegistryRule) Try(c *Context, s ctype.Shape) (Result, bool) {
	if s.Kind != ctype.KindNamed || s.Keyword == "union" || !ctype.IsIdentifier(s.Name) {
		return Result{}, false
	}
	switch c.Registry.Classify(s.Name) {
	case registry.KindStruct, registry.KindAlias, registry.KindEnum, registry.KindOpaque:
		return resolved(target.Named(s.Name)), true
	default:
		return Result{}, false
	}
}

// StructRefRule: "struct N" written with zero or more pointers -> pointer to N.
// A bare reference gets one pointer level, otherwise the written depth is kept.
// N does not have to be registered.
//
// A by-value member spelled "struct N" (or "struct N [k]") therefore becomes a
// pointer in the output and the emitted layout differs from the C layout. Members
// spelled through a typedef ("N") keep their by-value layout.
type StructRefRule struct{}

func (r *StructRefRule) Name() string { return "struct-ref" }

func (r *StructRefRule) Try(_ *Context, s ctype.Shape) (Result, bool) {
	depth := 0
	cur := s
	for cur.Kind == ctype.KindPointer {
		depth++
		cur = *cur.Elem
	}
	if cur.Kind != ctype.KindStructRef {
		return Result{}, false
	}
	t := target.Named(cur.Name)
	for i := 0; i < max(depth, 1); i++ {
		t = target.PointerTo(t)
	}
	return resolved(t), true
}

// ArrayRule: T[N] -> fixed-size array of resolve(T), length copied verbatim.
type ArrayRule struct{}

func (r *ArrayRule) Name() string { return "array" }

func (r *ArrayRule) Try(c *Context, s ctype.Shape) (Result, bool) {
	if s.Kind != ctype.KindArray {
		return Result{}, false
	}
	elem := c.Resolve(*s.Elem)
	return wrap(elem, func(t target.Type) target.Type { return target.ArrayOf(t, s.Len) }), true
}

// PointerRule: T * -> pointer to resolve(T).
type PointerRule struct{}

func (r *PointerRule) Name() string { return "pointer" }

func (r *PointerRule) Try(c *Context, s ctype.Shape) (Result, bool) {
	if s.Kind != ctype.KindPointer {
		return Result{}, false
	}
	elem := c.Resolve(*s.Elem)
	return wrap(elem, target.PointerTo), true
}
