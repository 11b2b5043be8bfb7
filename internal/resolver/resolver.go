package resolver

import (
	"github.com/seitarof/gen-ffi/internal/ctype"
	"github.com/seitarof/gen-ffi/internal/registry"
	"github.com/seitarof/gen-ffi/internal/target"
)

// Resolver translates C type spellings into target types.
type Resolver interface {
	// Resolve is total: every spelling yields a Result, resolved or not.
	Resolve(reg *registry.Registry, spelling string) Result
	ResolveShape(reg *registry.Registry, s ctype.Shape) Result
}

// Rule tries to resolve one shape.
type Rule interface {
	Name() string
	Try(c *Context, s ctype.Shape) (Result, bool)
}

type resolverImpl struct {
	rules   []Rule
	natives *NativeTable
}

// New builds a resolver with the rule chain. A nil table means DefaultNativeTable.
func New(natives *NativeTable, rules ...Rule) Resolver {
	if natives == nil {
		natives = DefaultNativeTable()
	}
	for _, rule := range rules {
		if aware, ok := rule.(NativeAware); ok {
			aware.SetNatives(natives)
		}
	}
	return &resolverImpl{rules: rules, natives: natives}
}

func (r *resolverImpl) Resolve(reg *registry.Registry, spelling string) Result {
	c := &Context{Registry: reg, Original: spelling, resolver: r}
	res := r.resolveOne(c, ctype.Parse(spelling))
	res.Original = spelling
	return res
}

func (r *resolverImpl) ResolveShape(reg *registry.Registry, s ctype.Shape) Result {
	c := &Context{Registry: reg, resolver: r}
	return r.resolveOne(c, s)
}

func (r *resolverImpl) resolveOne(c *Context, s ctype.Shape) Result {
	for _, rule := range r.rules {
		if res, ok := rule.Try(c, s); ok {
			if res.Rule == "" {
				res.Rule = rule.Name()
			}
			if res.Original == "" {
				res.Original = s.String()
			}
			return res
		}
	}
	return unresolved(c.Registry, s, "no rule matched")
}

// unresolved records the canonical spelling of s as unknown and returns its placeholder.
func unresolved(reg *registry.Registry, s ctype.Shape, reason string) Result {
	spelling := s.String()
	return Result{
		Type:     target.Named(reg.MarkUnknown(spelling)),
		Original: spelling,
		Reason:   reason,
	}
}
