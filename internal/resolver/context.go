package resolver

import (
	"github.com/seitarof/gen-ffi/internal/ctype"
	"github.com/seitarof/gen-ffi/internal/registry"
)

// Context is passed to every rule for one Resolve call.
type Context struct {
	Registry *registry.Registry
	// Original is the spelling as written. It is empty for nested shapes.
	Original string

	resolver *resolverImpl
}

// Resolve runs the full rule chain on a nested shape.
func (c *Context) Resolve(s ctype.Shape) Result {
	child := &Context{Registry: c.Registry, resolver: c.resolver}
	return c.resolver.resolveOne(child, s)
}

// NativeAware rules receive the native table the resolver was built with.
type NativeAware interface {
	SetNatives(*NativeTable)
}
