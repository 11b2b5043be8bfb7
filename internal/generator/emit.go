package generator

import (
	"cmp"
	"slices"

	"github.com/seitarof/gen-ffi/internal/diag"
	"github.com/seitarof/gen-ffi/internal/matcher"
	"github.com/seitarof/gen-ffi/internal/registry"
	"github.com/seitarof/gen-ffi/internal/resolver"
	"github.com/seitarof/gen-ffi/internal/target"
)

// Bindings is everything one run emits, in output order.
type Bindings struct {
	Structs      []StructDecl
	Enums        []EnumDecl
	Aliases      []AliasDecl
	Placeholders []Placeholder
	// Used is the closed used-type set.
	Used        NameSet
	Diagnostics diag.List
}

// StructDecl is one emitted struct.
type StructDecl struct {
	Name       string
	SourceFile string
	Fields     []FieldDecl
	// Referenced is set for structs pulled in from other files.
	Referenced bool
	order      int
}

// FieldDecl is one struct member with its resolved type.
type FieldDecl struct {
	Name     string
	CType    string
	Type     target.Type
	Resolved bool
}

// EnumDecl is one emitted enum.
type EnumDecl struct {
	Name    string
	Members []registry.EnumMember
}

// AliasDecl is one emitted typedef.
type AliasDecl struct {
	Name     string
	CType    string
	Type     target.Type
	Resolved bool
}

// Placeholder is an information-free pointer-sized type standing in for a name
// that has no emitted definition.
type Placeholder struct {
	Name string
	// CType is the spelling that failed to resolve; empty for names that are only
	// referenced.
	CType string
}

// Options tunes Emit.
type Options struct {
	// Natives must be the table the resolver was built with; nil means the default.
	Natives *resolver.NativeTable
	// Ignore drops declarations by name.
	Ignore matcher.NameFilter
	// IncludeReferenced emits structs from other files that emitted structs use.
	IncludeReferenced bool
}

// Emit selects and resolves everything to emit for the structs defined in files
// matched by filter. The registry's unknown set grows as a side effect.
func Emit(reg *registry.Registry, res resolver.Resolver, filter matcher.FileFilter, opts Options) *Bindings {
	natives := opts.Natives
	if natives == nil {
		natives = resolver.DefaultNativeTable()
	}
	ignored := func(name string) bool {
		return opts.Ignore != nil && opts.Ignore.Ignored(name)
	}

	b := &Bindings{}
	var selected []*registry.StructDef
	chosen := NameSet{}
	for _, s := range reg.Structs() {
		if filter.Match(s.SourceFile) && !ignored(s.Name) {
			selected = append(selected, s)
			chosen.Add(s.Name)
		}
	}

	used := UsedTypes(natives, selected)
	pulled := closeUsed(natives, reg, used, opts.IncludeReferenced, func(name string) bool {
		return chosen.Has(name) || ignored(name)
	})
	b.Used = used

	for _, s := range selected {
		b.Structs = append(b.Structs, b.structDecl(reg, res, s, false))
	}
	for _, s := range pulled {
		b.Structs = append(b.Structs, b.structDecl(reg, res, s, true))
	}
	slices.SortStableFunc(b.Structs, func(x, y StructDecl) int { return cmp.Compare(x.order, y.order) })

	covered := NameSet{}
	for _, s := range b.Structs {
		covered.Add(s.Name)
	}

	for _, e := range reg.Enums() {
		if !used.Has(e.Name) || ignored(e.Name) || reg.Classify(e.Name) != registry.KindEnum {
			continue
		}
		b.Enums = append(b.Enums, EnumDecl{Name: e.Name, Members: e.Members})
		covered.Add(e.Name)
	}

	for _, a := range reg.Aliases() {
		if !used.Has(a.Name) || ignored(a.Name) || reg.Classify(a.Name) != registry.KindAlias {
			continue
		}
		r := res.ResolveShape(reg, a.Shape)
		if !r.Resolved {
			b.Diagnostics.Errorf(diag.CodeUnresolvedAlias, a.Name, a.Spelling, "%s", r.Reason)
		}
		b.Aliases = append(b.Aliases, AliasDecl{Name: a.Name, CType: a.Spelling, Type: r.Type, Resolved: r.Resolved})
		covered.Add(a.Name)
	}

	b.Placeholders = placeholders(reg, used, covered)
	return b
}

func (b *Bindings) structDecl(reg *registry.Registry, res resolver.Resolver, s *registry.StructDef, referenced bool) StructDecl {
	decl := StructDecl{Name: s.Name, SourceFile: s.SourceFile, Referenced: referenced, order: s.Order}
	for _, f := range s.Fields {
		r := res.Resolve(reg, f.Spelling)
		if !r.Resolved {
			b.Diagnostics.Errorf(diag.CodeUnresolvedType, s.Name+"."+f.Name, f.Spelling, "%s", r.Reason)
		}
		decl.Fields = append(decl.Fields, FieldDecl{Name: f.Name, CType: f.Spelling, Type: r.Type, Resolved: r.Resolved})
	}
	return decl
}

// placeholders covers every unknown spelling and every used name without an
// emitted definition. Used names that are themselves unknown spellings already
// have their sentinel.
func placeholders(reg *registry.Registry, used, covered NameSet) []Placeholder {
	seen := NameSet{}
	var out []Placeholder
	for _, u := range reg.Unknowns() {
		if covered.Has(u.Sentinel) || seen.Has(u.Sentinel) {
			continue
		}
		seen.Add(u.Sentinel)
		out = append(out, Placeholder{Name: u.Sentinel, CType: u.Spelling})
	}
	for _, name := range used.Sorted() {
		if covered.Has(name) || seen.Has(name) {
			continue
		}
		if _, unknown := reg.Unknown(name); unknown {
			continue
		}
		seen.Add(name)
		out = append(out, Placeholder{Name: name})
	}
	slices.SortFunc(out, func(x, y Placeholder) int { return cmp.Compare(x.Name, y.Name) })
	return out
}
