package generator

import (
	"maps"
	"slices"

	"github.com/seitarof/gen-ffi/internal/ctype"
	"github.com/seitarof/gen-ffi/internal/registry"
	"github.com/seitarof/gen-ffi/internal/resolver"
)

// NameSet is an unordered set of declaration names.
type NameSet map[string]struct{}

// Add inserts name.
func (s NameSet) Add(name string) { s[name] = struct{}{} }

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// BareName strips pointer and array decoration from a spelling and returns the
// referenced declaration name. It reports false when any level of the spelling is
// native or the leaf is not an identifier.
func BareName(natives *resolver.NativeTable, s ctype.Shape) (string, bool) {
	for _, level := range s.Levels() {
		if _, ok := natives.LookupShape(level); ok {
			return "", false
		}
	}
	leaf := s.Leaf()
	if leaf.Kind != ctype.KindNamed && leaf.Kind != ctype.KindStructRef {
		return "", false
	}
	if !ctype.IsIdentifier(leaf.Name) {
		return "", false
	}
	return leaf.Name, true
}

// UsedTypes returns the bare names referenced by the raw field spellings of structs.
// The result does not depend on the order of structs.
func UsedTypes(natives *resolver.NativeTable, structs []*registry.StructDef) NameSet {
	used := NameSet{}
	for _, s := range structs {
		addFieldNames(natives, used, s)
	}
	return used
}

func addFieldNames(natives *resolver.NativeTable, used NameSet, s *registry.StructDef) {
	for _, f := range s.Fields {
		if name, ok := BareName(natives, ctype.Parse(f.Spelling)); ok {
			used.Add(name)
		}
	}
}

// closeUsed grows used until every alias in it has its underlying name in it too.
// With referenced set, structs named in used are pulled in as well and returned so
// they can be emitted; skip reports structs that must not be pulled in.
func closeUsed(
	natives *resolver.NativeTable,
	reg *registry.Registry,
	used NameSet,
	referenced bool,
	skip func(name string) bool,
) []*registry.StructDef {
	var pulled []*registry.StructDef
	done := NameSet{}
	for {
		added := false
		for _, name := range used.Sorted() {
			if done.Has(name) {
				continue
			}
			done.Add(name)

			switch reg.Classify(name) {
			case registry.KindAlias:
				def, _ := reg.Alias(name)
				if bare, ok := BareName(natives, def.Shape); ok && !used.Has(bare) {
					used.Add(bare)
					added = true
				}
			case registry.KindStruct:
				if !referenced || skip(name) {
					continue
				}
				def, _ := reg.Struct(name)
				pulled = append(pulled, def)
				before := len(used)
				addFieldNames(natives, used, def)
				added = added || len(used) > before
			}
		}
		if !added {
			return pulled
		}
	}
}
