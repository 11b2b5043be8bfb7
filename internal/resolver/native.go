package resolver

import (
	"maps"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/seitarof/gen-ffi/internal/ctype"
	"github.com/seitarof/gen-ffi/internal/target"
)

var builtinNatives = map[string]target.Primitive{
	"bool":  target.Bool,
	"_Bool": target.Bool,

	"char":        target.Int8,
	"signed char": target.Int8,
	"int8_t":      target.Int8,

	"unsigned char": target.Uint8,
	"uint8_t":       target.Uint8,
	"BYTE":          target.Uint8,

	"short":        target.Int16,
	"short int":    target.Int16,
	"signed short": target.Int16,
	"int16_t":      target.Int16,

	"unsigned short":     target.Uint16,
	"unsigned short int": target.Uint16,
	"uint16_t":           target.Uint16,
	"WCHAR":              target.Uint16,
	"USHORT":             target.Uint16,
	"WORD":               target.Uint16,

	"int":        target.Int32,
	"signed int": target.Int32,
	"signed":     target.Int32,
	"int32_t":    target.Int32,
	"INT":        target.Int32,
	"ssize_t":    target.Int32,

	"unsigned int": target.Uint32,
	"unsigned":     target.Uint32,
	"uint32_t":     target.Uint32,
	"UINT":         target.Uint32,
	"UINT32":       target.Uint32,
	"ULONG":        target.Uint32,
	"DWORD":        target.Uint32,
	"DWORD32":      target.Uint32,

	"long":          target.Int64,
	"long int":      target.Int64,
	"long long":     target.Int64,
	"long long int": target.Int64,
	"int64_t":       target.Int64,
	"intptr_t":      target.Int64,

	"unsigned long":          target.Uint64,
	"unsigned long int":      target.Uint64,
	"unsigned long long":     target.Uint64,
	"unsigned long long int": target.Uint64,
	"uint64_t":               target.Uint64,
	"UINT64":                 target.Uint64,
	"uintptr_t":              target.Uint64,

	"size_t": target.Usize,
	"SIZE_T": target.Usize,

	"float":  target.Float32,
	"double": target.Float64,

	"void *":       target.RawPointer,
	"const void *": target.RawPointer,
	"PVOID":        target.RawPointer,

	"char *":       target.CString,
	"const char *": target.CString,

	"char **":       target.CStringArray,
	"const char **": target.CStringArray,
}

// NativeTable maps primitive and well-known C spellings to target primitives.
// Entries can be added but never removed, and built-in entries never change.
type NativeTable struct {
	entries map[string]target.Type
	builtin map[string]bool
}

// DefaultNativeTable returns the built-in table.
func DefaultNativeTable() *NativeTable {
	t := &NativeTable{
		entries: make(map[string]target.Type, len(builtinNatives)),
		builtin: make(map[string]bool, len(builtinNatives)),
	}
	for spelling, p := range builtinNatives {
		key := ctype.Normalize(spelling)
		t.entries[key] = target.Prim(p)
		t.builtin[key] = true
	}
	return t
}

// Extend adds spelling -> primitive entries, e.g. {"HANDLE": "ptr"}. A spelling that
// is built in, or whose qualifier-free form is, may only be restated with its
// built-in primitive. Nothing is added when any entry is rejected.
func (t *NativeTable) Extend(extra map[string]string) error {
	add := make(map[string]target.Type, len(extra))
	for _, spelling := range slices.Sorted(maps.Keys(extra)) {
		p, ok := target.ParsePrimitive(extra[spelling])
		if !ok {
			return errors.Newf("native type %q: unknown primitive %q", spelling, extra[spelling])
		}
		key := ctype.Normalize(spelling)
		if key == "" {
			return errors.New("native type with empty spelling")
		}
		typ := target.Prim(p)
		for _, k := range []string{key, ctype.Parse(key).String()} {
			if existing := t.entries[k]; t.builtin[k] && existing != typ {
				return errors.WithHint(
					errors.Newf("native type %q: built-in %q is %s and cannot be remapped to %s", spelling, k, existing, typ),
					"map a typedef name instead, e.g. HANDLE = ptr",
				)
			}
		}
		add[key] = typ
	}
	maps.Copy(t.entries, add)
	return nil
}

// Lookup returns the primitive for spelling. The spelling is matched as written
// (after whitespace normalisation) and then in its qualifier-free canonical form.
func (t *NativeTable) Lookup(spelling string) (target.Type, bool) {
	norm := ctype.Normalize(spelling)
	if typ, ok := t.entries[norm]; ok {
		return typ, true
	}
	return t.LookupShape(ctype.Parse(norm))
}

// LookupShape matches the canonical spelling of s.
func (t *NativeTable) LookupShape(s ctype.Shape) (target.Type, bool) {
	typ, ok := t.entries[s.String()]
	return typ, ok
}

// Contains reports whether spelling is native.
func (t *NativeTable) Contains(spelling string) bool {
	_, ok := t.Lookup(spelling)
	return ok
}

// Spellings returns every known spelling, sorted.
func (t *NativeTable) Spellings() []string {
	return slices.Sorted(maps.Keys(t.entries))
}
