package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seitarof/gen-ffi/internal/ctype"
	"github.com/seitarof/gen-ffi/internal/registry"
	"github.com/seitarof/gen-ffi/internal/target"
)

func newTestResolver() Resolver {
	return New(nil, DefaultRules()...)
}

func TestResolver_NativeIgnoresRegistry(t *testing.T) {
	reg := registry.New()
	tbl := DefaultNativeTable()
	for _, spelling := range tbl.Spellings() {
		if ctype.IsIdentifier(spelling) {
			reg.AddStruct(registry.StructDef{Name: spelling, Fields: []registry.Field{{Name: "x", Spelling: "int"}}})
		}
	}
	r := New(tbl, DefaultRules()...)

	for _, spelling := range tbl.Spellings() {
		want, ok := tbl.Lookup(spelling)
		require.True(t, ok)

		got := r.Resolve(reg, spelling)
		assert.True(t, got.Resolved, spelling)
		assert.Equal(t, want, got.Type, spelling)
		assert.Equal(t, "native", got.Rule, spelling)
	}
}

func TestResolver_NativeSpellingVariants(t *testing.T) {
	r := newTestResolver()
	reg := registry.New()

	tests := []struct {
		spelling string
		want     target.Type
	}{
		{"char*", target.Prim(target.CString)},
		{"const char *", target.Prim(target.CString)},
		{"const char * const", target.Prim(target.CString)},
		{"char **", target.Prim(target.CStringArray)},
		{"const void *", target.Prim(target.RawPointer)},
		{"unsigned   int", target.Prim(target.Uint32)},
		{"size_t", target.Prim(target.Usize)},
		{"uintptr_t", target.Prim(target.Uint64)},
	}
	for _, tt := range tests {
		t.Run(tt.spelling, func(t *testing.T) {
			got := r.Resolve(reg, tt.spelling)
			assert.True(t, got.Resolved)
			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestResolver_StructRefIsPointer(t *testing.T) {
	r := newTestResolver()
	reg := registry.New()
	reg.AddStruct(registry.StructDef{Name: "Node", Fields: []registry.Field{{Name: "cb", Spelling: "int (*)(int)"}}})

	for _, name := range []string{"Node", "Opaque"} {
		bare := r.Resolve(reg, "struct "+name)
		assert.True(t, bare.Resolved)
		assert.Equal(t, target.PointerTo(target.Named(name)), bare.Type)

		ptr := r.Resolve(reg, "struct "+name+" *")
		assert.Equal(t, target.PointerTo(target.Named(name)), ptr.Type)

		pp := r.Resolve(reg, "const struct "+name+" **")
		assert.Equal(t, target.PointerTo(target.PointerTo(target.Named(name))), pp.Type)
	}
	assert.Equal(t, registry.KindNone, reg.Classify("Opaque"))
}

func TestResolver_Arrays(t *testing.T) {
	r := newTestResolver()
	reg := registry.New()
	reg.AddStruct(registry.StructDef{Name: "Point", Fields: []registry.Field{{Name: "x", Spelling: "int"}}})

	got := r.Resolve(reg, "int [4]")
	require.True(t, got.Resolved)
	assert.Equal(t, target.ArrayOf(target.Prim(target.Int32), "4"), got.Type)

	nested := r.Resolve(reg, "Point [2][3]")
	require.True(t, nested.Resolved)
	assert.Equal(t, target.ArrayOf(target.ArrayOf(target.Named("Point"), "3"), "2"), nested.Type)

	sym := r.Resolve(reg, "uint8_t[MAX_PATH]")
	assert.Equal(t, target.ArrayOf(target.Prim(target.Uint8), "MAX_PATH"), sym.Type)

	strs := r.Resolve(reg, "char *[8]")
	assert.Equal(t, target.ArrayOf(target.Prim(target.CString), "8"), strs.Type)
}

func TestResolver_RegistryKindsStayNominal(t *testing.T) {
	r := newTestResolver()
	reg := registry.New()
	reg.AddStruct(registry.StructDef{Name: "Point", Fields: []registry.Field{{Name: "x", Spelling: "int"}}})
	reg.AddAlias(registry.TypeDef{Name: "Handle", Spelling: "*const void", Shape: ctype.Parse("void *"), IsPointer: true})
	reg.AddEnum(registry.EnumDef{Name: "Color", Members: []registry.EnumMember{{Name: "RED"}}})
	reg.AddOpaque("FILE")

	for spelling, want := range map[string]string{
		"Point":      "Point",
		"Handle":     "Handle",
		"Color":      "Color",
		"enum Color": "Color",
		"FILE":       "FILE",
	} {
		got := r.Resolve(reg, spelling)
		assert.True(t, got.Resolved, spelling)
		assert.Equal(t, target.Named(want), got.Type, spelling)
	}

	ptr := r.Resolve(reg, "Handle *")
	assert.Equal(t, target.PointerTo(target.Named("Handle")), ptr.Type)
}

func TestResolver_UnresolvedIsRecordedOnce(t *testing.T) {
	r := newTestResolver()
	reg := registry.New()

	first := r.Resolve(reg, "int (*)(int, char *)")
	assert.False(t, first.Resolved)
	assert.Equal(t, "int (*)(int, char *)", first.Original)
	assert.NotEmpty(t, first.Reason)
	require.Equal(t, target.KindNamed, first.Type.Kind)

	second := r.Resolve(reg, "int (*)(int, char *)")
	assert.False(t, second.Resolved)
	assert.Equal(t, first.Type, second.Type)
	assert.Equal(t, "unknown", second.Rule)
	assert.Len(t, reg.Unknowns(), 1)
}

func TestResolver_PartialResultsPropagate(t *testing.T) {
	r := newTestResolver()
	reg := registry.New()

	got := r.Resolve(reg, "Missing *[2]")
	assert.False(t, got.Resolved)
	assert.Equal(t, target.ArrayOf(target.PointerTo(target.Named("Missing_t")), "2"), got.Type)

	sentinel, ok := reg.Unknown("Missing")
	require.True(t, ok)
	assert.Equal(t, "Missing_t", sentinel)
}

func TestResolver_EveryInputYieldsAType(t *testing.T) {
	r := newTestResolver()
	reg := registry.New()
	for _, spelling := range []string{"", "   ", "[", "int [", "*", "struct", "enum", "union RTUUID", "void", "__int128"} {
		got := r.Resolve(reg, spelling)
		assert.NotEqual(t, "?", got.Type.String(), spelling)
	}
}

func TestResolver_CustomRulesAndNatives(t *testing.T) {
	tbl := DefaultNativeTable()
	require.NoError(t, tbl.Extend(map[string]string{"HANDLE": "ptr", "LONG": "i32"}))
	require.Error(t, tbl.Extend(map[string]string{"X": "i128"}))

	r := New(tbl, &NativeRule{})
	reg := registry.New()

	assert.Equal(t, target.Prim(target.RawPointer), r.Resolve(reg, "HANDLE").Type)
	assert.Equal(t, target.Prim(target.Int32), r.Resolve(reg, "LONG").Type)

	miss := r.Resolve(reg, "Point")
	assert.False(t, miss.Resolved)
	assert.Equal(t, "no rule matched", miss.Reason)
}

func TestNativeTable_BuiltinsCannotBeRemapped(t *testing.T) {
	tbl := DefaultNativeTable()

	require.Error(t, tbl.Extend(map[string]string{"int": "u8"}))
	require.Error(t, tbl.Extend(map[string]string{"const int": "u8"}))
	require.Error(t, tbl.Extend(map[string]string{"HANDLE": "ptr", "char *": "ptr"}))

	typ, ok := tbl.Lookup("int")
	require.True(t, ok)
	assert.Equal(t, target.Prim(target.Int32), typ)
	assert.False(t, tbl.Contains("HANDLE"), "a rejected batch adds nothing")

	require.NoError(t, tbl.Extend(map[string]string{"int": "i32", "unsigned  int": "u32"}))
}

func TestRegistryRule_UnionKeywordIsNotNominal(t *testing.T) {
	reg := registry.New()
	reg.AddOpaque("RTUUID")
	r := newTestResolver()

	byName := r.Resolve(reg, "RTUUID")
	assert.True(t, byName.Resolved)
	assert.Equal(t, target.Named("RTUUID"), byName.Type)

	byTag := r.Resolve(reg, "union RTUUID")
	assert.False(t, byTag.Resolved)
	assert.Equal(t, target.Named("union_RTUUID_t"), byTag.Type)

	enum := registry.New()
	enum.AddEnum(registry.EnumDef{Name: "Color"})
	assert.True(t, r.Resolve(enum, "enum Color").Resolved)
}
