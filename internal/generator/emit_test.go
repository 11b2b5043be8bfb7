package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seitarof/gen-ffi/internal/collector"
	"github.com/seitarof/gen-ffi/internal/ctype"
	"github.com/seitarof/gen-ffi/internal/diag"
	"github.com/seitarof/gen-ffi/internal/matcher"
	"github.com/seitarof/gen-ffi/internal/parser"
	"github.com/seitarof/gen-ffi/internal/registry"
	"github.com/seitarof/gen-ffi/internal/resolver"
	"github.com/seitarof/gen-ffi/internal/target"
)

const (
	shapesFile = "/src/shapes.h"
	commonFile = "/src/common.h"
)

func fields(pairs ...string) []registry.Field {
	out := make([]registry.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, registry.Field{Name: pairs[i], Spelling: pairs[i+1]})
	}
	return out
}

func members(names ...string) []registry.EnumMember {
	out := make([]registry.EnumMember, 0, len(names))
	for i, n := range names {
		out = append(out, registry.EnumMember{Name: n, Value: int64(i)})
	}
	return out
}

func alias(name, spelling string) registry.TypeDef {
	shape := ctype.Parse(spelling).ByValue()
	return registry.TypeDef{Name: name, Spelling: spelling, Shape: shape, IsPointer: shape.IsPointer(), SourceFile: shapesFile}
}

// shapesRegistry is Point { int x; int y; }, enum Color { RED, GREEN, BLUE } and
// Shape { Point origin; Color color; char *tag; }, all in one file.
func shapesRegistry() *registry.Registry {
	reg := registry.New()
	reg.AddStruct(registry.StructDef{Name: "Point", Fields: fields("x", "int", "y", "int"), SourceFile: shapesFile})
	reg.AddEnum(registry.EnumDef{Name: "Color", Members: members("RED", "GREEN", "BLUE"), SourceFile: shapesFile})
	reg.AddStruct(registry.StructDef{Name: "Shape", Fields: fields("origin", "Point", "color", "Color", "tag", "char*"), SourceFile: shapesFile})
	return reg
}

func emitShapes(reg *registry.Registry, opts Options) *Bindings {
	return Emit(reg, resolver.New(nil, resolver.DefaultRules()...), matcher.NewFileFilter(shapesFile), opts)
}

func structNames(b *Bindings) []string {
	var out []string
	for _, s := range b.Structs {
		out = append(out, s.Name)
	}
	return out
}

func placeholderNames(b *Bindings) []string {
	var out []string
	for _, p := range b.Placeholders {
		out = append(out, p.Name)
	}
	return out
}

func TestEmit_PointColorShape(t *testing.T) {
	b := emitShapes(shapesRegistry(), Options{})

	require.Equal(t, []string{"Point", "Shape"}, structNames(b))
	point := b.Structs[0]
	require.Len(t, point.Fields, 2)
	for _, f := range point.Fields {
		assert.True(t, f.Resolved)
		assert.Equal(t, target.Prim(target.Int32), f.Type)
	}

	shape := b.Structs[1]
	assert.Equal(t, target.Named("Point"), shape.Fields[0].Type)
	assert.Equal(t, target.Named("Color"), shape.Fields[1].Type)
	assert.Equal(t, target.Prim(target.CString), shape.Fields[2].Type)

	require.Len(t, b.Enums, 1)
	assert.Equal(t, "Color", b.Enums[0].Name)
	assert.Equal(t, members("RED", "GREEN", "BLUE"), b.Enums[0].Members)

	assert.Empty(t, b.Aliases)
	assert.Empty(t, b.Placeholders)
	assert.Empty(t, b.Diagnostics)
}

func TestEmit_EnumOnlyWhenUsed(t *testing.T) {
	b := emitShapes(shapesRegistry(), Options{Ignore: matcher.NewNameFilter([]string{"Shape"})})

	assert.Equal(t, []string{"Point"}, structNames(b))
	assert.Empty(t, b.Enums)
}

func TestEmit_UnusedAliasIsDropped(t *testing.T) {
	reg := shapesRegistry()
	reg.AddAlias(alias("MyHandle", "void *"))

	b := emitShapes(reg, Options{})
	assert.Empty(t, b.Aliases)
	assert.NotContains(t, placeholderNames(b), "MyHandle")
}

func TestEmit_OpaqueStructPointer(t *testing.T) {
	reg := registry.New()
	reg.AddOpaque("Opaque")
	reg.AddStruct(registry.StructDef{Name: "Holder", Fields: fields("impl", "struct Opaque *"), SourceFile: shapesFile})

	b := emitShapes(reg, Options{})

	require.Equal(t, []string{"Holder"}, structNames(b))
	f := b.Structs[0].Fields[0]
	assert.True(t, f.Resolved)
	assert.Equal(t, target.PointerTo(target.Named("Opaque")), f.Type)
	assert.Equal(t, []string{"Opaque"}, placeholderNames(b))
	assert.Empty(t, b.Diagnostics)
}

func TestEmit_UsedAliasesAndClosure(t *testing.T) {
	reg := shapesRegistry()
	reg.AddStruct(registry.StructDef{Name: "Vec", Fields: fields("x", "float"), SourceFile: commonFile})
	reg.AddAlias(alias("Vec2", "struct Vec"))
	reg.AddAlias(alias("Handle", "void *"))
	reg.AddAlias(alias("Callback", "int (*)(int)"))
	reg.AddStruct(registry.StructDef{
		Name:       "Body",
		Fields:     fields("pos", "Vec2", "h", "Handle", "cb", "Callback"),
		SourceFile: shapesFile,
	})

	b := emitShapes(reg, Options{})

	require.Len(t, b.Aliases, 3)
	byName := map[string]AliasDecl{}
	for _, a := range b.Aliases {
		byName[a.Name] = a
	}
	assert.Equal(t, target.Named("Vec"), byName["Vec2"].Type)
	assert.Equal(t, target.Prim(target.RawPointer), byName["Handle"].Type)
	assert.False(t, byName["Callback"].Resolved)

	assert.True(t, b.Used.Has("Vec"))
	assert.Contains(t, placeholderNames(b), "Vec")
	assert.Equal(t, 1, b.Diagnostics.Count(diag.SeverityError))
	assert.Equal(t, diag.CodeUnresolvedAlias, b.Diagnostics[0].Code)
}

func TestEmit_IncludeReferenced(t *testing.T) {
	reg := registry.New()
	reg.AddStruct(registry.StructDef{Name: "Point", Fields: fields("x", "int"), SourceFile: commonFile})
	reg.AddStruct(registry.StructDef{Name: "Unused", Fields: fields("x", "int"), SourceFile: commonFile})
	reg.AddStruct(registry.StructDef{Name: "Line", Fields: fields("a", "Point", "b", "Point"), SourceFile: shapesFile})

	without := emitShapes(reg, Options{})
	assert.Equal(t, []string{"Line"}, structNames(without))
	assert.Equal(t, []string{"Point"}, placeholderNames(without))

	with := emitShapes(reg, Options{IncludeReferenced: true})
	assert.Equal(t, []string{"Point", "Line"}, structNames(with))
	assert.True(t, with.Structs[0].Referenced)
	assert.Empty(t, with.Placeholders)
}

func TestEmit_UnresolvedFieldsBecomePlaceholders(t *testing.T) {
	reg := registry.New()
	reg.AddStruct(registry.StructDef{
		Name:       "Dev",
		Fields:     fields("ops", "Missing *", "cb", "void (*)(int)", "guid", "union RTUUID"),
		SourceFile: shapesFile,
	})

	b := emitShapes(reg, Options{})

	require.Len(t, b.Structs, 1)
	for _, f := range b.Structs[0].Fields {
		assert.False(t, f.Resolved, f.Name)
	}
	assert.Equal(t, 3, b.Diagnostics.Count(diag.SeverityError))

	names := placeholderNames(b)
	assert.Contains(t, names, "Missing_t")
	assert.Contains(t, names, "RTUUID")
	assert.NotContains(t, names, "Missing")
	assert.IsNonDecreasing(t, names)
}

func TestEmit_CollisionKeepsStruct(t *testing.T) {
	reg := shapesRegistry()
	reg.AddEnum(registry.EnumDef{Name: "Point", Members: members("P0")})

	b := emitShapes(reg, Options{})
	for _, e := range b.Enums {
		assert.NotEqual(t, "Point", e.Name)
	}
}

func TestEmit_Idempotent(t *testing.T) {
	reg := registry.New()
	reg.AddEnum(registry.EnumDef{Name: "Mode", Members: members("A", "B"), SourceFile: shapesFile})
	reg.AddStruct(registry.StructDef{Name: "Cfg", Fields: fields("mode", "Mode", "raw", "__int128", "next", "struct Cfg *"), SourceFile: shapesFile})

	lang, err := LookupLanguage("rust")
	require.NoError(t, err)
	cfg := staticConfig{output: "/out/cfg.rs", source: shapesFile, lang: "rust"}

	first := buildTemplateData(lang, cfg, emitShapes(reg, Options{}))
	second := buildTemplateData(lang, cfg, emitShapes(reg, Options{}))

	assert.Equal(t, first.Structs, second.Structs)
	assert.Equal(t, first.Enums, second.Enums)
	assert.ElementsMatch(t, first.Placeholders, second.Placeholders)
	assert.Len(t, reg.Unknowns(), 1)
}

func TestUsedTypes_OrderIndependent(t *testing.T) {
	natives := resolver.DefaultNativeTable()
	structs := []*registry.StructDef{
		{Name: "A", Fields: fields("p", "Point *", "c", "enum Color", "s", "char *[4]")},
		{Name: "B", Fields: fields("n", "struct Node **", "arr", "Vec [2][2]", "i", "unsigned int")},
		{Name: "C", Fields: fields("h", "Handle", "fn", "int (*)(void)", "p", "Point")},
	}
	want := NameSet{"Point": {}, "Color": {}, "Node": {}, "Vec": {}, "Handle": {}}

	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, perm := range perms {
		ordered := []*registry.StructDef{structs[perm[0]], structs[perm[1]], structs[perm[2]]}
		assert.Equal(t, want, UsedTypes(natives, ordered), "%v", perm)
	}
}

func TestBareName(t *testing.T) {
	natives := resolver.DefaultNativeTable()
	cases := map[string]string{
		"Point":          "Point",
		"const Point *":  "Point",
		"struct Node **": "Node",
		"Vec [4]":        "Vec",
		"enum Color":     "Color",
		"char **":        "",
		"int [8]":        "",
		"void *":         "",
		"int (*)(int)":   "",
	}
	for spelling, want := range cases {
		got, ok := BareName(natives, ctype.Parse(spelling))
		assert.Equal(t, want != "", ok, spelling)
		assert.Equal(t, want, got, spelling)
	}
}

func TestEmit_UnionTypedefRendersPlaceholder(t *testing.T) {
	tu := &parser.TranslationUnit{Path: shapesFile, Decls: []*parser.Decl{
		{Kind: parser.DeclTypedef, Name: "RTUUID", Type: "union RTUUID", File: shapesFile, Line: 1},
		{Kind: parser.DeclStruct, Name: "Disk", File: shapesFile, Line: 2, Complete: true, Children: []*parser.Decl{
			{Kind: parser.DeclField, Name: "id", Type: "RTUUID"},
			{Kind: parser.DeclField, Name: "raw", Type: "union RTUUID"},
		}},
	}}
	reg, _ := collector.New().Collect(tu)

	b := emitShapes(reg, Options{})
	assert.Empty(t, b.Aliases)
	assert.Equal(t, []string{"RTUUID", "union_RTUUID_t"}, placeholderNames(b))

	got := render(t, passthroughFormatter{}, staticConfig{output: "disk.rs", source: shapesFile, lang: "rust"}, b)
	assert.NotContains(t, got, "pub type RTUUID = RTUUID;")
	assert.Contains(t, got, "    pub id: RTUUID,\n")
	assert.Contains(t, got, "    pub raw: union_RTUUID_t, // unresolved: union RTUUID\n")
	assert.Contains(t, got, "pub type RTUUID = *const ();\n")
	assert.Contains(t, got, "pub type union_RTUUID_t = *const (); // unresolved: union RTUUID\n")
}
