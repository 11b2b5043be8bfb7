package target

import "strings"

// Kind is the coarse category of a resolved target type.
type Kind int

const (
	KindPrimitive Kind = iota
	KindNamed
	KindPointer
	KindArray
)

// Primitive enumerates the language-neutral scalar and handle types a native C
// spelling can map to.
type Primitive int

const (
	Bool Primitive = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	Usize
	Isize
	// RawPointer is an untyped pointer ("void *").
	RawPointer
	// CString is a byte-string handle ("char *"); the bytes are never interpreted.
	CString
	// CStringArray is a pointer to byte-string handles ("char **").
	CStringArray
)

var primitiveNames = map[Primitive]string{
	Bool:         "bool",
	Int8:         "i8",
	Uint8:        "u8",
	Int16:        "i16",
	Uint16:       "u16",
	Int32:        "i32",
	Uint32:       "u32",
	Int64:        "i64",
	Uint64:       "u64",
	Float32:      "f32",
	Float64:      "f64",
	Usize:        "usize",
	Isize:        "isize",
	RawPointer:   "ptr",
	CString:      "cstr",
	CStringArray: "cstrv",
}

func (p Primitive) String() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return "invalid"
}

// ParsePrimitive maps a short primitive name such as "u32" or "cstr" back to its value.
func ParsePrimitive(name string) (Primitive, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range primitiveNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// PrimitiveNames lists every short primitive name in declaration order.
func PrimitiveNames() []string {
	out := make([]string, 0, len(primitiveNames))
	for p := Bool; p <= CStringArray; p++ {
		out = append(out, primitiveNames[p])
	}
	return out
}

// Type is a resolved, language-neutral type expression.
type Type struct {
	Kind Kind
	Prim Primitive
	Name string
	Elem *Type
	Len  string
}

// Prim returns a primitive type.
func Prim(p Primitive) Type {
	return Type{Kind: KindPrimitive, Prim: p}
}

// Named returns a nominal reference to a declaration emitted by name.
func Named(name string) Type {
	return Type{Kind: KindNamed, Name: name}
}

// PointerTo returns a raw pointer to elem.
func PointerTo(elem Type) Type {
	return Type{Kind: KindPointer, Elem: &elem}
}

// ArrayOf returns a fixed-size array of elem with the length copied verbatim.
func ArrayOf(elem Type, n string) Type {
	return Type{Kind: KindArray, Elem: &elem, Len: n}
}

// String is a debug rendering, independent of any output language.
func (t Type) String() string {
	switch t.Kind {
	case KindPrimitive:
		return t.Prim.String()
	case KindNamed:
		return t.Name
	case KindPointer:
		return "*" + t.Elem.String()
	case KindArray:
		return "[" + t.Elem.String() + "; " + t.Len + "]"
	default:
		return "?"
	}
}
