package generator

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/seitarof/gen-ffi/internal/target"
)

// ErrUnknownLanguage is returned for an unsupported output language.
var ErrUnknownLanguage = errors.New("unknown output language")

// Language renders target types and identifiers for one output language.
type Language interface {
	Name() string
	// Extension is the output file extension without the dot.
	Extension() string
	Type(t target.Type) string
	// Ident makes name usable as a type or enumerator name.
	Ident(name string) string
	// FieldName makes name usable as a struct member name.
	FieldName(name string) string
	// Placeholder is the spelling of an information-free pointer-sized type.
	Placeholder() string
}

var languages = map[string]Language{
	"rust": rustLanguage{},
	"go":   goLanguage{},
}

// LookupLanguage returns the language registered under name.
func LookupLanguage(name string) (Language, error) {
	lang, ok := languages[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.WithHintf(errors.Wrapf(ErrUnknownLanguage, "%q", name),
			"supported languages: %s", strings.Join(Languages(), ", "))
	}
	return lang, nil
}

// Languages lists the supported language names.
func Languages() []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type rustLanguage struct{}

var rustPrimitives = map[target.Primitive]string{
	target.Bool:         "bool",
	target.Int8:         "i8",
	target.Uint8:        "u8",
	target.Int16:        "i16",
	target.Uint16:       "u16",
	target.Int32:        "i32",
	target.Uint32:       "u32",
	target.Int64:        "i64",
	target.Uint64:       "u64",
	target.Float32:      "f32",
	target.Float64:      "f64",
	target.Usize:        "usize",
	target.Isize:        "isize",
	target.RawPointer:   "*const ()",
	target.CString:      "*const i8",
	target.CStringArray: "*const *const i8",
}

// Reserved words that may be written as raw identifiers.
var rustKeywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "else": true, "enum": true,
	"extern": true, "false": true, "fn": true, "for": true, "if": true, "impl": true, "in": true,
	"let": true, "loop": true, "match": true, "mod": true, "move": true, "mut": true, "pub": true,
	"ref": true, "return": true, "static": true, "struct": true, "trait": true, "true": true,
	"type": true, "unsafe": true, "use": true, "where": true, "while": true, "async": true,
	"await": true, "dyn": true, "abstract": true, "become": true, "box": true, "do": true,
	"final": true, "macro": true, "override": true, "priv": true, "typeof": true, "unsized": true,
	"virtual": true, "yield": true, "try": true, "gen": true,
}

// Keywords that cannot be raw identifiers.
var rustPathKeywords = map[string]bool{"self": true, "Self": true, "super": true, "crate": true, "_": true}

func (rustLanguage) Name() string      { return "rust" }
func (rustLanguage) Extension() string { return "rs" }
func (rustLanguage) Placeholder() string {
	return "*const ()"
}

func (l rustLanguage) Type(t target.Type) string {
	switch t.Kind {
	case target.KindPrimitive:
		return rustPrimitives[t.Prim]
	case target.KindNamed:
		return l.Ident(t.Name)
	case target.KindPointer:
		return "*const " + l.Type(*t.Elem)
	case target.KindArray:
		return "[" + l.Type(*t.Elem) + "; " + t.Len + "]"
	default:
		return l.Placeholder()
	}
}

func (rustLanguage) Ident(name string) string {
	switch {
	case rustPathKeywords[name]:
		return name + "_"
	case rustKeywords[name]:
		return "r#" + name
	default:
		return name
	}
}

func (l rustLanguage) FieldName(name string) string { return l.Ident(name) }

type goLanguage struct{}

var goPrimitives = map[target.Primitive]string{
	target.Bool:         "bool",
	target.Int8:         "int8",
	target.Uint8:        "uint8",
	target.Int16:        "int16",
	target.Uint16:       "uint16",
	target.Int32:        "int32",
	target.Uint32:       "uint32",
	target.Int64:        "int64",
	target.Uint64:       "uint64",
	target.Float32:      "float32",
	target.Float64:      "float64",
	target.Usize:        "uintptr",
	target.Isize:        "int",
	target.RawPointer:   "unsafe.Pointer",
	target.CString:      "*byte",
	target.CStringArray: "**byte",
}

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true, "default": true,
	"defer": true, "else": true, "fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true, "map": true, "package": true,
	"range": true, "return": true, "select": true, "struct": true, "switch": true, "type": true,
	"var": true, "_": true,
}

func (goLanguage) Name() string        { return "go" }
func (goLanguage) Extension() string   { return "go" }
func (goLanguage) Placeholder() string { return "uintptr" }

func (l goLanguage) Type(t target.Type) string {
	switch t.Kind {
	case target.KindPrimitive:
		return goPrimitives[t.Prim]
	case target.KindNamed:
		return l.Ident(t.Name)
	case target.KindPointer:
		return "*" + l.Type(*t.Elem)
	case target.KindArray:
		return "[" + t.Len + "]" + l.Type(*t.Elem)
	default:
		return l.Placeholder()
	}
}

func (goLanguage) Ident(name string) string {
	if goKeywords[name] {
		return name + "_"
	}
	return name
}

// FieldName exports the member so the bindings are usable from other packages.
func (goLanguage) FieldName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	switch {
	case name == "":
		return "X"
	case unicode.IsLetter(r):
		return string(unicode.ToUpper(r)) + name[size:]
	default:
		return "X" + name
	}
}
