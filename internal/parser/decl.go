package parser

// DeclKind is the coarse category of a declaration node.
type DeclKind int

const (
	DeclOther DeclKind = iota
	DeclStruct
	DeclTypedef
	DeclEnum
	DeclField
	DeclEnumConstant
)

func (k DeclKind) String() string {
	switch k {
	case DeclStruct:
		return "struct"
	case DeclTypedef:
		return "typedef"
	case DeclEnum:
		return "enum"
	case DeclField:
		return "field"
	case DeclEnumConstant:
		return "enum-constant"
	default:
		return "other"
	}
}

// TranslationUnit is one parsed source file and everything it includes.
type TranslationUnit struct {
	// Path is the absolute path of the parsed source.
	Path  string
	Decls []*Decl
	// Messages holds parser diagnostics that did not prevent the AST from being built.
	Messages []string
}

// Decl is one declaration node.
//
// Type is the field type for DeclField and the underlying spelling for DeclTypedef.
// Value is the evaluated constant for DeclEnumConstant. Children are the fields of a
// struct or the constants of an enum, in declaration order.
type Decl struct {
	Kind     DeclKind
	Name     string
	Type     string
	Value    int64
	File     string
	Line     int
	Col      int
	Children []*Decl

	// Complete is set on structs that carry a body.
	Complete bool
	// Bitfield is set on fields declared with a bit width.
	Bitfield bool

	id   string
	refs []string
}

// HasLocation reports whether the declaration could be traced to a file.
func (d *Decl) HasLocation() bool {
	return d.File != ""
}
