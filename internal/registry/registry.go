package registry

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/seitarof/gen-ffi/internal/ctype"
)

// Kind classifies a declared name.
type Kind int

const (
	KindNone Kind = iota
	KindStruct
	KindAlias
	KindEnum
	KindOpaque
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindAlias:
		return "alias"
	case KindEnum:
		return "enum"
	case KindOpaque:
		return "opaque"
	case KindUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// Field is one struct member with its raw, unresolved C spelling.
type Field struct {
	Name     string
	Spelling string
}

// StructDef is a struct with at least one field.
type StructDef struct {
	Name       string
	Fields     []Field
	SourceFile string
	Order      int
}

// TypeDef is a registered typedef.
type TypeDef struct {
	Name string
	// Spelling is the underlying spelling with any "struct " keyword removed.
	Spelling   string
	Shape      ctype.Shape
	IsPointer  bool
	SourceFile string
	Order      int
}

// EnumMember is one enumerator in declaration order.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumDef is an enum declaration.
type EnumDef struct {
	Name       string
	Members    []EnumMember
	SourceFile string
	Order      int
}

// Unknown pairs a spelling that failed resolution with its placeholder name.
type Unknown struct {
	Spelling string
	Sentinel string
}

// Registry holds every declaration collected from one translation unit.
//
// It is populated once by the collector and read-only afterwards, except for the
// unknown set which grows while bindings are emitted.
type Registry struct {
	structs map[string]*StructDef
	aliases map[string]*TypeDef
	enums   map[string]*EnumDef
	opaque  map[string]int
	order   int

	mu        sync.Mutex
	unknown   map[string]string
	sentinels map[string]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		structs:   make(map[string]*StructDef),
		aliases:   make(map[string]*TypeDef),
		enums:     make(map[string]*EnumDef),
		opaque:    make(map[string]int),
		unknown:   make(map[string]string),
		sentinels: make(map[string]string),
	}
}

func (r *Registry) next() int {
	r.order++
	return r.order
}

// AddStruct registers def. A redeclaration replaces the earlier definition.
func (r *Registry) AddStruct(def StructDef) {
	def.Fields = slices.Clone(def.Fields)
	def.Order = r.next()
	r.structs[def.Name] = &def
}

// AddAlias registers def unless an alias with the same name exists.
// It reports whether def was stored.
func (r *Registry) AddAlias(def TypeDef) bool {
	if _, ok := r.aliases[def.Name]; ok {
		return false
	}
	def.Order = r.next()
	r.aliases[def.Name] = &def
	return true
}

// AddEnum registers def. A redeclaration replaces the earlier definition.
func (r *Registry) AddEnum(def EnumDef) {
	def.Members = slices.Clone(def.Members)
	def.Order = r.next()
	r.enums[def.Name] = &def
}

// AddOpaque records a name that exists without a definition.
func (r *Registry) AddOpaque(name string) {
	if _, ok := r.opaque[name]; ok {
		return
	}
	r.opaque[name] = r.next()
}

// Struct returns the struct named name.
func (r *Registry) Struct(name string) (*StructDef, bool) {
	def, ok := r.structs[name]
	return def, ok
}

// Alias returns the typedef named name.
func (r *Registry) Alias(name string) (*TypeDef, bool) {
	def, ok := r.aliases[name]
	return def, ok
}

// Enum returns the enum named name.
func (r *Registry) Enum(name string) (*EnumDef, bool) {
	def, ok := r.enums[name]
	return def, ok
}

// Classify reports the kind of name, checked in the order struct, alias, enum,
// opaque, unknown. A name held by several kinds is reported as the first.
func (r *Registry) Classify(name string) Kind {
	if _, ok := r.structs[name]; ok {
		return KindStruct
	}
	if _, ok := r.aliases[name]; ok {
		return KindAlias
	}
	if _, ok := r.enums[name]; ok {
		return KindEnum
	}
	if _, ok := r.opaque[name]; ok {
		return KindOpaque
	}
	if _, ok := r.Unknown(name); ok {
		return KindUnknown
	}
	return KindNone
}

// Kinds returns every kind holding name, in priority order.
func (r *Registry) Kinds(name string) []Kind {
	var out []Kind
	if _, ok := r.structs[name]; ok {
		out = append(out, KindStruct)
	}
	if _, ok := r.aliases[name]; ok {
		out = append(out, KindAlias)
	}
	if _, ok := r.enums[name]; ok {
		out = append(out, KindEnum)
	}
	if _, ok := r.opaque[name]; ok {
		out = append(out, KindOpaque)
	}
	return out
}

// Known reports whether name is declared as a struct, alias, enum or opaque type.
func (r *Registry) Known(name string) bool {
	return len(r.Kinds(name)) > 0
}

// Structs returns all structs in declaration order.
func (r *Registry) Structs() []*StructDef {
	return sortedByOrder(r.structs, func(d *StructDef) int { return d.Order })
}

// Aliases returns all typedefs in declaration order.
func (r *Registry) Aliases() []*TypeDef {
	return sortedByOrder(r.aliases, func(d *TypeDef) int { return d.Order })
}

// Enums returns all enums in declaration order.
func (r *Registry) Enums() []*EnumDef {
	return sortedByOrder(r.enums, func(d *EnumDef) int { return d.Order })
}

// Opaque returns the opaque names in declaration order.
func (r *Registry) Opaque() []string {
	names := make([]string, 0, len(r.opaque))
	for name := range r.opaque {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int { return cmp.Compare(r.opaque[a], r.opaque[b]) })
	return names
}

func sortedByOrder[T any](m map[string]T, order func(T) int) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(order(a), order(b)) })
	return out
}

// MarkUnknown records spelling as unresolvable and returns its placeholder name.
// Repeated calls with the same spelling return the same name. The name never
// collides with a declared type or another spelling's placeholder.
func (r *Registry) MarkUnknown(spelling string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sentinel, ok := r.unknown[spelling]; ok {
		return sentinel
	}
	base := Sentinel(spelling)
	sentinel := base
	for i := 2; ; i++ {
		owner, taken := r.sentinels[sentinel]
		if (!taken || owner == spelling) && !r.Known(sentinel) {
			break
		}
		sentinel = base + strconv.Itoa(i)
	}
	r.unknown[spelling] = sentinel
	r.sentinels[sentinel] = spelling
	return sentinel
}

// Unknown returns the placeholder recorded for spelling.
func (r *Registry) Unknown(spelling string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sentinel, ok := r.unknown[spelling]
	return sentinel, ok
}

// Unknowns returns a snapshot of the unknown set sorted by placeholder name.
func (r *Registry) Unknowns() []Unknown {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Unknown, 0, len(r.unknown))
	for spelling, sentinel := range r.unknown {
		out = append(out, Unknown{Spelling: spelling, Sentinel: sentinel})
	}
	slices.SortFunc(out, func(a, b Unknown) int { return cmp.Compare(a.Sentinel, b.Sentinel) })
	return out
}

// Sentinel mangles spelling into a placeholder identifier: every character that is not
// an ASCII letter or digit becomes '_' and "_t" is appended.
func Sentinel(spelling string) string {
	var b strings.Builder
	b.Grow(len(spelling) + 2)
	for i := 0; i < len(spelling); i++ {
		c := spelling[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "_" + out
	}
	return out + "_t"
}
