package ctype

import (
	"strings"
)

// Kind is the closed set of C type shapes the resolver understands.
type Kind int

const (
	KindNamed Kind = iota
	KindPointer
	KindArray
	KindStructRef
)

func (k Kind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindStructRef:
		return "struct-ref"
	default:
		return "unknown"
	}
}

// Shape is a normalized C type spelling.
//
// Named carries Name (and optionally Keyword, "enum" or "union"), StructRef carries Name,
// Pointer carries Elem, Array carries Elem and Len.
type Shape struct {
	Kind    Kind
	Name    string
	Keyword string
	Elem    *Shape
	Len     string
}

// Named returns a plain named shape such as "int" or "Point".
func Named(name string) Shape {
	return Shape{Kind: KindNamed, Name: name}
}

// StructRef returns the shape of an elaborated "struct Name" reference.
func StructRef(name string) Shape {
	return Shape{Kind: KindStructRef, Name: name}
}

// PointerTo wraps elem in one pointer level.
func PointerTo(elem Shape) Shape {
	return Shape{Kind: KindPointer, Elem: &elem}
}

// ArrayOf wraps elem in a fixed-size array of length n.
func ArrayOf(elem Shape, n string) Shape {
	return Shape{Kind: KindArray, Elem: &elem, Len: n}
}

var qualifiers = map[string]bool{
	"const":      true,
	"volatile":   true,
	"restrict":   true,
	"__restrict": true,
}

// Parse normalizes a C type spelling as reported by clang into a Shape.
//
// Spellings the grammar cannot express (function pointers, parenthesized declarators)
// come back as Named with the whitespace-normalized raw text.
func Parse(spelling string) Shape {
	s := Normalize(spelling)
	if s == "" || strings.ContainsAny(s, "()") {
		return Named(s)
	}

	base, dims, ok := splitArray(s)
	if !ok {
		return Named(s)
	}

	shape, ok := parseBase(base)
	if !ok {
		return Named(s)
	}
	for i := len(dims) - 1; i >= 0; i-- {
		shape = ArrayOf(shape, dims[i])
	}
	return shape
}

func splitArray(s string) (string, []string, bool) {
	idx := strings.IndexByte(s, '[')
	if idx < 0 {
		return s, nil, true
	}
	base := strings.TrimSpace(s[:idx])
	rest := s[idx:]

	var dims []string
	for rest != "" {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}
		if rest[0] != '[' {
			return "", nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, false
		}
		dims = append(dims, strings.TrimSpace(rest[1:end]))
		rest = rest[end+1:]
	}
	return base, dims, base != ""
}

func parseBase(base string) (Shape, bool) {
	depth := strings.Count(base, "*")
	words := strings.Fields(strings.ReplaceAll(base, "*", " "))

	kept := words[:0]
	for _, w := range words {
		if qualifiers[w] {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return Shape{}, false
	}

	var shape Shape
	switch kept[0] {
	case "struct":
		if len(kept) < 2 {
			return Shape{}, false
		}
		shape = StructRef(strings.Join(kept[1:], " "))
	case "enum", "union":
		if len(kept) < 2 {
			return Shape{}, false
		}
		shape = Shape{Kind: KindNamed, Keyword: kept[0], Name: strings.Join(kept[1:], " ")}
	default:
		shape = Named(strings.Join(kept, " "))
	}

	for i := 0; i < depth; i++ {
		shape = PointerTo(shape)
	}
	return shape, true
}

// Normalize collapses whitespace and canonicalizes pointer spacing so that
// "char*", "char *" and "char  *" compare equal.
func Normalize(spelling string) string {
	out := make([]byte, 0, len(spelling)+4)
	last := func() byte {
		if len(out) == 0 {
			return 0
		}
		return out[len(out)-1]
	}
	pendingSpace := false
	for i := 0; i < len(spelling); i++ {
		c := spelling[i]
		switch c {
		case ' ', '\t', '\n', '\r':
			pendingSpace = true
			continue
		case '*':
			if l := last(); l != 0 && l != '*' && l != '(' {
				out = append(out, ' ')
			}
		case '[':
			if l := last(); l != 0 && l != '*' && l != ']' {
				out = append(out, ' ')
			}
		case ']', ')', ',':
		default:
			if l := last(); pendingSpace && l != 0 && l != '[' && l != '(' {
				out = append(out, ' ')
			} else if l == '*' {
				out = append(out, ' ')
			}
		}
		out = append(out, c)
		pendingSpace = false
	}
	return string(out)
}

// String renders the canonical spelling of s. For parseable spellings it matches
// Normalize with qualifiers dropped.
func (s Shape) String() string {
	switch s.Kind {
	case KindNamed:
		if s.Keyword != "" {
			return s.Keyword + " " + s.Name
		}
		return s.Name
	case KindStructRef:
		return "struct " + s.Name
	case KindPointer:
		inner := s.Elem.String()
		if strings.HasSuffix(inner, "*") {
			return inner + "*"
		}
		return inner + " *"
	case KindArray:
		var dims strings.Builder
		cur := s
		for cur.Kind == KindArray {
			dims.WriteString("[" + cur.Len + "]")
			cur = *cur.Elem
		}
		elem := cur.String()
		if strings.HasSuffix(elem, "*") {
			return elem + dims.String()
		}
		return elem + " " + dims.String()
	default:
		return ""
	}
}

// Leaf returns the innermost Named or StructRef shape.
func (s Shape) Leaf() Shape {
	cur := s
	for cur.Elem != nil && (cur.Kind == KindPointer || cur.Kind == KindArray) {
		cur = *cur.Elem
	}
	return cur
}

// IsPointer reports whether the outermost level is a pointer.
func (s Shape) IsPointer() bool {
	return s.Kind == KindPointer
}

// Levels returns every nesting level of s from the outside in, ending with the leaf.
func (s Shape) Levels() []Shape {
	var out []Shape
	cur := s
	for {
		out = append(out, cur)
		if cur.Elem == nil {
			return out
		}
		cur = *cur.Elem
	}
}

// IsIdentifier reports whether name can stand as a declaration name in the output.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// ByValue replaces a struct reference that is not behind a pointer with a plain
// named shape, so "struct Point" and "struct Point [2]" name Point by value while
// "struct Point *" keeps its reference.
func (s Shape) ByValue() Shape {
	switch s.Kind {
	case KindStructRef:
		return Named(s.Name)
	case KindArray:
		return ArrayOf(s.Elem.ByValue(), s.Len)
	default:
		return s
	}
}
