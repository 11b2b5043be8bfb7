package parser

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNotTranslationUnit is returned when the JSON root is not a TranslationUnitDecl.
var ErrNotTranslationUnit = errors.New("AST root is not a translation unit")

type jsonLoc struct {
	File         string   `json:"file"`
	Line         int      `json:"line"`
	Col          int      `json:"col"`
	SpellingLoc  *jsonLoc `json:"spellingLoc"`
	ExpansionLoc *jsonLoc `json:"expansionLoc"`
}

type jsonRange struct {
	Begin jsonLoc `json:"begin"`
	End   jsonLoc `json:"end"`
}

type jsonType struct {
	QualType string `json:"qualType"`
}

type jsonRef struct {
	ID string `json:"id"`
}

type jsonNode struct {
	ID                 string          `json:"id"`
	Kind               string          `json:"kind"`
	Loc                jsonLoc         `json:"loc"`
	Range              jsonRange       `json:"range"`
	IsImplicit         bool            `json:"isImplicit"`
	Name               string          `json:"name"`
	TagUsed            string          `json:"tagUsed"`
	CompleteDefinition bool            `json:"completeDefinition"`
	IsBitfield         bool            `json:"isBitfield"`
	Type               *jsonType       `json:"type"`
	OwnedTagDecl       *jsonRef        `json:"ownedTagDecl"`
	Decl               *jsonRef        `json:"decl"`
	Value              json.RawMessage `json:"value"`
	Inner              []*jsonNode     `json:"inner"`
}

type position struct {
	file string
	line int
	col  int
}

// locTracker replays clang's location compression: "file" and "line" are only
// written when they differ from the previously written location, in document order.
type locTracker struct {
	file string
	line int
	abs  map[string]string
}

func (t *locTracker) bare(l jsonLoc) position {
	if l.File != "" {
		t.file = t.absPath(l.File)
	}
	if l.Line != 0 {
		t.line = l.Line
	}
	if l.Col == 0 && l.Line == 0 && l.File == "" {
		return position{}
	}
	return position{file: t.file, line: t.line, col: l.Col}
}

// loc prefers the expansion location of macro-produced declarations.
func (t *locTracker) loc(l jsonLoc) position {
	if l.SpellingLoc == nil && l.ExpansionLoc == nil {
		return t.bare(l)
	}
	var p position
	if l.SpellingLoc != nil {
		p = t.bare(*l.SpellingLoc)
	}
	if l.ExpansionLoc != nil {
		p = t.bare(*l.ExpansionLoc)
	}
	return p
}

func (t *locTracker) absPath(file string) string {
	if abs, ok := t.abs[file]; ok {
		return abs
	}
	abs := file
	if !filepath.IsAbs(file) {
		if p, err := filepath.Abs(file); err == nil {
			abs = p
		}
	}
	abs = filepath.Clean(abs)
	t.abs[file] = abs
	return abs
}

// visit updates the tracker for n's own location and range and returns n's position.
func (t *locTracker) visit(n *jsonNode) position {
	p := t.loc(n.Loc)
	t.loc(n.Range.Begin)
	t.loc(n.Range.End)
	return p
}

// skip replays the locations of a subtree that is not converted.
func (t *locTracker) skip(n *jsonNode) {
	t.visit(n)
	for _, c := range n.Inner {
		if c != nil {
			t.skip(c)
		}
	}
}

// Decode reads a clang JSON AST dump (-Xclang -ast-dump=json) for the source at path.
func Decode(r io.Reader, path string) (*TranslationUnit, error) {
	var root jsonNode
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, errors.Wrap(err, "decode clang AST")
	}
	if root.Kind != "TranslationUnitDecl" {
		return nil, errors.Wrapf(ErrNotTranslationUnit, "got %q", root.Kind)
	}

	t := &locTracker{abs: map[string]string{}}
	t.visit(&root)

	d := &decoder{tracker: t}
	for _, n := range root.Inner {
		if n == nil {
			continue
		}
		d.out = append(d.out, d.topLevel(n)...)
	}

	tu := &TranslationUnit{Path: t.absPath(path), Decls: d.out}
	nameAnonymous(tu.Decls)
	return tu, nil
}

type decoder struct {
	tracker *locTracker
	out     []*Decl
}

// topLevel converts n. Tag declarations nested inside a struct have file scope in C,
// so they are returned ahead of their parent.
func (d *decoder) topLevel(n *jsonNode) []*Decl {
	if n.IsImplicit {
		d.tracker.skip(n)
		return nil
	}
	switch n.Kind {
	case "RecordDecl":
		if n.TagUsed != "" && n.TagUsed != "struct" {
			d.tracker.skip(n)
			return []*Decl{{Kind: DeclOther, Name: n.Name}}
		}
		return d.record(n)
	case "EnumDecl":
		return []*Decl{d.enum(n)}
	case "TypedefDecl":
		return []*Decl{d.typedef(n)}
	default:
		p := d.tracker.visit(n)
		for _, c := range n.Inner {
			if c != nil {
				d.tracker.skip(c)
			}
		}
		return []*Decl{{Kind: DeclOther, Name: n.Name, File: p.file, Line: p.line, Col: p.col}}
	}
}

func (d *decoder) record(n *jsonNode) []*Decl {
	p := d.tracker.visit(n)
	decl := &Decl{
		Kind:     DeclStruct,
		Name:     n.Name,
		File:     p.file,
		Line:     p.line,
		Col:      p.col,
		Complete: n.CompleteDefinition,
		id:       n.ID,
	}

	var hoisted []*Decl
	for _, c := range n.Inner {
		if c == nil {
			continue
		}
		switch c.Kind {
		case "FieldDecl":
			fp := d.tracker.visit(c)
			for _, cc := range c.Inner {
				if cc != nil {
					d.tracker.skip(cc)
				}
			}
			decl.Children = append(decl.Children, &Decl{
				Kind:     DeclField,
				Name:     c.Name,
				Type:     qualType(c),
				File:     fp.file,
				Line:     fp.line,
				Col:      fp.col,
				Bitfield: c.IsBitfield,
			})
		case "RecordDecl", "EnumDecl":
			hoisted = append(hoisted, d.topLevel(c)...)
		default:
			d.tracker.skip(c)
		}
	}
	return append(hoisted, decl)
}

func (d *decoder) enum(n *jsonNode) *Decl {
	p := d.tracker.visit(n)
	decl := &Decl{Kind: DeclEnum, Name: n.Name, File: p.file, Line: p.line, Col: p.col, id: n.ID}

	next := int64(0)
	for _, c := range n.Inner {
		if c == nil {
			continue
		}
		if c.Kind != "EnumConstantDecl" {
			d.tracker.skip(c)
			continue
		}
		cp := d.tracker.visit(c)
		value := next
		if v, ok := constantValue(c.Inner); ok {
			value = v
		}
		for _, cc := range c.Inner {
			if cc != nil {
				d.tracker.skip(cc)
			}
		}
		decl.Children = append(decl.Children, &Decl{
			Kind:  DeclEnumConstant,
			Name:  c.Name,
			Value: value,
			File:  cp.file,
			Line:  cp.line,
			Col:   cp.col,
		})
		next = value + 1
	}
	return decl
}

func (d *decoder) typedef(n *jsonNode) *Decl {
	p := d.tracker.visit(n)
	decl := &Decl{Kind: DeclTypedef, Name: n.Name, Type: qualType(n), File: p.file, Line: p.line, Col: p.col, id: n.ID}
	for _, c := range n.Inner {
		if c != nil {
			d.tracker.skip(c)
			decl.refs = appendRefs(decl.refs, c)
		}
	}
	return decl
}

func qualType(n *jsonNode) string {
	if n.Type == nil {
		return ""
	}
	return n.Type.QualType
}

// appendRefs collects the tag declarations a typedef's type tree points at.
func appendRefs(refs []string, n *jsonNode) []string {
	if n.OwnedTagDecl != nil && n.OwnedTagDecl.ID != "" {
		refs = append(refs, n.OwnedTagDecl.ID)
	}
	if n.Decl != nil && n.Decl.ID != "" {
		refs = append(refs, n.Decl.ID)
	}
	for _, c := range n.Inner {
		if c != nil {
			refs = appendRefs(refs, c)
		}
	}
	return refs
}

// constantValue finds the evaluated initializer of an enum constant.
func constantValue(inner []*jsonNode) (int64, bool) {
	for _, n := range inner {
		if n == nil {
			continue
		}
		if len(n.Value) > 0 && (n.Kind == "ConstantExpr" || n.Kind == "IntegerLiteral") {
			if v, ok := parseValue(n.Value); ok {
				return v, true
			}
		}
		if v, ok := constantValue(n.Inner); ok {
			return v, true
		}
	}
	return 0, false
}

func parseValue(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, true
	}
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return int64(v), true
	}
	return 0, false
}
