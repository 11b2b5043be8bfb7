package collector

import (
	"fmt"
	"slices"
	"strings"

	"github.com/seitarof/gen-ffi/internal/ctype"
	"github.com/seitarof/gen-ffi/internal/diag"
	"github.com/seitarof/gen-ffi/internal/parser"
	"github.com/seitarof/gen-ffi/internal/registry"
)

// Collector builds a registry from the top-level declarations of a translation unit.
// No type spelling is resolved here.
type Collector interface {
	Collect(tu *parser.TranslationUnit) (*registry.Registry, diag.List)
}

type collectorImpl struct{}

// New returns the default collector.
func New() Collector {
	return &collectorImpl{}
}

type pass struct {
	reg        *registry.Registry
	diags      diag.List
	collisions map[string]struct{}
}

func (c *collectorImpl) Collect(tu *parser.TranslationUnit) (*registry.Registry, diag.List) {
	p := &pass{reg: registry.New(), collisions: map[string]struct{}{}}
	if tu == nil {
		return p.reg, nil
	}

	for _, msg := range tu.Messages {
		p.diags.Warnf(diag.CodeParserMessage, "", "", "%s", msg)
	}
	for _, d := range tu.Decls {
		if d == nil || d.Name == "" {
			continue
		}
		switch d.Kind {
		case parser.DeclStruct:
			p.structDecl(d)
		case parser.DeclTypedef:
			p.typedefDecl(d)
		case parser.DeclEnum:
			p.enumDecl(d)
		}
	}
	p.reportCollisions()
	return p.reg, p.diags
}

func (p *pass) checkLocation(d *parser.Decl) {
	if !d.HasLocation() {
		p.diags.Warnf(diag.CodeMissingLocation, d.Name, "", "%s has no source location; file filters will not match it", d.Kind)
	}
}

func (p *pass) structDecl(d *parser.Decl) {
	if !d.Complete || len(d.Children) == 0 {
		if _, ok := p.reg.Struct(d.Name); !ok {
			p.reg.AddOpaque(d.Name)
		}
		return
	}
	p.checkLocation(d)

	def := registry.StructDef{Name: d.Name, SourceFile: d.File}
	for i, f := range d.Children {
		if f.Kind != parser.DeclField {
			continue
		}
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("anon%d", i)
		}
		subject := d.Name + "." + name
		if f.Type == "" {
			p.diags.Warnf(diag.CodeMissingType, subject, "", "field has no type; it will be emitted as a placeholder")
		}
		if f.Bitfield {
			p.diags.Warnf(diag.CodeBitField, subject, f.Type, "bit-field width is not preserved")
		}
		def.Fields = append(def.Fields, registry.Field{Name: name, Spelling: f.Type})
	}
	p.reg.AddStruct(def)
}

func (p *pass) typedefDecl(d *parser.Decl) {
	spelling := ctype.Normalize(d.Type)
	if strings.HasPrefix(spelling, "enum") {
		return
	}

	stripped := strings.ReplaceAll(spelling, "struct ", "")
	if stripped == d.Name || strings.TrimPrefix(spelling, "union ") == d.Name {
		if _, ok := p.reg.Struct(d.Name); !ok {
			p.reg.AddOpaque(d.Name)
		}
		return
	}

	switch p.reg.Classify(d.Name) {
	case registry.KindAlias:
		return
	case registry.KindStruct, registry.KindEnum:
		p.collisions[d.Name] = struct{}{}
		return
	}

	shape := ctype.Parse(spelling).ByValue()
	def := registry.TypeDef{
		Name:       d.Name,
		Spelling:   stripped,
		Shape:      shape,
		IsPointer:  shape.IsPointer(),
		SourceFile: d.File,
	}
	if def.IsPointer {
		def.Spelling = "*const " + strings.TrimSpace(strings.TrimSuffix(stripped, "*"))
	}
	p.checkLocation(d)
	p.reg.AddAlias(def)
}

func (p *pass) enumDecl(d *parser.Decl) {
	p.checkLocation(d)
	def := registry.EnumDef{Name: d.Name, SourceFile: d.File}
	seen := map[int64]string{}
	for _, c := range d.Children {
		if c.Kind != parser.DeclEnumConstant {
			continue
		}
		if first, ok := seen[c.Value]; ok {
			p.diags.Warnf(diag.CodeDuplicateValue, d.Name+"."+c.Name, "", "shares value %d with %s", c.Value, first)
		} else {
			seen[c.Value] = c.Name
		}
		def.Members = append(def.Members, registry.EnumMember{Name: c.Name, Value: c.Value})
	}
	p.reg.AddEnum(def)
}

// reportCollisions warns about names declared as more than one kind. Lookups keep
// the priority struct, alias, enum.
func (p *pass) reportCollisions() {
	for _, s := range p.reg.Structs() {
		if _, ok := p.reg.Enum(s.Name); ok {
			p.collisions[s.Name] = struct{}{}
		}
		if _, ok := p.reg.Alias(s.Name); ok {
			p.collisions[s.Name] = struct{}{}
		}
	}
	for _, a := range p.reg.Aliases() {
		if _, ok := p.reg.Enum(a.Name); ok {
			p.collisions[a.Name] = struct{}{}
		}
	}

	names := make([]string, 0, len(p.collisions))
	for name := range p.collisions {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		p.diags.Warnf(diag.CodeNameCollision, name, "", "declared as more than one kind; resolved as %s", p.reg.Classify(name))
	}
}
