package registry

import (
	"io"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type dumpField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type dumpStruct struct {
	Name   string      `yaml:"name"`
	File   string      `yaml:"file,omitempty"`
	Fields []dumpField `yaml:"fields"`
}

type dumpAlias struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Pointer bool   `yaml:"pointer,omitempty"`
	File    string `yaml:"file,omitempty"`
}

type dumpMember struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

type dumpEnum struct {
	Name    string       `yaml:"name"`
	File    string       `yaml:"file,omitempty"`
	Members []dumpMember `yaml:"members"`
}

type dumpUnknown struct {
	Spelling string `yaml:"spelling"`
	Sentinel string `yaml:"sentinel"`
}

type dumpDoc struct {
	Structs []dumpStruct  `yaml:"structs,omitempty"`
	Aliases []dumpAlias   `yaml:"aliases,omitempty"`
	Enums   []dumpEnum    `yaml:"enums,omitempty"`
	Opaque  []string      `yaml:"opaque,omitempty"`
	Unknown []dumpUnknown `yaml:"unknown,omitempty"`
}

// Dump writes the registry contents to w as YAML, in declaration order.
func (r *Registry) Dump(w io.Writer) error {
	var doc dumpDoc
	for _, s := range r.Structs() {
		ds := dumpStruct{Name: s.Name, File: s.SourceFile}
		for _, f := range s.Fields {
			ds.Fields = append(ds.Fields, dumpField{Name: f.Name, Type: f.Spelling})
		}
		doc.Structs = append(doc.Structs, ds)
	}
	for _, a := range r.Aliases() {
		doc.Aliases = append(doc.Aliases, dumpAlias{Name: a.Name, Type: a.Spelling, Pointer: a.IsPointer, File: a.SourceFile})
	}
	for _, e := range r.Enums() {
		de := dumpEnum{Name: e.Name, File: e.SourceFile}
		for _, m := range e.Members {
			de.Members = append(de.Members, dumpMember{Name: m.Name, Value: m.Value})
		}
		doc.Enums = append(doc.Enums, de)
	}
	doc.Opaque = r.Opaque()
	for _, u := range r.Unknowns() {
		doc.Unknown = append(doc.Unknown, dumpUnknown{Spelling: u.Spelling, Sentinel: u.Sentinel})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encode registry dump")
	}
	return errors.Wrap(enc.Close(), "flush registry dump")
}
