package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// anonSpelling matches clang's spelling of an unnamed tag type, e.g.
// "struct (unnamed struct at /src/shape.h:3:9)" or "enum (anonymous at shape.h:7:1)".
var anonSpelling = regexp.MustCompile(`(struct|union|enum) \((?:unnamed|anonymous)(?: struct| union| enum)? at ([^)]+)\)`)

// nameAnonymous gives unnamed structs and enums the name of the typedef that owns them
// (typedef struct { ... } Point;) and rewrites every spelling that refers to them.
func nameAnonymous(decls []*Decl) {
	byID := make(map[string]*Decl)
	for _, d := range decls {
		if d.id != "" && (d.Kind == DeclStruct || d.Kind == DeclEnum) {
			byID[d.id] = d
		}
	}

	byLoc := make(map[string]string)
	for _, td := range decls {
		if td.Kind != DeclTypedef {
			continue
		}
		for _, ref := range td.refs {
			tag, ok := byID[ref]
			if !ok || tag.Name != "" {
				continue
			}
			tag.Name = td.Name
			if tag.HasLocation() {
				byLoc[locKey(tag)] = td.Name
			}
			break
		}
	}
	if len(byLoc) == 0 {
		return
	}

	rewrite := func(spelling string) string {
		if !strings.Contains(spelling, " at ") {
			return spelling
		}
		return anonSpelling.ReplaceAllStringFunc(spelling, func(m string) string {
			sub := anonSpelling.FindStringSubmatch(m)
			if name, ok := lookupLoc(byLoc, sub[2]); ok {
				return sub[1] + " " + name
			}
			return m
		})
	}
	for _, d := range decls {
		switch d.Kind {
		case DeclTypedef:
			d.Type = rewrite(d.Type)
		case DeclStruct:
			for _, f := range d.Children {
				f.Type = rewrite(f.Type)
			}
		}
	}
}

func locKey(d *Decl) string {
	return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Col)
}

// lookupLoc matches a "file:line:col" location; clang may print the file relative to
// its working directory, so a suffix match on the path is accepted.
func lookupLoc(byLoc map[string]string, loc string) (string, bool) {
	if name, ok := byLoc[loc]; ok {
		return name, true
	}
	for key, name := range byLoc {
		if strings.HasSuffix(key, "/"+loc) {
			return name, true
		}
	}
	return "", false
}
