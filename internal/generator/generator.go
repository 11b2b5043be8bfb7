package generator

import (
	"bytes"
	"embed"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/imports"

	"github.com/seitarof/gen-ffi/internal/registry"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ErrNoStructs is returned when no struct matched the requested files.
var ErrNoStructs = errors.New("no structs to emit")

// Generator renders bindings to a file.
type Generator interface {
	Generate(cfg Config, b *Bindings) error
}

// Config is the minimum config contract required by generator.
type Config interface {
	OutputFilename() string
	SourceFilename() string
	Language() string
	PackageName() string
}

// Formatter formats generated source.
type Formatter interface {
	Format(filename string, src []byte) ([]byte, error)
}

// FileWriter writes generated code to disk.
type FileWriter interface {
	Write(filename string, data []byte) error
}

type generatorImpl struct {
	formatter Formatter
	writer    FileWriter
	tmpls     map[string]*template.Template
}

type sourceFormatter struct{}

type fileWriter struct {
	backup bool
}

type templateData struct {
	Source       string
	Package      string
	Structs      []structData
	Enums        []enumData
	Aliases      []aliasData
	Placeholders []aliasData
}

type structData struct {
	Name   string
	Fields []fieldData
}

type fieldData struct {
	Name string
	Type string
	Note string
}

type enumData struct {
	Name string
	// Members lists every enumerator in declaration order.
	Members  []variantData
	Variants []variantData
	// Duplicates repeat the value of an earlier variant.
	Duplicates []variantData
}

type variantData struct {
	Name  string
	Value string
	// Explicit is set when the value differs from the implicit sequence of the
	// variants before it.
	Explicit bool
	Of       string
}

type aliasData struct {
	Name string
	Type string
	Note string
}

// New creates a code generator.
func New(f Formatter, w FileWriter) Generator {
	tmpls := make(map[string]*template.Template, len(languages))
	for name := range languages {
		tmpls[name] = template.Must(template.New(name+".tmpl").Funcs(template.FuncMap{
			"note": renderNote,
		}).ParseFS(templateFS, "templates/"+name+".tmpl"))
	}
	return &generatorImpl{formatter: f, writer: w, tmpls: tmpls}
}

// NewSourceFormatter formats Go output with goimports and tidies blank lines in
// everything else.
func NewSourceFormatter() Formatter {
	return &sourceFormatter{}
}

// NewFileWriter creates a file writer. With backup, an existing output file is
// renamed to the same name with a .bak extension first.
func NewFileWriter(backup bool) FileWriter {
	return &fileWriter{backup: backup}
}

func (g *generatorImpl) Generate(cfg Config, b *Bindings) error {
	if b == nil || len(b.Structs) == 0 {
		return errors.WithHint(
			errors.Wrapf(ErrNoStructs, "source %s", cfg.SourceFilename()),
			"only structs physically defined in the source file are emitted; use --include-referenced for the rest",
		)
	}
	lang, err := LookupLanguage(cfg.Language())
	if err != nil {
		return err
	}

	data := buildTemplateData(lang, cfg, b)
	var buf bytes.Buffer
	if err := g.tmpls[lang.Name()].Execute(&buf, data); err != nil {
		return errors.Wrap(err, "template")
	}

	formatted, err := g.formatter.Format(cfg.OutputFilename(), buf.Bytes())
	if err != nil {
		return errors.Wrap(err, "format")
	}
	if err := g.writer.Write(cfg.OutputFilename(), formatted); err != nil {
		return errors.Wrap(err, "write")
	}
	return nil
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

func (f *sourceFormatter) Format(filename string, src []byte) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(filename), ".go") {
		return imports.Process(filename, src, nil)
	}
	out := blankRuns.ReplaceAll(bytes.TrimLeft(src, "\n"), []byte("\n\n"))
	return append(bytes.TrimRight(out, "\n"), '\n'), nil
}

func (w *fileWriter) Write(filename string, data []byte) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if w.backup {
		if _, err := os.Stat(filename); err == nil {
			if err := os.Rename(filename, BackupName(filename)); err != nil {
				return errors.Wrapf(err, "back up %s", filename)
			}
		}
	}
	return errors.Wrapf(os.WriteFile(filename, data, 0o644), "write %s", filename)
}

// BackupName swaps the extension of filename for .bak.
func BackupName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".bak"
}

func buildTemplateData(lang Language, cfg Config, b *Bindings) templateData {
	data := templateData{
		Source:  filepath.Base(cfg.SourceFilename()),
		Package: cfg.PackageName(),
	}

	for _, s := range b.Structs {
		sd := structData{Name: lang.Ident(s.Name)}
		taken := map[string]bool{}
		for _, f := range s.Fields {
			name := lang.FieldName(f.Name)
			for taken[name] {
				name += "_"
			}
			taken[name] = true

			fd := fieldData{Name: name, Type: lang.Type(f.Type)}
			if !f.Resolved {
				fd.Note = "unresolved: " + f.CType
			}
			sd.Fields = append(sd.Fields, fd)
		}
		data.Structs = append(data.Structs, sd)
	}

	for _, e := range b.Enums {
		data.Enums = append(data.Enums, buildEnumData(lang, e.Name, e.Members))
	}

	for _, a := range b.Aliases {
		ad := aliasData{Name: lang.Ident(a.Name), Type: lang.Type(a.Type)}
		if !a.Resolved {
			ad.Note = "unresolved: " + a.CType
		}
		data.Aliases = append(data.Aliases, ad)
	}

	for _, p := range b.Placeholders {
		ad := aliasData{Name: lang.Ident(p.Name), Type: lang.Placeholder()}
		if p.CType != "" {
			ad.Note = "unresolved: " + p.CType
		}
		data.Placeholders = append(data.Placeholders, ad)
	}
	return data
}

func buildEnumData(lang Language, name string, members []registry.EnumMember) enumData {
	ed := enumData{Name: lang.Ident(name)}
	first := map[int64]string{}
	next := int64(0)
	for _, m := range members {
		v := variantData{Name: lang.Ident(m.Name), Value: strconv.FormatInt(m.Value, 10)}
		if prev, ok := first[m.Value]; ok {
			v.Of = prev
			ed.Duplicates = append(ed.Duplicates, v)
			ed.Members = append(ed.Members, v)
			continue
		}
		v.Explicit = m.Value != next
		next = m.Value + 1
		first[m.Value] = v.Name
		ed.Variants = append(ed.Variants, v)
		ed.Members = append(ed.Members, v)
	}
	return ed
}

func renderNote(note string) string {
	if note == "" {
		return ""
	}
	return " // " + strings.ReplaceAll(note, "\n", " ")
}
