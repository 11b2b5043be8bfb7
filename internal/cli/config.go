package cli

import (
	"path/filepath"
	"strings"

	"github.com/seitarof/gen-ffi/internal/generator"
)

// Config stores options for a single generation run.
type Config struct {
	Source            string
	Output            string
	Lang              string
	Package           string
	Strict            bool
	Backup            bool
	IncludeReferenced bool
	Ignore            []string
	Clang             string
	ClangArgs         []string
	// NativeTypes extends the native table, spelling -> primitive name.
	NativeTypes map[string]string
	// Dump names a file that receives the YAML registry dump; empty disables it.
	Dump        string
	LogJSON     bool
	Verbose     bool
	ShowVersion bool
}

// OutputFilename returns the destination file, defaulting to the source name with
// the language's extension.
func (c *Config) OutputFilename() string {
	if c.Output != "" {
		return c.Output
	}
	ext := "rs"
	if lang, err := generator.LookupLanguage(c.Language()); err == nil {
		ext = lang.Extension()
	}
	return strings.TrimSuffix(c.Source, filepath.Ext(c.Source)) + "." + ext
}

// SourceFilename returns the header being bound.
func (c *Config) SourceFilename() string {
	return c.Source
}

// Language returns the output language name.
func (c *Config) Language() string {
	if c.Lang == "" {
		return defaultLang
	}
	return c.Lang
}

// PackageName returns the package clause used by languages that need one.
func (c *Config) PackageName() string {
	if c.Package == "" {
		return defaultPackage
	}
	return c.Package
}
