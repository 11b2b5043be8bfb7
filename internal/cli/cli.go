package cli

import (
	"strings"

	"github.com/cockroachdb/errors"
	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/seitarof/gen-ffi/internal/generator"
)

const (
	envPrefix      = "GENFFI"
	defaultLang    = "rust"
	defaultPackage = "bindings"
	defaultClang   = "clang"
)

// ErrUsage marks command line mistakes.
var ErrUsage = errors.New("usage")

// flagKeys binds config keys to the flags that override them.
var flagKeys = map[string]string{
	"output":             "output",
	"lang":               "lang",
	"package":            "package",
	"strict":             "strict",
	"include_referenced": "include-referenced",
	"ignore":             "ignore",
	"clang":              "clang",
	"dump":               "dump",
	"log_json":           "log-json",
	"verbose":            "verbose",
}

type nativeType struct {
	Spelling string `mapstructure:"spelling"`
	Type     string `mapstructure:"type"`
}

type fileConfig struct {
	Output            string       `mapstructure:"output"`
	Lang              string       `mapstructure:"lang"`
	Package           string       `mapstructure:"package"`
	Strict            bool         `mapstructure:"strict"`
	Backup            bool         `mapstructure:"backup"`
	IncludeReferenced bool         `mapstructure:"include_referenced"`
	Ignore            []string     `mapstructure:"ignore"`
	Clang             string       `mapstructure:"clang"`
	ClangArgs         string       `mapstructure:"clang_args"`
	NativeTypes       []nativeType `mapstructure:"native_types"`
	Dump              string       `mapstructure:"dump"`
	LogJSON           bool         `mapstructure:"log_json"`
	Verbose           bool         `mapstructure:"verbose"`
}

// ParseArgs parses "gen-ffi [flags] <source> [-- clang args...]" into Config.
// Flags win over GENFFI_* environment variables, which win over the --config file.
func ParseArgs(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("gen-ffi", pflag.ContinueOnError)
	fs.StringP("output", "o", "", "output file (default: source name with the language extension)")
	fs.String("lang", defaultLang, "output language: "+strings.Join(generator.Languages(), ", "))
	fs.String("package", defaultPackage, "package name for languages that need one")
	fs.Bool("strict", false, "fail when any type cannot be resolved")
	fs.Bool("include-referenced", false, "also emit structs from other files that emitted structs use")
	fs.StringSlice("ignore", nil, "comma-separated declaration names or globs to skip")
	fs.String("clang", defaultClang, "clang binary")
	fs.String("dump", "", "write the collected declarations as YAML to this file")
	fs.Bool("no-backup", false, "overwrite the output without keeping a .bak copy")
	fs.Bool("log-json", false, "log as JSON")
	fs.Bool("verbose", false, "log debug details")
	fs.StringArray("native", nil, "extra native type as spelling=primitive, repeatable")
	configPath := fs.String("config", "", "config file (toml, yaml or json)")
	showVersion := fs.BoolP("version", "v", false, "show version")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Mark(err, ErrUsage)
	}
	if *showVersion {
		return &Config{ShowVersion: true}, nil
	}

	positional, clangArgs := splitAtDash(fs)
	if len(positional) != 1 {
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("expected exactly one source file, got %d", len(positional)), ErrUsage),
			"usage: gen-ffi [flags] <source> [-- clang args...]",
		)
	}

	v, err := newViper(fs, *configPath)
	if err != nil {
		return nil, err
	}
	if fs.Changed("no-backup") {
		noBackup, _ := fs.GetBool("no-backup")
		v.Set("backup", !noBackup)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	cfg := &Config{
		Source:            positional[0],
		Output:            strings.TrimSpace(fc.Output),
		Lang:              strings.ToLower(strings.TrimSpace(fc.Lang)),
		Package:           strings.TrimSpace(fc.Package),
		Strict:            fc.Strict,
		Backup:            fc.Backup,
		IncludeReferenced: fc.IncludeReferenced,
		Ignore:            splitCommaList(fc.Ignore),
		Clang:             strings.TrimSpace(fc.Clang),
		Dump:              strings.TrimSpace(fc.Dump),
		LogJSON:           fc.LogJSON,
		Verbose:           fc.Verbose,
	}

	if fc.ClangArgs != "" {
		split, err := shellquote.Split(fc.ClangArgs)
		if err != nil {
			return nil, errors.Wrapf(err, "clang_args %q", fc.ClangArgs)
		}
		cfg.ClangArgs = split
	}
	cfg.ClangArgs = append(cfg.ClangArgs, clangArgs...)

	natives, err := nativeTypes(fc.NativeTypes, fs)
	if err != nil {
		return nil, err
	}
	cfg.NativeTypes = natives

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper(fs *pflag.FlagSet, configPath string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	for key, name := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errors.Wrapf(err, "bind --%s", name)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configPath)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output", "")
	v.SetDefault("lang", defaultLang)
	v.SetDefault("package", defaultPackage)
	v.SetDefault("strict", false)
	v.SetDefault("backup", true)
	v.SetDefault("include_referenced", false)
	v.SetDefault("ignore", []string{})
	v.SetDefault("clang", defaultClang)
	v.SetDefault("clang_args", "")
	v.SetDefault("native_types", []map[string]string{})
	v.SetDefault("dump", "")
	v.SetDefault("log_json", false)
	v.SetDefault("verbose", false)
}

// splitAtDash separates positional arguments from the arguments after "--",
// which are passed to clang untouched.
func splitAtDash(fs *pflag.FlagSet) ([]string, []string) {
	rest := fs.Args()
	at := fs.ArgsLenAtDash()
	if at < 0 {
		return rest, nil
	}
	return rest[:at], rest[at:]
}

// nativeTypes merges config entries with --native flags; flags are applied last.
// Entries are lists rather than maps because config keys are case-folded.
func nativeTypes(entries []nativeType, fs *pflag.FlagSet) (map[string]string, error) {
	out := map[string]string{}
	for _, e := range entries {
		spelling := strings.TrimSpace(e.Spelling)
		if spelling == "" {
			return nil, errors.Newf("native_types entry with type %q has no spelling", e.Type)
		}
		out[spelling] = strings.TrimSpace(e.Type)
	}

	flags, _ := fs.GetStringArray("native")
	for _, raw := range flags {
		spelling, typ, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(spelling) == "" {
			return nil, errors.WithHint(
				errors.Mark(errors.Newf("--native %q", raw), ErrUsage),
				`expected spelling=primitive, e.g. --native "HANDLE=ptr"`,
			)
		}
		out[strings.TrimSpace(spelling)] = strings.TrimSpace(typ)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Source) == "" {
		return errors.Mark(errors.New("source file is required"), ErrUsage)
	}
	if _, err := generator.LookupLanguage(cfg.Language()); err != nil {
		return errors.Mark(err, ErrUsage)
	}
	if cfg.Clang == "" {
		return errors.Mark(errors.New("--clang must not be empty"), ErrUsage)
	}
	return nil
}

func splitCommaList(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, p := range strings.Split(item, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
