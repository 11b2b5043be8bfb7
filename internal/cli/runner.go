package cli

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/seitarof/gen-ffi/internal/collector"
	"github.com/seitarof/gen-ffi/internal/diag"
	"github.com/seitarof/gen-ffi/internal/generator"
	"github.com/seitarof/gen-ffi/internal/matcher"
	"github.com/seitarof/gen-ffi/internal/parser"
	"github.com/seitarof/gen-ffi/internal/registry"
	"github.com/seitarof/gen-ffi/internal/resolver"
	"github.com/seitarof/gen-ffi/internal/target"
)

// ErrUnresolved is returned by strict runs that left types unresolved.
var ErrUnresolved = errors.New("unresolved types")

// Runner orchestrates the parser, collector, emitter and generator layers.
type Runner interface {
	Run(ctx context.Context, cfg *Config) error
}

type runnerImpl struct {
	parser    parser.Parser
	collector collector.Collector
	generator generator.Generator
	log       *zap.SugaredLogger
	rules     []resolver.Rule
}

// NewRunner creates a default runner implementation. Without rules the resolver
// uses resolver.DefaultRules.
func NewRunner(
	p parser.Parser,
	c collector.Collector,
	g generator.Generator,
	log *zap.SugaredLogger,
	rules ...resolver.Rule,
) Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &runnerImpl{
		parser:    p,
		collector: c,
		generator: g,
		log:       log,
		rules:     rules,
	}
}

// Run executes a single generation cycle.
func (r *runnerImpl) Run(ctx context.Context, cfg *Config) error {
	natives := resolver.DefaultNativeTable()
	if err := natives.Extend(cfg.NativeTypes); err != nil {
		return errors.WithHint(errors.Wrap(err, "native types"), "primitives: "+strings.Join(target.PrimitiveNames(), ", "))
	}

	r.log.Debugw("parsing", "source", cfg.SourceFilename(), "clang_args", cfg.ClangArgs)
	tu, err := r.parser.Parse(ctx, cfg.SourceFilename(), cfg.ClangArgs)
	if err != nil {
		return errors.Wrap(err, "parse")
	}

	reg, diags := r.collector.Collect(tu)
	r.log.Debugw("collected",
		"decls", len(tu.Decls),
		"structs", len(reg.Structs()),
		"aliases", len(reg.Aliases()),
		"enums", len(reg.Enums()),
		"opaque", len(reg.Opaque()),
	)

	rules := r.rules
	if len(rules) == 0 {
		rules = resolver.DefaultRules()
	}
	b := generator.Emit(reg, resolver.New(natives, rules...), matcher.NewFileFilter(cfg.SourceFilename()), generator.Options{
		Natives:           natives,
		Ignore:            matcher.NewNameFilter(cfg.Ignore),
		IncludeReferenced: cfg.IncludeReferenced,
	})
	diags = append(diags, b.Diagnostics...)
	r.report(diags)

	if cfg.Dump != "" {
		if err := dumpRegistry(cfg.Dump, reg); err != nil {
			return err
		}
		r.log.Infow("dumped declarations", "file", cfg.Dump)
	}

	if n := diags.Count(diag.SeverityError); cfg.Strict && n > 0 {
		return errors.WithHint(
			errors.Wrapf(ErrUnresolved, "%d unresolved declarations", n),
			"map the spellings with native_types or pass the defining headers to clang after --",
		)
	}

	if err := r.generator.Generate(cfg, b); err != nil {
		return errors.Wrap(err, "generate")
	}
	r.log.Infow("wrote bindings",
		"output", cfg.OutputFilename(),
		"lang", cfg.Language(),
		"structs", len(b.Structs),
		"enums", len(b.Enums),
		"aliases", len(b.Aliases),
		"placeholders", len(b.Placeholders),
	)
	return nil
}

func (r *runnerImpl) report(diags diag.List) {
	for _, d := range diags {
		kv := []any{"code", string(d.Code)}
		if d.Subject != "" {
			kv = append(kv, "subject", d.Subject)
		}
		if d.Spelling != "" {
			kv = append(kv, "spelling", d.Spelling)
		}
		switch d.Severity {
		case diag.SeverityError:
			r.log.Errorw(d.Message, kv...)
		case diag.SeverityWarning:
			r.log.Warnw(d.Message, kv...)
		default:
			r.log.Infow(d.Message, kv...)
		}
	}
}

func dumpRegistry(path string, reg *registry.Registry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create dump %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close dump %s", path)
		}
	}()
	return errors.Wrapf(reg.Dump(f), "dump %s", path)
}
