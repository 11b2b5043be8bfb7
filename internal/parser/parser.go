package parser

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// Parser builds a translation unit from a C source file.
type Parser interface {
	Parse(ctx context.Context, path string, args []string) (*TranslationUnit, error)
}

// RunFunc executes name with args and returns its standard output and error streams.
type RunFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// ErrClangNotFound is returned when the clang binary cannot be executed.
var ErrClangNotFound = errors.New("clang not found")

type clangParser struct {
	binary string
	run    RunFunc
}

// Option configures the clang parser.
type Option func(*clangParser)

// WithBinary sets the clang executable; the default is "clang" from PATH.
func WithBinary(name string) Option {
	return func(p *clangParser) {
		if name != "" {
			p.binary = name
		}
	}
}

// WithRunner replaces process execution.
func WithRunner(run RunFunc) Option {
	return func(p *clangParser) {
		if run != nil {
			p.run = run
		}
	}
}

// NewClang returns a parser backed by clang's JSON AST dump.
func NewClang(opts ...Option) Parser {
	p := &clangParser{binary: "clang", run: runCommand}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *clangParser) Parse(ctx context.Context, path string, args []string) (*TranslationUnit, error) {
	if err := p.checkVersion(ctx); err != nil {
		return nil, err
	}

	argv := append([]string{"-Xclang", "-ast-dump=json", "-fsyntax-only"}, args...)
	argv = append(argv, path)

	stdout, stderr, runErr := p.run(ctx, p.binary, argv...)
	if runErr != nil && len(bytes.TrimSpace(stdout)) == 0 {
		return nil, errors.WithDetail(
			errors.Wrapf(runErr, "clang failed to parse %s", path),
			strings.TrimSpace(string(stderr)),
		)
	}

	tu, err := Decode(bytes.NewReader(stdout), path)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	tu.Messages = splitMessages(stderr)
	return tu, nil
}

func (p *clangParser) checkVersion(ctx context.Context) error {
	stdout, _, err := p.run(ctx, p.binary, "--version")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return errors.WithHint(
				errors.Mark(errors.Wrapf(err, "run %s", p.binary), ErrClangNotFound),
				"install clang 9 or newer, or point --clang at the binary",
			)
		}
		return errors.Wrapf(err, "run %s --version", p.binary)
	}
	return CheckVersion(string(stdout))
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func splitMessages(stderr []byte) []string {
	var out []string
	for _, line := range strings.Split(string(stderr), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "error:") || strings.Contains(line, "warning:") {
			out = append(out, line)
		}
	}
	return out
}
