package parser

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

// MinClangVersion is the first release with -ast-dump=json.
const MinClangVersion = ">= 9.0.0"

// ErrClangTooOld is returned by CheckVersion for releases without JSON AST output.
var ErrClangTooOld = errors.New("clang is too old")

var clangVersionRe = regexp.MustCompile(`clang version (\d+(?:\.\d+){0,2})`)

// CheckVersion validates the output of "clang --version".
func CheckVersion(output string) error {
	m := clangVersionRe.FindStringSubmatch(output)
	if m == nil {
		return errors.Newf("unrecognised clang version output: %q", firstLine(output))
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return errors.Wrapf(err, "invalid clang version %s", m[1])
	}
	constraint, err := semver.NewConstraint(MinClangVersion)
	if err != nil {
		return errors.Wrap(err, "invalid clang version constraint")
	}
	if !constraint.Check(v) {
		return errors.WithHint(
			errors.Wrapf(ErrClangTooOld, "found clang %s, need %s", v, MinClangVersion),
			"upgrade clang or point --clang at a newer binary",
		)
	}
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
