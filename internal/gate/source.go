package gate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/danmuck/cictl/internal/tools"
)

// ConstraintSource extracts the required_ruby_version requirement from
// a gemspec. An empty requirement means unconstrained.
type ConstraintSource interface {
	RequiredRuby(ctx context.Context, gemspecPath string) (string, error)
}

// SpecScan reads the requirement straight out of the gemspec text. It
// never executes Ruby, which keeps eligibility cheap, but it only
// understands literal string assignments.
type SpecScan struct{}

var (
	requirementLine = regexp.MustCompile(`required_ruby_version\s*=\s*(.+)`)
	quotedValue     = regexp.MustCompile(`["']([^"']+)["']`)
)

func (SpecScan) RequiredRuby(_ context.Context, gemspecPath string) (string, error) {
	data, err := os.ReadFile(gemspecPath)
	if err != nil {
		return "", fmt.Errorf("gate: read gemspec: %w", err)
	}
	m := requirementLine.FindSubmatch(data)
	if m == nil {
		return "", nil
	}
	values := quotedValue.FindAllSubmatch(m[1], -1)
	if len(values) == 0 {
		return "", fmt.Errorf("gate: required_ruby_version in %s is not a literal", gemspecPath)
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v[1])
	}
	return strings.Join(parts, ", "), nil
}

// LoaderProbe asks the toolchain itself, via Gem::Specification, for
// the requirement. Slower than SpecScan but authoritative for gemspecs
// that compute the value instead of assigning a literal.
type LoaderProbe struct {
	Toolchain string
	Runner    tools.Runner
}

const loaderScript = `spec = Gem::Specification.load(ARGV[0]); print spec.required_ruby_version`

func (p LoaderProbe) RequiredRuby(ctx context.Context, gemspecPath string) (string, error) {
	// Load from the gemspec's own directory; gemspecs routinely
	// require relative files such as lib/*/version.rb.
	dir := filepath.Dir(gemspecPath)
	stdout, stderr, code, err := p.Runner.Run(ctx, dir, p.Toolchain, "-e", loaderScript, filepath.Base(gemspecPath))
	if err != nil {
		return "", fmt.Errorf("gate: gemspec load failed path=%q exit=%d stderr=%q: %w", gemspecPath, code, strings.TrimSpace(string(stderr)), err)
	}
	return strings.TrimSpace(string(stdout)), nil
}
