package gate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/cictl/internal/tools"
)

// Config fixes the shape of an eligible package directory.
type Config struct {
	Root     string // repository root; package dirs resolve against it
	Manifest string // dependency manifest every package must carry
	SpecExt  string // extension of the self-named spec file
	Version  *semver.Version
	Source   ConstraintSource
}

// Gate answers whether a package directory can run under the active
// toolchain.
type Gate struct {
	cfg Config
}

func New(cfg Config) *Gate {
	return &Gate{cfg: cfg}
}

// Eligible reports whether dir holds a testable package: the manifest
// and a self-named spec file are present, and the spec's toolchain
// requirement admits the active version. Unreadable or unparseable
// specs log a warning and exclude the directory.
func (g *Gate) Eligible(ctx context.Context, dir string) bool {
	name := filepath.Base(dir)
	pkg := filepath.Join(g.cfg.Root, dir)
	if !fileExists(filepath.Join(pkg, g.cfg.Manifest)) {
		log.Debug().Str("dir", dir).Str("manifest", g.cfg.Manifest).Msg("gate: no manifest, skipping")
		return false
	}
	spec := filepath.Join(pkg, name+g.cfg.SpecExt)
	if !fileExists(spec) {
		log.Debug().Str("dir", dir).Msg("gate: no self-named spec, skipping")
		return false
	}
	req, err := g.cfg.Source.RequiredRuby(ctx, spec)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("gate: excluding directory, requirement unreadable")
		return false
	}
	ok, err := satisfies(req, g.cfg.Version)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("gate: excluding directory, requirement unparseable")
		return false
	}
	if !ok {
		log.Debug().
			Str("dir", dir).
			Str("requires", req).
			Str("toolchain", g.cfg.Version.String()).
			Msg("gate: toolchain outside requirement, skipping")
	}
	return ok
}

// ProbeToolchain asks the toolchain binary for its version. Run once
// per invocation; the result feeds Config.Version.
func ProbeToolchain(ctx context.Context, runner tools.Runner, toolchain string) (*semver.Version, error) {
	stdout, stderr, code, err := runner.Run(ctx, "", toolchain, "-e", "print RUBY_VERSION")
	if err != nil {
		return nil, fmt.Errorf("gate: toolchain probe failed bin=%q exit=%d stderr=%q: %w", toolchain, code, strings.TrimSpace(string(stderr)), err)
	}
	return ParseVersion(strings.TrimSpace(string(stdout)))
}

// ParseVersion parses a toolchain version string such as "3.4.2".
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(normalizeOperand(s))
	if err != nil {
		return nil, fmt.Errorf("gate: bad toolchain version %q: %w", s, err)
	}
	return v, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
