// Package config loads and validates the orchestrator configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/cictl/internal/tasks"
)

// DefaultFile is the config file looked for at the repository root.
const DefaultFile = "cictl.toml"

// Constraint source names accepted by the version gate.
const (
	SourceScan   = "scan"
	SourceLoader = "loader"
)

// Config is the resolved orchestrator configuration.
type Config struct {
	Toolchain        string
	ToolchainVersion string
	Manifest         string
	SpecExt          string
	LintConfig       string
	ConstraintSource string
	BundleRetries    int
	Tasks            map[string]TaskConfig
}

// TaskConfig is one task's command line as configured.
type TaskConfig struct {
	Command     []string
	VerboseArgs []string
}

type fileConfig struct {
	Toolchain        string `toml:"toolchain"`
	ToolchainVersion string `toml:"toolchain_version"`
	Manifest         string `toml:"manifest"`
	SpecExt          string `toml:"spec_ext"`
	LintConfig       string `toml:"lint_config"`
	ConstraintSource string `toml:"constraint_source"`
	Bundle           struct {
		Retries int `toml:"retries"`
	} `toml:"bundle"`
	Tasks map[string]struct {
		Command     []string `toml:"command"`
		VerboseArgs []string `toml:"verbose_args"`
	} `toml:"tasks"`
}

// Default returns the compiled-in configuration for the standard
// monorepo layout.
func Default() Config {
	return Config{
		Toolchain:        "ruby",
		Manifest:         "Gemfile",
		SpecExt:          ".gemspec",
		LintConfig:       ".rubocop.yml",
		ConstraintSource: SourceScan,
		BundleRetries:    3,
		Tasks: map[string]TaskConfig{
			tasks.Test:       {Command: []string{"bundle", "exec", "rake", "test"}, VerboseArgs: []string{"TESTOPTS=-v"}},
			tasks.Rubocop:    {Command: []string{"bundle", "exec", "rubocop"}},
			tasks.Build:      {Command: []string{"gem", "build", "--norc"}},
			tasks.Yard:       {Command: []string{"bundle", "exec", "yard", "doc"}},
			tasks.Linkinator: {Command: []string{"npx", "linkinator", "./doc"}, VerboseArgs: []string{"--verbosity", "debug"}},
		},
	}
}

// Load reads path on top of the compiled-in defaults. Absent keys keep
// their defaults; defined keys win even when they decode to a zero
// value.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("toolchain") {
		if v := strings.TrimSpace(raw.Toolchain); v != "" {
			cfg.Toolchain = v
		}
	}
	if meta.IsDefined("toolchain_version") {
		cfg.ToolchainVersion = strings.TrimSpace(raw.ToolchainVersion)
	}
	if meta.IsDefined("manifest") {
		if v := strings.TrimSpace(raw.Manifest); v != "" {
			cfg.Manifest = v
		}
	}
	if meta.IsDefined("spec_ext") {
		if v := strings.TrimSpace(raw.SpecExt); v != "" {
			cfg.SpecExt = v
		}
	}
	if meta.IsDefined("lint_config") {
		cfg.LintConfig = strings.TrimSpace(raw.LintConfig)
	}
	if meta.IsDefined("constraint_source") {
		cfg.ConstraintSource = strings.TrimSpace(raw.ConstraintSource)
	}
	if meta.IsDefined("bundle", "retries") {
		cfg.BundleRetries = raw.Bundle.Retries
	}
	for name, t := range raw.Tasks {
		tc := cfg.Tasks[name]
		if meta.IsDefined("tasks", name, "command") {
			tc.Command = t.Command
		}
		if meta.IsDefined("tasks", name, "verbose_args") {
			tc.VerboseArgs = t.VerboseArgs
		}
		cfg.Tasks[name] = tc
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Toolchain) == "" {
		return fmt.Errorf("config missing toolchain")
	}
	if strings.TrimSpace(cfg.Manifest) == "" {
		return fmt.Errorf("config missing manifest")
	}
	if !strings.HasPrefix(cfg.SpecExt, ".") {
		return fmt.Errorf("config spec_ext must start with a dot: %q", cfg.SpecExt)
	}
	switch cfg.ConstraintSource {
	case SourceScan, SourceLoader:
	default:
		return fmt.Errorf("config unknown constraint_source: %q", cfg.ConstraintSource)
	}
	if cfg.BundleRetries < 0 {
		return fmt.Errorf("config bundle retries must be >= 0, got %d", cfg.BundleRetries)
	}
	for name, t := range cfg.Tasks {
		if len(t.Command) == 0 {
			return fmt.Errorf("config task %q has an empty command", name)
		}
	}
	return nil
}

// TaskSpecs materializes the configured tasks for the runner. The
// build task takes the directory's self-named spec file as its final
// argument.
func (c Config) TaskSpecs() map[string]tasks.Spec {
	out := make(map[string]tasks.Spec, len(c.Tasks))
	for name, t := range c.Tasks {
		out[name] = tasks.Spec{
			Name:           name,
			Command:        append([]string(nil), t.Command...),
			VerboseArgs:    append([]string(nil), t.VerboseArgs...),
			AppendSpecFile: name == tasks.Build,
		}
	}
	return out
}

// LintSpec is the toplevel lint invocation: the rubocop task pointed
// at the repository-level lint configuration.
func (c Config) LintSpec() (tasks.Spec, error) {
	t, ok := c.Tasks[tasks.Rubocop]
	if !ok || len(t.Command) == 0 {
		return tasks.Spec{}, fmt.Errorf("config task %q has no command configured", tasks.Rubocop)
	}
	argv := append([]string(nil), t.Command...)
	if strings.TrimSpace(c.LintConfig) != "" {
		argv = append(argv, "--config", c.LintConfig)
	}
	return tasks.Spec{Name: tasks.Rubocop, Command: argv}, nil
}
