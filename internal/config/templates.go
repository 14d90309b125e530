package config

import (
	"fmt"
	"os"
)

// Template returns the starter configuration, defaults spelled out.
func Template() string {
	return configTemplate
}

// WriteTemplate writes the starter configuration to path. Refuses to
// clobber an existing file unless overwrite is set.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(configTemplate), 0o600)
}

const configTemplate = `# cictl configuration.
# Every key is optional; compiled-in defaults cover the standard layout.

toolchain = "ruby"
# toolchain_version = "3.4.2"   # set to skip the version probe
manifest = "Gemfile"
spec_ext = ".gemspec"
lint_config = ".rubocop.yml"
constraint_source = "scan"      # "loader" asks the toolchain instead

[bundle]
retries = 3

[tasks.test]
command = ["bundle", "exec", "rake", "test"]
verbose_args = ["TESTOPTS=-v"]

[tasks.rubocop]
command = ["bundle", "exec", "rubocop"]

[tasks.build]
command = ["gem", "build", "--norc"]

[tasks.yard]
command = ["bundle", "exec", "yard", "doc"]

[tasks.linkinator]
command = ["npx", "linkinator", "./doc"]
verbose_args = ["--verbosity", "debug"]
`
