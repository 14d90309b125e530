// Package gate decides which package directories are eligible for a
// CI run under the active Ruby toolchain.
//
// Ownership boundary:
//   - manifest and self-named gemspec presence checks
//   - required_ruby_version extraction (static scan or loader probe)
//   - rubygems requirement evaluation against the toolchain version
//
// Gate decisions are advisory: an unreadable or unparseable gemspec
// logs a warning and excludes the directory, it never aborts the run.
package gate
