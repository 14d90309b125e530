// Package tools provides the subprocess execution boundary shared by the
// orchestrator modules.
//
// Ownership boundary:
// - command execution helpers
//
// - exit-code normalization
//
// Every external tool (git, bundler, task tools) is invoked through the
// Runner interface so tests can substitute scripted fakes.
package tools
