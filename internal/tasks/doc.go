// Package tasks executes CI task subprocesses against package
// directories.
//
// Ownership boundary:
//   - the dependency (bundle) step that precedes every directory
//   - per-task subprocess execution with streamed output
//   - failure recording semantics: bundle failures skip the rest of
//     their directory, task failures never stop anything
//   - serial and bounded-parallel directory scheduling
//
// Every task is a fresh subprocess whose working directory is the
// package directory; nothing here mutates the orchestrator's own
// working directory.
package tasks
