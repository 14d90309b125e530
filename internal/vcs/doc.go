// Package vcs owns every git invocation the orchestrator makes.
//
// Ownership boundary:
//   - working tree status and commit-range diff listings
//   - ref resolution, shallow fetches, and head checkout
//   - the temp-ref namespace used to materialize remote refs locally
//
// All commands run through tools.Runner against a fixed repository
// root; nothing in this package touches the process working directory.
package vcs
