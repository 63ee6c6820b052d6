// Package managers defines the update pipelines for every package manager
// upkeep knows how to drive.
//
// A manager is data, not a subclass: a Definition couples an ordered stage
// table with eligibility gates (prerequisite binary, platform allowlist) and
// optional pre/post hooks keyed by stage name. Hooks receive the per-run
// stage invocation and may rewrite its argv or messages before the runner
// consumes it; the templates in the table never change. Builtin returns the
// full registry wired from configuration.
package managers
