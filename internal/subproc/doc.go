// Package subproc runs external commands for the update pipeline.
//
// The Executor interface abstracts process execution so stage logic and
// version lookups stay testable without spawning real binaries. The default
// implementation streams merged stdout/stderr lines to a callback, places
// children in their own process group, and terminates the whole group when
// the context is cancelled so interrupted package-manager runs do not leave
// orphans behind.
package subproc
