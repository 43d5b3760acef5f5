// Package version holds build-time metadata, overridden via -ldflags.
package version

var (
	// Version is the orchestrator's release version.
	Version = "dev"
	// Commit is the git commit SHA it was built from.
	Commit = "unknown"
)
