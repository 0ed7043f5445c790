// Package version holds build-time identifiers, overridable via
// -ldflags "-X github.com/originhq/origin/internal/version.Version=...".
package version

var (
	Version = "dev"
	Commit  = "unknown"
)
