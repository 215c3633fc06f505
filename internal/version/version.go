// Package version provides build information for stripdemo.
package version

// Overridable at build time:
// go build -ldflags "-X stripdemo/internal/version.Version=1.0.0 -X stripdemo/internal/version.Commit=abc123"
var (
	// Version is the semantic version of stripdemo
	Version = "0.3.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version, with a short commit suffix when one is known
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "stripdemo version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}

// UserAgent is sent with outbound requests
func UserAgent() string {
	return "stripdemo/" + Version
}
