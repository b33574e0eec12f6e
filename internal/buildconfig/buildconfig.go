package buildconfig

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}

// VersionInfo returns version information together with the evaluator
// families compiled into this binary.
func VersionInfo() map[string]any {
	return map[string]any{
		"version":  version,
		"commit":   commit,
		"features": Features(),
	}
}
