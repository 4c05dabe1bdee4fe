package version

// Version information for lsr
const (
	// Version is the current semantic version of lsr
	Version = "0.1.0"
)

// BuildDate and GitCommit are set during build time:
// go build -ldflags "-X github.com/standardbeagle/lsr/internal/version.GitCommit=abc123"
var (
	BuildDate = "development"
	GitCommit = "unknown"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns detailed version information
func FullInfo() string {
	return "lsr " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}
