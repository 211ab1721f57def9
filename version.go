package treelai

import "runtime"

// Version information for treelai.
// These values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/treelai.Version=1.0.0"
const (
	// Name is the application name.
	Name = "treelai"

	// Description is a short description of the application.
	Description = "Leaf-by-leaf translation of nested JSON and YAML documents"

	// Version is the semantic version of the application.
	// Override at build time with ldflags for releases.
	Version = "0.1.0"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/treelai"

	// License is the software license.
	License = "MIT"
)

// Build-time information.
// These are typically set via ldflags during build.
var (
	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// GitBranch is the git branch name.
	GitBranch = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"

	// GoVersion is the Go version used to build.
	GoVersion = "unknown"
)

// FullVersion returns the version string with optional build info.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns a user agent string for HTTP requests.
func UserAgent() string {
	return Name + "/" + Version
}

// Info describes the running build.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// BuildInfo returns the build information, filling in the Go version from
// the runtime when it was not set at build time.
func BuildInfo() Info {
	goVersion := GoVersion
	if goVersion == "unknown" || goVersion == "" {
		goVersion = runtime.Version()
	}
	return Info{
		Name:      Name,
		Version:   FullVersion(),
		Commit:    GitCommit,
		Branch:    GitBranch,
		BuildDate: BuildDate,
		GoVersion: goVersion,
	}
}
