// Package version provides version information for the binary.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current version of the application.
// This is set at build time using -ldflags.
var Version = "dev"

// BuildTime is when the binary was built.
// This is set at build time using -ldflags.
var BuildTime = "unknown"

// Info is the machine-readable form of the version.
type Info struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current build's Info.
func Get() Info {
	return Info{
		Version:   Version,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the formatted version information.
func String() string {
	return fmt.Sprintf("llm-gateway version %s (built %s)", Version, BuildTime)
}
