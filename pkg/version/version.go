package version

import (
	"os"
	"path/filepath"
	"runtime"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	GitSource   string
	GitTag      string
	GitBranch   string
	GitHash     string
	GoBuildTime string
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ExecName returns the name of the executable
func ExecName() string {
	name, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Base(name)
}

// Version returns the version of the executable, which is the git tag
// if set, or else the git branch and hash
func Version() string {
	if GitTag != "" {
		return GitTag
	}
	if GitBranch != "" && GitHash != "" {
		return GitBranch + "-" + GitHash
	}
	return GitHash
}

// Compiler returns the go compiler version and target platform
func Compiler() string {
	return runtime.Version() + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}

// Map returns the version metadata as a map
func Map() map[string]string {
	return map[string]string{
		"name":       ExecName(),
		"version":    Version(),
		"compiler":   Compiler(),
		"source":     GitSource,
		"tag":        GitTag,
		"branch":     GitBranch,
		"hash":       GitHash,
		"build_time": GoBuildTime,
	}
}
