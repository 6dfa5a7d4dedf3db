// Package version carries build metadata injected with -ldflags.
package version

import "runtime"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build metadata for `openspeech version`.
func String() string {
	return "openspeech " + Version + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}

// UserAgent identifies the recorder in upload requests.
func UserAgent() string {
	return "openspeech/" + Version
}
