// Package version reports build information stamped in by the linker.
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/chemkit/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/chemkit/internal/version.Commit=abc123
//	  -X github.com/soyeahso/chemkit/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("chemkit %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies chemkit to the chemistry web services. PubChem
// and Semantic Scholar ask clients to name themselves.
func UserAgent() string {
	return fmt.Sprintf("chemkit/%s (+https://github.com/soyeahso/chemkit)", Version)
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
