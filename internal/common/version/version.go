// Package version exposes the msgtracetool release number embedded from the
// VERSION file next to this source at compile time.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionRaw string

// Version is the current release, trimmed of whitespace.
var Version = strings.TrimSpace(versionRaw)

// Get returns Version.
func Get() string {
	return Version
}
