package version

import (
	"bytes"
	_ "embed"
	"runtime/debug"
)

//go:embed version.txt
var versionBytes []byte

// Version returns the release version, with the VCS revision appended when the binary carries one.
func Version() string {
	v := string(bytes.TrimSpace(versionBytes))
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	rev, dirty := "", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return v
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return v + "+" + rev
}
