package host

import (
	"fmt"
	"strconv"
	"strings"
)

// Version2025 is the first release whose exporters no longer carry the file
// extension in their labels.
const Version2025 = 2025

// Version is a parsed "major[.minor]" application version.
type Version struct {
	Major int
	Minor int
	Raw   string
}

// ParseVersion parses values such as "2024", "2024.5" or "2025.0.1".
func ParseVersion(raw string) (Version, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Version{}, fmt.Errorf("empty version")
	}
	parts := strings.Split(raw, ".")
	major, err := strconv.Atoi(parts[0])
	if err != nil || major <= 0 {
		return Version{}, fmt.Errorf("invalid version %q", raw)
	}
	v := Version{Major: major, Raw: raw}
	if len(parts) > 1 {
		minor, err := strconv.Atoi(parts[1])
		if err != nil || minor < 0 {
			return Version{}, fmt.Errorf("invalid version %q", raw)
		}
		v.Minor = minor
	}
	return v, nil
}

// MajorVersion returns the major component of raw, or 0 when raw does not
// parse.
func MajorVersion(raw string) int {
	v, err := ParseVersion(raw)
	if err != nil {
		return 0
	}
	return v.Major
}

// LabelsCarryExtension reports whether exporter labels end in "(*.ext)" for
// the given application version.
func LabelsCarryExtension(raw string) bool {
	return MajorVersion(raw) < Version2025
}

func (v Version) String() string {
	return v.Raw
}
