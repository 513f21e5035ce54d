package update

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted numeric version with any number of components
type Version struct {
	Components []uint64
	Raw        string
}

// ParseVersion parses a version string like "2", "1.9" or "10.4.0.2".
// Every dot-separated segment must be a non-empty run of decimal digits.
func ParseVersion(s string) (*Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, newFailure(KindVersionUnparseable, "empty version", nil)
	}

	segments := strings.Split(raw, ".")
	components := make([]uint64, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || strings.TrimLeft(seg, "0123456789") != "" {
			return nil, newFailure(KindVersionUnparseable, fmt.Sprintf("invalid version format: %q", raw), nil)
		}
		n, err := strconv.ParseUint(seg, 10, 64)
		if err != nil {
			return nil, newFailure(KindVersionUnparseable, fmt.Sprintf("invalid version component %q", seg), err)
		}
		components = append(components, n)
	}

	return &Version{Components: components, Raw: raw}, nil
}

// String returns the version as it was parsed
func (v *Version) String() string {
	return v.Raw
}

// Compare compares two versions component by component.
// Missing trailing components count as zero, so 1.2 equals 1.2.0.
// Returns:
//   - 1 if v > other
//   - 0 if v == other
//   - -1 if v < other
func (v *Version) Compare(other *Version) int {
	n := max(len(v.Components), len(other.Components))
	for i := 0; i < n; i++ {
		a, b := v.component(i), other.component(i)
		if a > b {
			return 1
		}
		if a < b {
			return -1
		}
	}
	return 0
}

func (v *Version) component(i int) uint64 {
	if i < len(v.Components) {
		return v.Components[i]
	}
	return 0
}

// IsGreaterThan returns true if v > other
func (v *Version) IsGreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

// IsLessThan returns true if v < other
func (v *Version) IsLessThan(other *Version) bool {
	return v.Compare(other) < 0
}

// IsEqual returns true if v == other
func (v *Version) IsEqual(other *Version) bool {
	return v.Compare(other) == 0
}

// CompareVersions compares two version strings
// Returns:
//   - 1 if v1 > v2
//   - 0 if v1 == v2
//   - -1 if v1 < v2
//   - error if either version is invalid
func CompareVersions(v1, v2 string) (int, error) {
	ver1, err := ParseVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1: %w", err)
	}

	ver2, err := ParseVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2: %w", err)
	}

	return ver1.Compare(ver2), nil
}
