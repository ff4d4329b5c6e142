package ndi

import (
	"regexp"
	"strconv"
	"strings"
)

var versionTail = regexp.MustCompile(`(\d+\.\d+(\.\d+)?(\.\d+)?)$`)

// ExtractVersion pulls the trailing dotted numeric group out of the
// runtime's self-reported banner, e.g. "6.2.0.3" out of
// "NDI SDK LINUX 14:08:01 Jun  3 2025 6.2.0.3". Returns "" when the banner
// carries no such group; "" never satisfies a nonzero minimum.
func ExtractVersion(reported string) string {
	if m := versionTail.FindStringSubmatch(reported); m != nil {
		return m[1]
	}
	return ""
}

// Tuple is a dotted version split into numeric fields. A field that fails to
// parse counts as 0.
type Tuple []int

func ParseTuple(s string) Tuple {
	parts := strings.Split(s, ".")
	t := make(Tuple, len(parts))
	for i, p := range parts {
		t[i], _ = strconv.Atoi(p)
	}
	return t
}

// At returns field i, 0 past the end.
func (t Tuple) At(i int) int {
	if i < len(t) {
		return t[i]
	}
	return 0
}

// IsVersionSupported reports whether version is at least minimum. Fields are
// compared numerically left to right, absent fields count as 0, and equal
// versions pass.
func IsVersionSupported(version, minimum string) bool {
	v, m := ParseTuple(version), ParseTuple(minimum)
	n := max(len(v), len(m))
	for i := 0; i < n; i++ {
		if v.At(i) > m.At(i) {
			return true
		}
		if v.At(i) < m.At(i) {
			return false
		}
	}
	return true
}
