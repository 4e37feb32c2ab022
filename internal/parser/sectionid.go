package parser

import (
	"regexp"
	"strings"
)

var (
	headingPattern  = regexp.MustCompile(`^(\d+(?:\.\d+)*)[\s\p{Z}]+(.+)$`)
	numberedPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)
)

// ParseSectionID splits a bookmark label such as "6.4.2 Source Capabilities"
// into its dotted id and title. Labels without a leading number return an
// empty id and the trimmed label. Any Unicode space, including the no-break
// space some authoring tools emit, separates the id from the title.
func ParseSectionID(raw string) (id, title string) {
	trimmed := strings.TrimSpace(raw)
	m := headingPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return "", trimmed
	}
	return m[1], strings.TrimSpace(m[2])
}

// IsNumbered reports whether id is purely numeric and dotted ("1", "4.2.10").
func IsNumbered(id string) bool {
	return numberedPattern.MatchString(id)
}

// Depth is the number of dot-separated components in id. "" has depth 0.
func Depth(id string) int {
	if id == "" {
		return 0
	}
	return strings.Count(id, ".") + 1
}

// ParentPath returns the id one level up: "3.2.1" -> "3.2", "3" -> "".
func ParentPath(id string) string {
	i := strings.LastIndexByte(id, '.')
	if i < 0 {
		return ""
	}
	return id[:i]
}
