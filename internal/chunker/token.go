package chunker

import (
	"strings"
	"unicode"
)

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// JoinPages trims each page, drops blank ones and joins the rest with newlines.
func JoinPages(pages []string) string {
	var sb strings.Builder
	for _, p := range pages {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(p)
	}
	return sb.String()
}

// Truncate cuts text to at most limit characters, backing off to the last
// space when that leaves something non-blank. limit <= 0 disables truncation.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := string(runes[:limit])
	i := strings.LastIndexByte(cut, ' ')
	if i < 0 {
		return cut
	}
	if head := cut[:i]; strings.TrimFunc(head, unicode.IsSpace) != "" {
		return head
	}
	return cut
}
