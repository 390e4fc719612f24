package util

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TruncationMarker is appended to text cut by Truncate.
const TruncationMarker = "\n... (truncated)"

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// Truncate keeps at most max runes of s and appends TruncationMarker when
// anything was cut. The second return reports whether truncation happened.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	return Preview(s, max) + TruncationMarker, true
}

// Preview returns the first max runes of s without any marker.
func Preview(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// StripSuffixes repeatedly removes any of the given suffixes (and the
// whitespace before them) from the end of s. ASCII suffixes must start a
// word, so "iShares" keeps its "shares". Other suffixes are removed even
// when attached, as Korean endings usually are. s is never reduced to "".
func StripSuffixes(s string, suffixes []string) string {
	s = strings.TrimSpace(s)
	for {
		trimmed := false
		for _, suf := range suffixes {
			if suf == "" || len(s) <= len(suf) {
				continue
			}
			cut := len(s) - len(suf)
			if !strings.EqualFold(s[cut:], suf) {
				continue
			}
			if isASCII(suf) {
				if prev, _ := utf8.DecodeLastRuneInString(s[:cut]); !unicode.IsSpace(prev) {
					continue
				}
			}
			s = strings.TrimSpace(s[:cut])
			trimmed = true
		}
		if !trimmed {
			return s
		}
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
