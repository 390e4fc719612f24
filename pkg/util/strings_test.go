package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 12, ParseIntDefault("12", 7))
}

func TestTruncate(t *testing.T) {
	short := strings.Repeat("a", 3000)
	got, cut := Truncate(short, 3000)
	assert.False(t, cut)
	assert.Equal(t, short, got)

	long := strings.Repeat("b", 3001)
	got, cut = Truncate(long, 3000)
	assert.True(t, cut)
	assert.Equal(t, strings.Repeat("b", 3000)+TruncationMarker, got)
}

func TestTruncateCountsRunes(t *testing.T) {
	s := strings.Repeat("가", 5)
	got, cut := Truncate(s, 3)
	assert.True(t, cut)
	assert.Equal(t, "가가가"+TruncationMarker, got)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", Preview("abcdef", 3))
	assert.Equal(t, "ab", Preview("ab", 3))
	assert.Equal(t, "", Preview("ab", 0))
}

func TestStripSuffixes(t *testing.T) {
	suffixes := []string{"분석해줘", "분석", "analyze this", "please"}
	assert.Equal(t, "삼성전자", StripSuffixes("삼성전자 분석해줘", suffixes))
	assert.Equal(t, "AAPL", StripSuffixes("AAPL analyze this please", suffixes))
	assert.Equal(t, "분석", StripSuffixes("분석", suffixes))
	assert.Equal(t, "tsla", StripSuffixes("  tsla  ", suffixes))
}

func TestStripSuffixesRespectsWordBoundary(t *testing.T) {
	suffixes := []string{"shares", "stock", "analysis", "분석"}
	assert.Equal(t, "iShares", StripSuffixes("iShares", suffixes))
	assert.Equal(t, "Blackstock", StripSuffixes("Blackstock", suffixes))
	assert.Equal(t, "Hemisphere", StripSuffixes("Hemisphere analysis", suffixes))
	assert.Equal(t, "Hemisphere", StripSuffixes("Hemisphere ANALYSIS", suffixes))
	assert.Equal(t, "삼성전자", StripSuffixes("삼성전자분석", suffixes))
}
