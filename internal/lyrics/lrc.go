package lyrics

import (
	"regexp"
	"strconv"
	"strings"

	"localify/pkg/models"
)

// lrcLine matches one timestamped lyric line: [mm:ss.xx]text where the
// fractional part has two or three digits.
var lrcLine = regexp.MustCompile(`\[(\d{2}):(\d{2})\.(\d{2,3})\](.*)`)

// ParseLRC parses LRC-format synced lyrics into millisecond offsets.
// Malformed lines are dropped silently; when no line matches the result is
// nil, which falls back to the plain lyrics path.
func ParseLRC(text string) []models.SyncedLyricLine {
	if text == "" {
		return nil
	}

	var lines []models.SyncedLyricLine
	for _, raw := range strings.Split(text, "\n") {
		match := lrcLine.FindStringSubmatch(raw)
		if match == nil {
			continue
		}

		min, _ := strconv.Atoi(match[1])
		sec, _ := strconv.Atoi(match[2])
		frac := match[3]
		// Two-digit fractions are centiseconds; pad to milliseconds.
		for len(frac) < 3 {
			frac += "0"
		}
		ms, _ := strconv.Atoi(frac)

		lines = append(lines, models.SyncedLyricLine{
			StartTime: int64(min)*60000 + int64(sec)*1000 + int64(ms),
			Text:      strings.TrimSpace(match[4]),
		})
	}

	if len(lines) == 0 {
		return nil
	}
	return lines
}
