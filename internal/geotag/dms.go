package geotag

import (
	"fmt"
	"strings"
	"time"
)

// ToDMS renders a coordinate pair in degrees-minutes-seconds with
// hemisphere suffixes.
func ToDMS(lat, lon float64) string {
	return componentDMS(lat, "N", "S") + " " + componentDMS(lon, "E", "W")
}

func componentDMS(value float64, positive, negative string) string {
	hemi := positive
	if value < 0 {
		hemi = negative
		value = -value
	}
	degrees := int(value)
	minFloat := (value - float64(degrees)) * 60
	minutes := int(minFloat)
	seconds := (minFloat - float64(minutes)) * 60
	return fmt.Sprintf("%d°%d'%.1f\"%s", degrees, minutes, seconds, hemi)
}

const manualTimeLayout = "2006-01-02 15:04"

// ParseManualTime parses a strict "YYYY-MM-DD HH:MM" timestamp. Go's
// parser normalizes some out-of-range components instead of rejecting
// them, so the parsed value is formatted back and compared to catch
// calendar rollovers like 2024-02-30.
func ParseManualTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation(manualTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	if t.Format(manualTimeLayout) != s {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: components out of range", s)
	}
	return t, nil
}

// SplitAddressIntoLines word-wraps an address for the card, capping the
// number of lines and ellipsizing the rest.
func SplitAddressIntoLines(address string, maxChars, maxLines int) []string {
	words := strings.Fields(address)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		if len(current)+1+len(w) <= maxChars {
			current += " " + w
			continue
		}
		lines = append(lines, current)
		current = w
	}
	lines = append(lines, current)

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		// truncate by runes so a multi-byte character at the boundary
		// cannot produce invalid UTF-8
		last := []rune(lines[maxLines-1])
		if len(last) > maxChars-3 {
			last = last[:maxChars-3]
		}
		lines[maxLines-1] = string(last) + "..."
	}
	return lines
}
