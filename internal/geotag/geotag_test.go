package geotag

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDMS(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     string
	}{
		{-6.208763, 106.845599, `6°12'31.5"S 106°50'44.2"E`},
		{0, 0, `0°0'0.0"N 0°0'0.0"E`},
		{51.5, -0.12, `51°30'0.0"N 0°7'12.0"W`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToDMS(tt.lat, tt.lon))
	}
}

func TestParseManualTime(t *testing.T) {
	got, err := ParseManualTime("2024-03-15 09:30")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Minute())
}

func TestParseManualTimeRejectsRollover(t *testing.T) {
	invalid := []string{
		"2024-02-30 10:00",
		"2024-13-01 10:00",
		"2024-01-01 24:00",
		"2024-01-01 10:60",
		"kemarin",
		"2024-01-01",
	}
	for _, s := range invalid {
		_, err := ParseManualTime(s)
		assert.Error(t, err, s)
	}
}

func TestSplitAddressIntoLines(t *testing.T) {
	addr := "Jalan Jenderal Sudirman Kav 52-53, Senayan, Kebayoran Baru, Jakarta Selatan, DKI Jakarta"
	lines := SplitAddressIntoLines(addr, 30, 3)
	require.Len(t, lines, 3)
	for _, l := range lines[:2] {
		assert.LessOrEqual(t, len(l), 30)
	}
	assert.Contains(t, lines[2], "...")

	assert.Nil(t, SplitAddressIntoLines("   ", 30, 3))
	assert.Equal(t, []string{"Monas"}, SplitAddressIntoLines("Monas", 30, 3))
}

func TestSplitAddressEllipsisKeepsValidUTF8(t *testing.T) {
	// the second line is a long multi-byte word, so the ellipsis cut
	// lands inside the rune stream for most widths
	addr := "Žižkov Žižkovánínívská dlouhá adresa pokračuje dál"
	for maxChars := 10; maxChars <= 20; maxChars++ {
		lines := SplitAddressIntoLines(addr, maxChars, 2)
		require.Len(t, lines, 2)
		for _, l := range lines {
			assert.True(t, utf8.ValidString(l), "%q at width %d", l, maxChars)
		}
		assert.Contains(t, lines[1], "...")
	}
}

func TestComposeWritesTaggedPhoto(t *testing.T) {
	dir := t.TempDir()
	photoPath := filepath.Join(dir, "in.png")
	writePNG(t, photoPath, 800, 600)

	// no mapbox key: fallback card path
	c, err := NewComposer("")
	require.NoError(t, err)

	outPath := filepath.Join(dir, "out.png")
	info := Info{
		Latitude:  -6.2,
		Longitude: 106.8,
		Address:   "Jalan Sudirman, Jakarta",
		Timestamp: time.Date(2024, 3, 15, 9, 30, 0, 0, time.Local),
	}
	require.NoError(t, c.Compose(context.Background(), photoPath, outPath, info))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	// photo scaled to 600 wide, card appended below
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 450+cardHeight, img.Bounds().Dy())
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}
