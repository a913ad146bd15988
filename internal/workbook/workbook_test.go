package workbook

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCellForIndex(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A1"},
		{1, "C1"},
		{4, "I1"},
		{5, "A8"},
		{7, "E8"},
		{10, "A15"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CellForIndex(tt.index))
	}
}

func TestCollate(t *testing.T) {
	root := t.TempDir()
	writeImages(t, filepath.Join(root, "lantai 1"), 3)
	writeImages(t, filepath.Join(root, "lantai 2"), 1)

	outPath := filepath.Join(t.TempDir(), "out.xlsx")
	sheets, images, err := Collate(root, outPath)
	require.NoError(t, err)
	assert.Equal(t, 2, sheets)
	assert.Equal(t, 4, images)

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()
	assert.ElementsMatch(t, []string{"lantai 1", "lantai 2"}, f.GetSheetList())

	pics, err := f.GetPictures("lantai 1", "A1")
	require.NoError(t, err)
	assert.NotEmpty(t, pics)
}

func TestCollateRequiresSheets(t *testing.T) {
	_, _, err := Collate(t.TempDir(), filepath.Join(t.TempDir(), "out.xlsx"))
	assert.Error(t, err)
}

func TestCollateIgnoresNonImageFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "dokumen")
	writeImages(t, dir, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catatan.txt"), []byte("x"), 0644))

	outPath := filepath.Join(t.TempDir(), "out.xlsx")
	_, images, err := Collate(root, outPath)
	require.NoError(t, err)
	assert.Equal(t, 1, images)
}

func writeImages(t *testing.T, dir string, n int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for i := 0; i < n; i++ {
		f, err := os.Create(filepath.Join(dir, string(rune('a'+i))+".png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 10, 10))))
		require.NoError(t, f.Close())
	}
}
