// Package workbook collates per-sheet photo directories into a single xlsx
// document. Each subdirectory of the media root becomes a worksheet; its
// images are embedded five per row on a fixed grid.
package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	imagesPerRow   = 5
	columnStride   = 2
	rowStride      = 7
	imageColWidth  = 17
	gapColWidth    = 1
	imageRowHeight = 40
)

// CellForIndex returns the anchor cell for the i-th image of a sheet:
// columns A, C, E, G, I repeating, a new 7-row band every 5 images.
func CellForIndex(i int) string {
	col := string(rune('A' + (i%imagesPerRow)*columnStride))
	row := (i/imagesPerRow)*rowStride + 1
	return fmt.Sprintf("%s%d", col, row)
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Collate builds the workbook from every sheet directory under mediaRoot
// and writes it to outPath. Returns the number of sheets and embedded
// images. At least one sheet directory must exist.
func Collate(mediaRoot, outPath string) (sheets, images int, err error) {
	entries, err := os.ReadDir(mediaRoot)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read media root: %w", err)
	}

	var sheetNames []string
	for _, e := range entries {
		if e.IsDir() {
			sheetNames = append(sheetNames, e.Name())
		}
	}
	if len(sheetNames) == 0 {
		return 0, 0, fmt.Errorf("no sheets to collate")
	}
	sort.Strings(sheetNames)

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range sheetNames {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return 0, 0, fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return 0, 0, fmt.Errorf("failed to add sheet %s: %w", name, err)
			}
		}

		count, err := fillSheet(f, name, filepath.Join(mediaRoot, name))
		if err != nil {
			return 0, 0, err
		}
		images += count
	}

	if err := f.SaveAs(outPath); err != nil {
		return 0, 0, fmt.Errorf("failed to save workbook: %w", err)
	}
	return len(sheetNames), images, nil
}

func fillSheet(f *excelize.File, sheet, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet directory %s: %w", sheet, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && isImageFile(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	// alternate wide image columns and narrow gap columns
	for i := 0; i < imagesPerRow; i++ {
		imgCol := string(rune('A' + i*columnStride))
		if err := f.SetColWidth(sheet, imgCol, imgCol, imageColWidth); err != nil {
			return 0, err
		}
		gapCol := string(rune('A' + i*columnStride + 1))
		if err := f.SetColWidth(sheet, gapCol, gapCol, gapColWidth); err != nil {
			return 0, err
		}
	}

	for i, name := range files {
		cell := CellForIndex(i)
		row := (i/imagesPerRow)*rowStride + 1
		if err := f.SetRowHeight(sheet, row, imageRowHeight); err != nil {
			return 0, err
		}
		err := f.AddPicture(sheet, cell, filepath.Join(dir, name), &excelize.GraphicOptions{
			AutoFit: true,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to embed %s: %w", name, err)
		}
	}
	return len(files), nil
}
