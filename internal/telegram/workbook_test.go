package telegram

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telebox/telebox/internal/consts"
)

func TestSendableWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workbook.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("small"), 0644))

	size, ok, err := sendableWorkbook(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(5), size)
}

func TestSendableWorkbookOversizedKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workbook.xlsx")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	// sparse file just over the ceiling
	oversize := int64(consts.MaxWorkbookSizeMB*1024*1024 + 1)
	require.NoError(t, os.Truncate(path, oversize))

	size, ok, err := sendableWorkbook(path)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, oversize, size)

	// rejection never deletes; the document stays for the user to prune
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
