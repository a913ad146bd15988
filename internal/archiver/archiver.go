// Package archiver shells out to the zip, unzip and unrar binaries. The
// binaries are external collaborators; this package only builds their
// invocations and normalizes their output.
package archiver

import (
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
)

// SupportedArchiveExt reports whether a file name carries an archive
// extension the extract/search flows accept.
func SupportedArchiveExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip", ".rar":
		return true
	}
	return false
}

type Archiver struct{}

func New() *Archiver {
	return &Archiver{}
}

// CreateArchive zips the given files into archivePath. Files are stored
// without their directory prefix so the archive contents mirror what the
// user uploaded.
func (a *Archiver) CreateArchive(ctx context.Context, archivePath string, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to archive")
	}

	args := append([]string{"-j", archivePath}, files...)
	out, err := exec.CommandContext(ctx, "zip", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("zip failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ExtractArchive unpacks archivePath into destDir and returns the paths of
// the extracted files. The unrar binary handles .rar, unzip everything else.
func (a *Archiver) ExtractArchive(ctx context.Context, archivePath, destDir string) ([]string, error) {
	var cmd *exec.Cmd
	if strings.EqualFold(filepath.Ext(archivePath), ".rar") {
		// unrar wants a trailing separator on the destination
		cmd = exec.CommandContext(ctx, "unrar", "x", "-o+", archivePath, destDir+string(filepath.Separator))
	} else {
		cmd = exec.CommandContext(ctx, "unzip", "-o", archivePath, "-d", destDir)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	var extracted []string
	err = filepath.WalkDir(destDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			extracted = append(extracted, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted files: %w", err)
	}
	return extracted, nil
}

// ListMatching lists archive entries whose names contain pattern,
// case-insensitive. Truncation to a display cap is the caller's concern.
func (a *Archiver) ListMatching(ctx context.Context, archivePath, pattern string) ([]string, error) {
	var cmd *exec.Cmd
	if strings.EqualFold(filepath.Ext(archivePath), ".rar") {
		cmd = exec.CommandContext(ctx, "unrar", "lb", archivePath)
	} else {
		cmd = exec.CommandContext(ctx, "zipinfo", "-1", archivePath)
	}

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("archive listing failed: %w", err)
	}

	needle := strings.ToLower(pattern)
	var matches []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(strings.ToLower(line), needle) {
			matches = append(matches, line)
		}
	}
	return matches, nil
}
