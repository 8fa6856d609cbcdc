package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractZip unpacks a zip archive into destDir and returns the directory the
// archive contents landed in. Firmware archives usually contain a single top
// level directory named after the archive; when they do, that directory is
// returned, otherwise destDir itself.
// Entry names are never used as destination paths directly: anything that
// would escape destDir is skipped.
func ExtractZip(zipPath, destDir string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", zipPath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target := filepath.Join(destDir, filepath.Clean("/"+f.Name))

		// Safety check: ensure the resolved path stays within destDir
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(filepath.Separator)) {
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return "", err
		}
		if err := extractFile(f, target); err != nil {
			return "", fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}

	// Convention: the archive unpacks into <archive name without .zip>/.
	name := strings.TrimSuffix(filepath.Base(zipPath), ".zip")
	inner := filepath.Join(destDir, name)
	if info, err := os.Stat(inner); err == nil && info.IsDir() {
		return inner, nil
	}

	// Otherwise fall back to the first directory the archive created.
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			return filepath.Join(destDir, e.Name()), nil
		}
	}
	return destDir, nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
