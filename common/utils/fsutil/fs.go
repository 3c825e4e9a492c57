package fsutil

import (
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// RemoveAllInDir removes everything inside dirPath without removing the
// directory itself.
func RemoveAllInDir(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		entryPath := filepath.Join(dirPath, entry.Name())
		if err := os.RemoveAll(entryPath); err != nil {
			return err
		}
	}
	return nil
}

func DetectFileExt(fp string) string {
	mt, err := mimetype.DetectFile(fp)
	if err != nil {
		return ""
	}
	return mt.Extension()
}

// CreateFile creates fp, making any missing parent directories first.
func CreateFile(fp string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(fp), os.ModePerm); err != nil {
		return nil, err
	}
	return os.Create(fp)
}
