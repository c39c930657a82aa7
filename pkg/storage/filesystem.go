package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BackupTimestampLayout is the timestamp format embedded in backup file names.
const BackupTimestampLayout = "20060102T150405.000000000"

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
	now     func() time.Time
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, now: time.Now}, nil
}

// Save writes data to a temporary sibling and renames it over the target.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        //nolint:errcheck
		os.Remove(tmpName) //nolint:errcheck
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", fmt.Errorf("replace data file: %w", err)
	}
	return filename, nil
}

// Read returns the full contents of a stored file.
func (s *LocalStorage) Read(filename string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	return data, nil
}

// Exists reports whether the file is present.
func (s *LocalStorage) Exists(filename string) bool {
	_, err := os.Stat(s.resolve(filename))
	return err == nil
}

// Backup copies an existing file to "<name>_backup_<timestamp><ext>" next to it.
// It returns an empty name when there is nothing to back up.
func (s *LocalStorage) Backup(filename string) (string, error) {
	src, err := os.Open(s.resolve(filename))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open file for backup: %w", err)
	}
	defer src.Close() //nolint:errcheck

	ext := filepath.Ext(filename)
	backupName := fmt.Sprintf("%s_backup_%s%s", strings.TrimSuffix(filename, ext), s.now().UTC().Format(BackupTimestampLayout), ext)
	dst, err := os.Create(s.resolve(backupName))
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer dst.Close() //nolint:errcheck
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write backup file: %w", err)
	}
	return backupName, nil
}

// Backups lists the backup files of filename, oldest first.
func (s *LocalStorage) Backups(filename string) ([]string, error) {
	ext := filepath.Ext(filename)
	pattern := s.resolve(strings.TrimSuffix(filename, ext) + "_backup_*" + ext)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		rel, err := filepath.Rel(s.baseDir, match)
		if err != nil {
			rel = match
		}
		names = append(names, rel)
	}
	return names, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(filename string) error {
	path := s.resolve(filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete data file: %w", err)
	}
	return nil
}

func (s *LocalStorage) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(s.baseDir, filename)
}
