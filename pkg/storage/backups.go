package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrOutsideRoot is returned when a name resolves outside the backup directory.
var ErrOutsideRoot = errors.New("path escapes backup directory")

// BackupDir keeps JSON backups as flat files under one directory.
type BackupDir struct {
	root string
}

// NewBackupDir creates root when missing.
func NewBackupDir(root string) (*BackupDir, error) {
	if root == "" {
		root = "./backups"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve backup directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &BackupDir{root: abs}, nil
}

// Root returns the absolute backup directory.
func (d *BackupDir) Root() string {
	return d.root
}

// Save writes data under name and returns the name it was stored as.
func (d *BackupDir) Save(name string, data []byte) (string, error) {
	path, err := d.resolve(name)
	if err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return "", fmt.Errorf("finalise backup: %w", err)
	}
	return filepath.Base(path), nil
}

// Open returns a read-only handle for a stored backup.
func (d *BackupDir) Open(name string) (*os.File, error) {
	path, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	return file, nil
}

// List returns the stored backup names, oldest first.
func (d *BackupDir) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	type stamped struct {
		name string
		mod  time.Time
	}
	files := make([]stamped, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, stamped{name: entry.Name(), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names, nil
}

// CleanupOlderThan removes backups last modified before now-ttl and returns their names.
func (d *BackupDir) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("cleanup backups: %w", err)
	}
	removed := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.root, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove backup %s: %w", entry.Name(), err)
		}
		removed = append(removed, entry.Name())
	}
	return removed, nil
}

func (d *BackupDir) resolve(name string) (string, error) {
	clean := filepath.Base(filepath.Clean("/" + name))
	if clean == "/" || clean == "." || clean != name {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	return filepath.Join(d.root, clean), nil
}
