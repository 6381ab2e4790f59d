// Package sysfs wraps the kernel sysfs accesses the hardware plugins make,
// with a configurable root so tests can run against a scratch directory.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS resolves sysfs paths below Root. The zero value uses the real
// filesystem root.
type FS struct {
	Root string
}

// Path maps an absolute sysfs path below the configured root.
func (fs FS) Path(p string) string {
	if fs.Root == "" {
		return p
	}
	return filepath.Join(fs.Root, p)
}

// Exists reports whether the sysfs path is present.
func (fs FS) Exists(p string) bool {
	_, err := os.Stat(fs.Path(p))
	return err == nil
}

// ReadString returns the trimmed contents of a sysfs attribute.
func (fs FS) ReadString(p string) (string, error) {
	data, err := os.ReadFile(fs.Path(p))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteString writes a value to a sysfs attribute.
func (fs FS) WriteString(p, value string) error {
	if err := os.WriteFile(fs.Path(p), []byte(value), 0o644); err != nil {
		return fmt.Errorf("could not write %q to %q: %w", value, p, err)
	}
	return nil
}

// ReadDir lists the entry names of a sysfs directory.
func (fs FS) ReadDir(p string) ([]string, error) {
	entries, err := os.ReadDir(fs.Path(p))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
