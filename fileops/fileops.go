// Package fileops wraps the raw filesystem calls the executor and journal
// rely on, converting failures into typed errdefs.OperationError values.
package fileops

import (
	"fmt"
	"os"
	"path/filepath"

	"planai/errdefs"
)

// Read returns the contents of path.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errdefs.Operation("read", path, err)
	}
	return string(data), nil
}

// Write writes content to path, creating missing parent directories.
func Write(path, content string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errdefs.Operation("write", path, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errdefs.Operation("write", path, err)
	}
	return nil
}

// WriteAtomic writes data to path via a temp file in the same directory
// followed by a rename, so readers never observe a partial file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errdefs.Operation("write", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errdefs.Operation("write", path, fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()

	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errdefs.Operation("write", path, fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return errdefs.Operation("write", path, fmt.Errorf("close temp file: %w", err))
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errdefs.Operation("write", path, fmt.Errorf("rename: %w", err))
	}
	tmpName = ""
	return nil
}

// Delete removes path. A missing file is not an error: it returns
// (false, nil) so idempotent deletes stay cheap for callers.
func Delete(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, errdefs.Operation("delete", path, err)
	}
	return true, nil
}

// DeleteStrict removes path and treats a missing file as an error.
func DeleteStrict(path string) error {
	if err := os.Remove(path); err != nil {
		return errdefs.Operation("delete", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
