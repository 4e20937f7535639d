package materializer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CleanName replaces every character that is unsafe in a file name with "_".
func CleanName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// StablePath names the durable artifact for one output of one strip:
// {owner}_{generator}_{output}_{id}{ext} inside dir.
func StablePath(dir, owner, generator, output, id, ext string) string {
	return filepath.Join(dir, CleanName(fmt.Sprintf("%s_%s_%s_%s", owner, generator, output, id))+ext)
}

// Purge removes every file in dir whose name contains id. A missing directory
// is not an error. Failures are collected and do not stop the sweep.
func Purge(dir, id string) (removed []string, err error) {
	if id == "" {
		return nil, nil
	}
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		if errors.Is(readErr, os.ErrNotExist) {
			return nil, nil
		}
		return nil, readErr
	}

	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), id) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if rmErr := os.Remove(p); rmErr != nil {
			errs = append(errs, rmErr)
			continue
		}
		removed = append(removed, p)
	}
	return removed, errors.Join(errs...)
}

// Move relocates src to dst. When a rename is impossible (different file
// systems) it copies into a temp file next to dst, syncs it and renames it
// into place, then removes src.
func Move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if _, statErr := os.Stat(src); statErr != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".partial-*"+filepath.Ext(dst))
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("failed to place artifact: %w", err)
	}
	return os.Remove(src)
}
