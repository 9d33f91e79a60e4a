package trash

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DirectorySizesFile caches the sizes of trashed directories (Trash spec 1.0).
const DirectorySizesFile = "directorysizes"

// Deleter permanently removes trashed items.
type Deleter struct {
	removeAll func(path string) error
	remove    func(path string) error
}

// NewDeleter creates a deleter operating on the real filesystem.
func NewDeleter() *Deleter {
	return &Deleter{removeAll: os.RemoveAll, remove: os.Remove}
}

// Delete removes the content of item and then its metadata record. A failed
// content removal leaves the record in place, so the item is retried on the
// next run. Already missing content or record is not an error.
func (d *Deleter) Delete(item Item) error {
	if err := d.removeContent(item.ContentPath); err != nil {
		return fmt.Errorf("%w: content %s: %w", ErrDeletionFailed, item.ContentPath, err)
	}
	if err := d.remove(item.InfoPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: metadata %s: %w", ErrDeletionFailed, item.InfoPath, err)
	}
	return nil
}

// removeContent removes path recursively. Trashed trees may contain
// directories without write permission; those are made writable and the
// removal is retried once.
func (d *Deleter) removeContent(path string) error {
	err := d.removeAll(path)
	if err == nil || !errors.Is(err, fs.ErrPermission) {
		return err
	}
	if werr := makeWritable(path); werr != nil {
		return err
	}
	return d.removeAll(path)
}

func makeWritable(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.Mode().Perm()&0700 != 0700 {
			return os.Chmod(path, info.Mode().Perm()|0700)
		}
		return nil
	})
}

// PruneDirectorySizes drops entries of directorysizes whose item no longer
// exists in files/. It returns the number of removed entries. The cache is
// rewritten through a temporary file and a rename.
func PruneDirectorySizes(dir Directory) (int, error) {
	path := filepath.Join(dir.Path, DirectorySizesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	var (
		kept    bytes.Buffer
		removed int
	)
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		// size mtime percent-encoded-name
		fields := strings.SplitN(line, " ", 3)
		if len(fields) == 3 {
			name, err := url.PathUnescape(fields[2])
			if err == nil {
				if _, err := os.Lstat(filepath.Join(dir.FilesDir(), name)); errors.Is(err, fs.ErrNotExist) {
					removed++
					continue
				}
			}
		}
		kept.WriteString(line)
		kept.WriteByte('\n')
	}

	if removed == 0 {
		return 0, nil
	}

	tmp, err := os.CreateTemp(dir.Path, DirectorySizesFile+".*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(kept.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, err
	}
	return removed, nil
}
