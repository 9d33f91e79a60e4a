// Package trashtest builds freedesktop trash fixtures for tests.
package trashtest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aatumaykin/trash-expiry/internal/trash"
)

// NewDir creates an empty trash directory (files/ and info/) at path.
func NewDir(t testing.TB, path string) trash.Directory {
	t.Helper()
	for _, sub := range []string{trash.FilesSubdir, trash.InfoSubdir} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0700); err != nil {
			t.Fatalf("failed to create trash dir: %v", err)
		}
	}
	return trash.Directory{Path: path, Kind: trash.KindHome}
}

// InfoRecord renders a .trashinfo record.
func InfoRecord(original string, deletedAt time.Time) string {
	return fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n", original, deletedAt.Format(trash.DateLayout))
}

// AddFile trashes a regular file named name, deleted at deletedAt.
func AddFile(t testing.TB, dir trash.Directory, name string, deletedAt time.Time) trash.Item {
	t.Helper()
	content := filepath.Join(dir.FilesDir(), name)
	if err := os.WriteFile(content, []byte("content of "+name), 0600); err != nil {
		t.Fatalf("failed to write content: %v", err)
	}
	return AddRecord(t, dir, name, InfoRecord("/home/user/"+name, deletedAt))
}

// AddTree trashes a directory named name holding a nested file.
func AddTree(t testing.TB, dir trash.Directory, name string, deletedAt time.Time) trash.Item {
	t.Helper()
	content := filepath.Join(dir.FilesDir(), name, "nested")
	if err := os.MkdirAll(content, 0700); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(content, "file.txt"), []byte("x"), 0600); err != nil {
		t.Fatalf("failed to write tree file: %v", err)
	}
	return AddRecord(t, dir, name, InfoRecord("/home/user/"+name, deletedAt))
}

// AddRecord writes only the metadata record of name with raw content.
func AddRecord(t testing.TB, dir trash.Directory, name, record string) trash.Item {
	t.Helper()
	infoPath := filepath.Join(dir.InfoDir(), name+trash.InfoSuffix)
	if err := os.WriteFile(infoPath, []byte(record), 0600); err != nil {
		t.Fatalf("failed to write trashinfo: %v", err)
	}
	return trash.Item{
		Name:        name,
		ContentPath: filepath.Join(dir.FilesDir(), name),
		InfoPath:    infoPath,
	}
}

// Exists reports whether path exists (without following symlinks).
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
