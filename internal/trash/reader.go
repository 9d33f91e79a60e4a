package trash

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aatumaykin/trash-expiry/internal/logger"
)

// Item is one trashed entity: a metadata record and its paired content.
type Item struct {
	Name        string // base name inside files/
	ContentPath string
	InfoPath    string
	Info
}

// HasDate reports whether the deletion date was parsed.
func (i Item) HasDate() bool {
	return i.DateErr == nil
}

// Reader turns the info/ directory of a trash into a sequence of items.
type Reader struct {
	loc *time.Location
	log *logger.Logger
}

// NewReader creates a reader interpreting deletion dates in loc
// (time.Local when nil).
func NewReader(loc *time.Location, log *logger.Logger) *Reader {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Reader{loc: loc, log: log}
}

// Items returns a lazy sequence over the records of dir. Each call starts a
// new listing. A record that cannot be read yields an error wrapping
// ErrMetadataUnreadable and iteration continues; an unreadable info/ yields a
// single ErrDirectoryUnavailable error.
func (r *Reader) Items(dir Directory) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		entries, err := os.ReadDir(dir.InfoDir())
		if err != nil {
			yield(Item{}, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, dir.InfoDir(), err))
			return
		}

		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasSuffix(name, InfoSuffix) || name == InfoSuffix {
				r.log.Debug("ignoring non trashinfo entry",
					logger.Field{Key: "path", Value: filepath.Join(dir.InfoDir(), name)})
				continue
			}
			if !entry.Type().IsRegular() {
				r.log.Debug("ignoring non regular trashinfo entry",
					logger.Field{Key: "path", Value: filepath.Join(dir.InfoDir(), name)})
				continue
			}

			item, err := r.read(dir, name)
			if !yield(item, err) {
				return
			}
		}
	}
}

// read parses one record. The returned Item carries its paths even on error.
func (r *Reader) read(dir Directory, infoName string) (Item, error) {
	name := strings.TrimSuffix(infoName, InfoSuffix)
	item := Item{
		Name:        name,
		ContentPath: filepath.Join(dir.FilesDir(), name),
		InfoPath:    filepath.Join(dir.InfoDir(), infoName),
	}

	f, err := os.Open(item.InfoPath)
	if err != nil {
		return item, fmt.Errorf("%w: %s: %w", ErrMetadataUnreadable, item.InfoPath, err)
	}
	defer f.Close()

	info, err := ParseInfo(f, r.loc)
	if err != nil {
		return item, fmt.Errorf("%w: %s: %w", ErrMetadataUnreadable, item.InfoPath, err)
	}
	if dir.Kind == KindTopDir && dir.Top != "" && info.OriginalPath != "" && !filepath.IsAbs(info.OriginalPath) {
		info.OriginalPath = filepath.Join(dir.Top, info.OriginalPath)
	}
	item.Info = info

	return item, nil
}
