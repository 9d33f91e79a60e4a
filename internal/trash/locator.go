package trash

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/aatumaykin/trash-expiry/internal/logger"
)

// Kind tells where a trash directory lives.
type Kind string

const (
	// KindHome is $XDG_DATA_HOME/Trash
	KindHome Kind = "home"
	// KindTopDir is a per-user trash at the top of a mounted filesystem
	KindTopDir Kind = "topdir"
)

const (
	FilesSubdir = "files"
	InfoSubdir  = "info"
)

// Directory is one trash directory with files/ and info/ subdirectories.
type Directory struct {
	Path string
	Kind Kind
	// Top is the mount point of a KindTopDir trash. Relative Path keys in
	// its records are relative to Top.
	Top string
}

// FilesDir returns the path of the trashed content directory.
func (d Directory) FilesDir() string {
	return filepath.Join(d.Path, FilesSubdir)
}

// InfoDir returns the path of the metadata directory.
func (d Directory) InfoDir() string {
	return filepath.Join(d.Path, InfoSubdir)
}

// Locator enumerates the trash directories of one user.
type Locator struct {
	env    Env
	mounts func() ([]Mount, error)
	log    *logger.Logger
}

// NewLocator creates a locator that reads the system mount table.
func NewLocator(env Env, log *logger.Logger) *Locator {
	return NewLocatorWithMounts(env, ReadMounts, log)
}

// NewLocatorWithMounts creates a locator with a custom mount source.
func NewLocatorWithMounts(env Env, mounts func() ([]Mount, error), log *logger.Logger) *Locator {
	if log == nil {
		log = logger.Discard()
	}
	return &Locator{env: env, mounts: mounts, log: log}
}

// Locate returns the home trash followed by the per-mount trash directories,
// in mount table order and without duplicates. Candidates that do not exist
// are skipped silently; candidates that cannot be probed are skipped and
// reported as ErrDirectoryUnavailable.
func (l *Locator) Locate() ([]Directory, []error) {
	var (
		dirs []Directory
		errs []error
	)
	seen := make(map[string]bool)

	consider := func(d Directory) {
		ok, err := probe(d.Path)
		if err != nil {
			errs = append(errs, err)
			return
		}
		if !ok {
			return
		}
		key := identity(d.Path)
		if seen[key] {
			return
		}
		seen[key] = true
		dirs = append(dirs, d)
	}

	consider(Directory{Path: l.env.HomeTrash(), Kind: KindHome})

	mounts, err := l.mounts()
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: mount table: %w", ErrDirectoryUnavailable, err))
		return dirs, errs
	}

	for _, m := range mounts {
		if m.IsVirtual() {
			continue
		}
		if m.IsRemote() {
			l.log.Debug("skipping network filesystem",
				logger.Field{Key: "mount", Value: m.Point},
				logger.Field{Key: "fstype", Value: m.FSType})
			continue
		}
		// Only filesystems the user can enter are relevant.
		if unix.Access(m.Point, unix.X_OK) != nil {
			continue
		}
		for _, path := range l.topDirCandidates(m.Point) {
			consider(Directory{Path: path, Kind: KindTopDir, Top: m.Point})
		}
	}

	return dirs, errs
}

// topDirCandidates returns $topdir/.Trash/$uid and $topdir/.Trash-$uid when
// they pass the safety checks of the Trash specification.
func (l *Locator) topDirCandidates(top string) []string {
	var candidates []string
	uid := strconv.Itoa(l.env.UID)

	shared := filepath.Join(top, ".Trash")
	if ok, reason := l.checkShared(shared); ok {
		candidates = append(candidates, filepath.Join(shared, uid))
	} else if reason != "" {
		l.log.Warn("skipping unsafe shared trash directory",
			logger.Field{Key: "path", Value: shared},
			logger.Field{Key: "reason", Value: reason})
	}

	private := filepath.Join(top, ".Trash-"+uid)
	if ok, reason := l.checkPrivate(private); ok {
		candidates = append(candidates, private)
	} else if reason != "" {
		l.log.Warn("skipping unsafe trash directory",
			logger.Field{Key: "path", Value: private},
			logger.Field{Key: "reason", Value: reason})
	}

	return candidates
}

// checkShared validates $topdir/.Trash. An empty reason with ok=false means
// the directory simply does not exist.
func (l *Locator) checkShared(path string) (bool, string) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENOTDIR) {
			return false, ""
		}
		return false, err.Error()
	}
	switch {
	case st.Mode&unix.S_IFMT == unix.S_IFLNK:
		return false, "is a symbolic link"
	case st.Mode&unix.S_IFMT != unix.S_IFDIR:
		return false, "is not a directory"
	case st.Mode&unix.S_ISVTX == 0:
		return false, "sticky bit is not set"
	}
	return true, ""
}

// checkPrivate validates $topdir/.Trash-$uid.
func (l *Locator) checkPrivate(path string) (bool, string) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENOTDIR) {
			return false, ""
		}
		return false, err.Error()
	}
	switch {
	case st.Mode&unix.S_IFMT == unix.S_IFLNK:
		return false, "is a symbolic link"
	case st.Mode&unix.S_IFMT != unix.S_IFDIR:
		return false, "is not a directory"
	case int64(st.Uid) != int64(l.env.UID):
		return false, fmt.Sprintf("owned by uid %d", st.Uid)
	}
	return true, ""
}

// probe reports whether path is a usable trash directory.
func probe(path string) (bool, error) {
	for _, sub := range []string{"", FilesSubdir, InfoSubdir} {
		p := filepath.Join(path, sub)
		var st unix.Stat_t
		if err := unix.Stat(p, &st); err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, unix.ENOTDIR) {
				return false, nil
			}
			return false, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, p, err)
		}
		if st.Mode&unix.S_IFMT != unix.S_IFDIR {
			return false, nil
		}
	}
	return true, nil
}

// identity keys a directory by device and inode so bind mounts and symlinked
// paths collapse into one entry.
func identity(path string) string {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return "path:" + filepath.Clean(path)
	}
	return fmt.Sprintf("%d:%d", st.Dev, st.Ino)
}
