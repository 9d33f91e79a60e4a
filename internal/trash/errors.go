// Package trash implements the freedesktop.org Trash layout: locating the
// trash directories of the invoking user, reading .trashinfo records and
// permanently deleting trashed items.
//
// A trash directory holds two siblings:
//   - files/: the trashed content, one entry per item
//   - info/:  one <name>.trashinfo record per item in files/
//
// Errors returned by this package wrap one of the sentinel errors below so
// callers can classify them with errors.Is. None of them is fatal to a run.
package trash

import "errors"

var (
	// ErrDirectoryUnavailable is returned when a trash directory exists but
	// cannot be probed or listed
	ErrDirectoryUnavailable = errors.New("trash directory unavailable")

	// ErrMetadataUnreadable is returned when a .trashinfo record cannot be
	// read or is not a trash info file at all
	ErrMetadataUnreadable = errors.New("trash metadata unreadable")

	// ErrDateUnparsable marks an item whose DeletionDate is missing or malformed
	ErrDateUnparsable = errors.New("deletion date unparsable")

	// ErrDeletionFailed is returned when content or metadata removal fails
	ErrDeletionFailed = errors.New("deletion failed")
)
