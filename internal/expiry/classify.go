// Package expiry decides which trashed items are due for permanent deletion
// and carries out one expiry pass over the located trash directories.
package expiry

import (
	"time"

	"github.com/aatumaykin/trash-expiry/internal/trash"
)

// Day is the unit of the configured thresholds.
const Day = 24 * time.Hour

// Class is the expiry state of a trashed item.
type Class string

const (
	ClassFresh   Class = "fresh"
	ClassWarn    Class = "warn"
	ClassExpired Class = "expired"
	// ClassUnknown marks items whose deletion date could not be read. They are
	// never deleted.
	ClassUnknown Class = "unknown"
)

// Classes lists every class in a stable order.
var Classes = []Class{ClassFresh, ClassWarn, ClassExpired, ClassUnknown}

func (c Class) String() string {
	return string(c)
}

// Thresholds are the ages at which an item is warned about and deleted.
type Thresholds struct {
	WarnAfter   time.Duration
	DeleteAfter time.Duration
}

// Age returns how long ago deletedAt was, never negative.
func Age(now, deletedAt time.Time) time.Duration {
	age := now.Sub(deletedAt)
	if age < 0 {
		return 0
	}
	return age
}

// ClassifyAge maps an age onto fresh, warn or expired. Expired wins when
// WarnAfter is larger than DeleteAfter.
func ClassifyAge(age time.Duration, th Thresholds) Class {
	switch {
	case age >= th.DeleteAfter:
		return ClassExpired
	case age >= th.WarnAfter:
		return ClassWarn
	default:
		return ClassFresh
	}
}

// Classify returns the class and age of item at now. Items without a usable
// deletion date are ClassUnknown with zero age.
func Classify(now time.Time, item trash.Item, th Thresholds) (Class, time.Duration) {
	if !item.HasDate() {
		return ClassUnknown, 0
	}
	age := Age(now, item.DeletionDate)
	return ClassifyAge(age, th), age
}

// Days converts an age into whole days.
func Days(age time.Duration) int {
	return int(age / Day)
}
