package trash

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/ini.v1"
)

const (
	// InfoSuffix is appended to the content name to form the record name
	InfoSuffix = ".trashinfo"
	// InfoGroup is the only group of a .trashinfo file
	InfoGroup = "Trash Info"
	// DateLayout is the DeletionDate format, local time without offset
	DateLayout = "2006-01-02T15:04:05"
)

var errNoInfoGroup = errors.New("missing [Trash Info] group")

// Info is the parsed content of a .trashinfo record.
type Info struct {
	// OriginalPath is the decoded Path key. Informational only.
	OriginalPath string
	// DeletionDate is valid only when DateErr is nil.
	DeletionDate time.Time
	// DateErr wraps ErrDateUnparsable when DeletionDate is missing or malformed.
	DateErr error
}

// infoLoadOptions reads records as desktop entry files: one key per line,
// "=" as the only delimiter and values taken verbatim.
var infoLoadOptions = ini.LoadOptions{
	IgnoreContinuation:      true,
	IgnoreInlineComment:     true,
	SkipUnrecognizableLines: true,
	PreserveSurroundedQuote: true,
	KeyValueDelimiters:      "=",
}

// ParseInfo parses a .trashinfo record. DeletionDate is interpreted in loc.
// A record without the [Trash Info] group, or one that cannot be read, yields
// an error; a bad or missing date does not and is reported through DateErr.
func ParseInfo(r io.Reader, loc *time.Location) (Info, error) {
	if loc == nil {
		loc = time.Local
	}

	file, err := ini.LoadSources(infoLoadOptions, r)
	if err != nil {
		return Info{}, err
	}
	section, err := file.GetSection(InfoGroup)
	if err != nil {
		return Info{}, errNoInfoGroup
	}

	var info Info
	if section.HasKey("Path") {
		info.OriginalPath = decodePath(section.Key("Path").Value())
	}

	if !section.HasKey("DeletionDate") {
		info.DateErr = fmt.Errorf("%w: missing DeletionDate", ErrDateUnparsable)
		return info, nil
	}
	rawDate := section.Key("DeletionDate").Value()
	date, err := time.ParseInLocation(DateLayout, rawDate, loc)
	if err != nil {
		info.DateErr = fmt.Errorf("%w: %q: %w", ErrDateUnparsable, rawDate, err)
		return info, nil
	}
	info.DeletionDate = date

	return info, nil
}

// decodePath undoes the percent-encoding of the Path key. Undecodable values
// are returned as stored.
func decodePath(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return norm.NFC.String(decoded)
}
