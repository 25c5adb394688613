// Package output derives the storage keys used for raw homepages and final
// headline tables.
package output

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	// RawPrefix holds downloaded homepages and feeds.
	RawPrefix = "headlines/raw"
	// FinalPrefix holds the partitioned headline tables.
	FinalPrefix = "headlines/final"
	// TableName is the object name of every final table.
	TableName = "noticias.csv"
	// DateLayout is the date format used inside raw keys and APIs.
	DateLayout = "2006-01-02"
)

// ErrInvalidRawKey is returned when a key does not follow the raw layout.
var ErrInvalidRawKey = errors.New("invalid raw key")

// Key returns the partition path of a publisher's table for a date:
// headlines/final/periodico={p}/year={yyyy}/month={mm}/day={dd}/noticias.csv
func Key(publisher string, date time.Time) string {
	return fmt.Sprintf("%s/periodico=%s/year=%04d/month=%02d/day=%02d/%s",
		FinalPrefix, publisher, date.Year(), int(date.Month()), date.Day(), TableName)
}

// RawKey returns the key of a publisher's downloaded homepage for a date.
func RawKey(publisher string, date time.Time) string {
	return fmt.Sprintf("%s/%s-contenido-%s.html", RawPrefix, publisher, date.Format(DateLayout))
}

// RawFeedKey returns the key of a publisher's downloaded feed for a date.
func RawFeedKey(publisher string, date time.Time) string {
	return fmt.Sprintf("%s/%s-feed-%s.xml", RawPrefix, publisher, date.Format(DateLayout))
}

// ParseRawKey recovers the publisher and date from a raw homepage key.
// Both "{p}-contenido-{date}.html" and the shorter "{p}-{date}.html" are
// accepted.
func ParseRawKey(key string) (string, time.Time, error) {
	name := path.Base(key)
	if !strings.HasSuffix(name, ".html") {
		return "", time.Time{}, fmt.Errorf("%w: %s: not an .html object", ErrInvalidRawKey, key)
	}
	name = strings.TrimSuffix(name, ".html")

	// The date is always the last three dash-separated parts
	parts := strings.Split(name, "-")
	if len(parts) < 4 {
		return "", time.Time{}, fmt.Errorf("%w: %s", ErrInvalidRawKey, key)
	}

	date, err := ParseDate(strings.Join(parts[len(parts)-3:], "-"))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidRawKey, key, err)
	}

	publisher := strings.TrimSuffix(strings.Join(parts[:len(parts)-3], "-"), "-contenido")
	if publisher == "" || publisher == "contenido" {
		return "", time.Time{}, fmt.Errorf("%w: %s: no publisher", ErrInvalidRawKey, key)
	}

	return publisher, date, nil
}

// ParseDate parses a yyyy-mm-dd date in UTC.
func ParseDate(s string) (time.Time, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: must be yyyy-mm-dd", s)
	}
	return date, nil
}
