// Package temporal casts ISO-8601 filter literals to typed date/time values
// according to the declared type of the column they are compared against.
package temporal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/schema"
)

// DefaultType is used when a literal has no governing column.
const DefaultType = schema.TypeDatetimeNS

var datetimeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var timeLayouts = []string{
	"15:04:05Z07:00",
	"15:04:05-0700",
	"15:04:05",
	"15:04Z07:00",
	"15:04",
	"15",
}

var errNoTimePart = errors.New("literal has no 'T' separated time part")

// Date is a calendar date without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date as an ISO string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// TimeOfDay is a wall-clock time without date or zone.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// TimeOfDayOf returns the wall-clock part of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

func (t TimeOfDay) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	switch {
	case t.Nanosecond == 0:
		return s
	case t.Nanosecond%1000 == 0:
		return fmt.Sprintf("%s.%06d", s, t.Nanosecond/1000)
	default:
		return fmt.Sprintf("%s.%09d", s, t.Nanosecond)
	}
}

// MarshalJSON encodes the time of day as an ISO string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// Cast converts literal to the typed value required by column's declared type.
// An empty column means the literal has no governing column and DefaultType applies.
// Columns that are unknown or non-temporal leave the literal untouched.
func Cast(column string, literal any, s schema.Schema) (any, error) {
	typ := DefaultType
	if column != "" {
		t, ok := s.TypeOf(column)
		if !ok {
			return literal, nil
		}
		typ = t
	}
	if !schema.IsTemporal(typ) {
		return literal, nil
	}

	str, ok := literal.(string)
	if !ok {
		return nil, domain.NewParseError(column, literal, typ, fmt.Errorf("literal is %T, not an ISO string", literal))
	}

	var (
		v   any
		err error
	)
	switch {
	case schema.IsDatetime(typ):
		v, err = ParseDatetime(str)
	case typ == schema.TypeDate:
		v, err = ParseDate(str)
	case typ == schema.TypeTime:
		v, err = ParseTime(str)
	}
	if err != nil {
		return nil, domain.NewParseError(column, literal, typ, err)
	}
	return v, nil
}

// ParseDatetime parses an ISO-8601 timestamp. A trailing Z means UTC;
// timestamps without an offset are taken as UTC.
func ParseDatetime(s string) (time.Time, error) {
	s = strings.ReplaceAll(s, "Z", "+00:00")
	var lastErr error
	for _, layout := range datetimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if _, off := t.Zone(); off == 0 {
				t = t.UTC()
			}
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("invalid ISO datetime %q: %w", s, lastErr)
}

// ParseDate parses the date portion (before 'T') of an ISO literal.
func ParseDate(s string) (Date, error) {
	part, _, _ := strings.Cut(s, "T")
	t, err := time.Parse("2006-01-02", part)
	if err != nil {
		return Date{}, fmt.Errorf("invalid ISO date %q: %w", part, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ParseTime parses the time portion (after 'T') of an ISO literal.
func ParseTime(s string) (TimeOfDay, error) {
	parts := strings.Split(s, "T")
	if len(parts) < 2 {
		return TimeOfDay{}, errNoTimePart
	}
	part := strings.ReplaceAll(parts[1], "Z", "+00:00")
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, part)
		if err == nil {
			return TimeOfDayOf(t), nil
		}
		lastErr = err
	}
	return TimeOfDay{}, fmt.Errorf("invalid ISO time %q: %w", part, lastErr)
}

// IsISODatetime reports whether s parses as an ISO-8601 timestamp.
func IsISODatetime(s string) bool {
	_, err := ParseDatetime(s)
	return err == nil
}
