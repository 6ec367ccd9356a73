package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// dateLayout is the wire and storage format for birthdays: "2006-01-02".
const dateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day and no timezone.
//
// WHY NOT time.Time?
// A birthday is a date, not an instant. time.Time carries an hour, a minute
// and a location, and comparing two of them across timezones can shift the
// day — exactly the bug you don't want in a birthday tracker. Wrapping the
// three fields we actually care about makes "same month and day" comparisons
// explicit and keeps JSON and SQLite representations stable ("1990-05-01").
//
// The year IS stored — we show it and may compute ages later — but the
// "is it their birthday today?" check deliberately ignores it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses "YYYY-MM-DD". Invalid dates (2023-02-31) are rejected
// because time.Parse normalizes them and we compare the round trip.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("model: parsing date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// String returns the canonical "YYYY-MM-DD" form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is the zero value (no date set).
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// SameDayAs reports whether two dates share month and day, ignoring year.
// This is the "is it their birthday?" comparison.
func (d Date) SameDayAs(other Date) bool {
	return d.Month == other.Month && d.Day == other.Day
}

// MarshalJSON encodes the date as a JSON string: "1990-05-01".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" JSON string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so a Date can be passed straight to
// ExecContext. Stored as TEXT in the canonical layout, which also makes
// the column sortable and comparable with strftime in SQL.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for reading the TEXT column back.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = DateOf(v)
		return nil
	default:
		return fmt.Errorf("model: cannot scan %T into Date", src)
	}
}
