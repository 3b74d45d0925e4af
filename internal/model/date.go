package model

import (
	"strings"
	"time"
)

// Date is a calendar date with no time-of-day component. The backend
// sends date fields as ISO strings; a malformed string decodes to the
// zero Date, which matches no grouping key, rather than failing the
// whole payload.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp. The zero
// Date and false are returned for anything else.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DateOf(t), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), true
	}
	return Date{}, false
}

// IsZero reports whether the date is the invalid/absent sentinel.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Equal reports whether two dates name the same calendar day. The zero
// Date equals nothing, including another zero Date, so items with an
// unparseable date never surface under any calendar cell.
func (d Date) Equal(other Date) bool {
	if d.IsZero() || other.IsZero() {
		return false
	}
	return d.t.Equal(other.t)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return d.t
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return Date{}
	}
	return DateOf(d.t.AddDate(0, 0, n))
}

// String formats as 2006-01-02, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

// MarshalJSON encodes as "2006-01-02", or null for the zero Date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON is deliberately lenient: null, empty, and malformed
// strings all decode to the zero Date without an error so one bad
// record cannot take down the whole event list.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, ok := ParseDate(s)
	if !ok {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}
