package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// TimeLayout is fixed-width UTC with millisecond precision so that string
	// comparison in the store matches chronological order.
	TimeLayout = "2006-01-02T15:04:05.000Z"
	DateLayout = "2006-01-02"
)

// Time is a UTC instant persisted as TimeLayout text.
type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	return Time{Time: t.UTC().Truncate(time.Millisecond)}
}

func Now() Time {
	return NewTime(time.Now())
}

func ParseTime(s string) (Time, error) {
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05", DateLayout} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewTime(t), nil
		}
	}
	return Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func (t Time) String() string {
	return t.UTC().Format(TimeLayout)
}

// Date returns the UTC calendar date of t.
func (t Time) Date() string {
	return t.UTC().Format(DateLayout)
}

func (t Time) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = NewTime(v)
		return nil
	case string:
		parsed, err := ParseTime(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case nil:
		*t = Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into model.Time", src)
	}
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DayBounds returns the inclusive [00:00:00.000, 23:59:59.999] UTC range of a
// YYYY-MM-DD date.
func DayBounds(date string) (Time, Time, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return Time{}, Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	start := NewTime(day)
	end := NewTime(day.Add(24*time.Hour - time.Millisecond))
	return start, end, nil
}

// RangeBounds is DayBounds over an inclusive span of dates.
func RangeBounds(startDate, endDate string) (Time, Time, error) {
	start, _, err := DayBounds(startDate)
	if err != nil {
		return Time{}, Time{}, err
	}
	_, end, err := DayBounds(endDate)
	if err != nil {
		return Time{}, Time{}, err
	}
	if end.Before(start.Time) {
		return Time{}, Time{}, fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}
	return start, end, nil
}
