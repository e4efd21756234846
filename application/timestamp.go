package application

import (
	"encoding/json"
	"fmt"
	"time"
)

// offset-less ISO-8601 layouts, read as UTC
var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a time.Time that reads any ISO-8601 date-time from JSON and
// writes RFC 3339.
type Timestamp time.Time

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Time returns the underlying time.Time value.
func (ts Timestamp) Time() time.Time {
	return time.Time(ts)
}

func (ts Timestamp) IsZero() bool {
	return time.Time(ts).IsZero()
}

func (ts Timestamp) Equal(t Timestamp) bool {
	return time.Time(ts).Equal(time.Time(t))
}

func (ts Timestamp) String() string {
	return time.Time(ts).Format(time.RFC3339Nano)
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = Timestamp(t)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(ts).Format(time.RFC3339Nano))
}

// ParseTimestamp parses RFC 3339 or an ISO-8601 date-time without zone
// offset, which is taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
