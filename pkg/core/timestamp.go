package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Millis is a wire timestamp expressed as integer milliseconds since the Unix epoch.
//
// The zero value means "absent". A wire value of 0 (or null, or a missing field)
// decodes to absent, and absent encodes to 0, so the sentinel survives a round trip.
// Fields tagged `omitzero` leave absent timestamps out of the JSON entirely.
// Every timestamp-bearing field in every record goes through this type.
type Millis struct {
	t time.Time
}

// At returns the timestamp for t. A zero t yields an absent timestamp.
func At(t time.Time) Millis {
	if t.IsZero() {
		return Millis{}
	}
	return Millis{t: t.Round(time.Millisecond).UTC()}
}

// UnixMilli returns the timestamp ms milliseconds after the epoch; 0 yields absent.
func UnixMilli(ms int64) Millis {
	if ms == 0 {
		return Millis{}
	}
	return Millis{t: time.UnixMilli(ms).UTC()}
}

// Time returns the instant in UTC, or the zero time when absent.
func (m Millis) Time() time.Time {
	return m.t
}

// IsZero reports whether the timestamp is absent.
func (m Millis) IsZero() bool {
	return m.t.IsZero()
}

// UnixMilli returns milliseconds since the epoch, rounded to the nearest millisecond; 0 when absent.
func (m Millis) UnixMilli() int64 {
	if m.t.IsZero() {
		return 0
	}
	return m.t.Round(time.Millisecond).UnixMilli()
}

// String formats the timestamp as RFC 3339 with milliseconds, or "-" when absent.
func (m Millis) String() string {
	if m.t.IsZero() {
		return "-"
	}
	return m.t.Format("2006-01-02T15:04:05.000Z07:00")
}

// MarshalJSON implements json.Marshaler for Millis.
func (m Millis) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, m.UnixMilli(), 10), nil
}

// UnmarshalJSON implements json.Unmarshaler for Millis.
// It accepts integers, floats (rounded to the nearest millisecond) and null.
func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Millis{}
		return nil
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil {
			return fmt.Errorf("invalid millisecond timestamp %s: %w", data, err)
		}
		ms = int64(math.Round(f))
	}
	*m = UnixMilli(ms)
	return nil
}
