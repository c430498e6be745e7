package weave

import (
	"encoding/json"
	"time"

	"github.com/michaelwinczuk/agent-contracts/errors"
)

// UnixTime represents a point in time as POSIX time with seconds precision.
// It is used instead of time.Time in every persisted model so that the
// binary representation stays a plain integer.
type UnixTime int64

// AsUnixTime converts given Time structure into its UNIX time representation.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// Time returns a time.Time structure that represents the same moment in time.
func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// IsZero returns true if this time represents a zero value.
func (t UnixTime) IsZero() bool {
	return t == 0
}

// Add modifies this UNIX time by given duration. This is compatible with
// time.Time.Add method. Sub-second precision is dropped.
func (t UnixTime) Add(d time.Duration) UnixTime {
	return t + UnixTime(d/time.Second)
}

// Validate returns an error if this time value is invalid.
func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrState, "negative value")
	}
	return nil
}

// String returns the RFC3339 representation of this time in UTC.
func (t UnixTime) String() string {
	return t.Time().Format(time.RFC3339)
}

// UnmarshalJSON supports unmarshaling both from a number and from the
// time.Time string format. A number is the usual representation, but the
// string format is convenient in configuration files such as genesis.
func (t *UnixTime) UnmarshalJSON(raw []byte) error {
	var unix int64
	if err := json.Unmarshal(raw, &unix); err == nil {
		if unix < 0 {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = UnixTime(unix)
		return nil
	}

	var stdtime time.Time
	if err := json.Unmarshal(raw, &stdtime); err == nil {
		unix := AsUnixTime(stdtime)
		if unix < 0 {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = unix
		return nil
	}

	return errors.Wrap(errors.ErrInput, "invalid time format")
}
