package signer

import (
	"time"

	osserrors "github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
)

// SigningTime wraps time.Time with cached format strings.
type SigningTime struct {
	time.Time
	timeFormat      string
	shortTimeFormat string
}

// NewSigningTime converts t to UTC and validates that it can be rendered in
// the fixed-width signing formats.
func NewSigningTime(t time.Time) (SigningTime, error) {
	if t.IsZero() {
		return SigningTime{}, osserrors.NewAuthError(osserrors.AuthClockSkew, "signing time is not set")
	}
	utc := t.UTC()
	if y := utc.Year(); y < 1 || y > 9999 {
		return SigningTime{}, osserrors.NewAuthError(osserrors.AuthClockSkew, "signing time is outside the four digit year range")
	}
	return SigningTime{Time: utc}, nil
}

// TimeFormat returns the time formatted for x-oss-date.
func (st *SigningTime) TimeFormat() string {
	if st.timeFormat == "" {
		st.timeFormat = st.Format(TimeFormat)
	}
	return st.timeFormat
}

// ShortTimeFormat returns the date used in the credential scope.
func (st *SigningTime) ShortTimeFormat() string {
	if st.shortTimeFormat == "" {
		st.shortTimeFormat = st.Format(ShortTimeFormat)
	}
	return st.shortTimeFormat
}
