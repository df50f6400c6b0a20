// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// Clock returns the current time. Flows take one so tests can move time.
type Clock func() time.Time

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// IsBefore reports whether now is strictly before the given deadline.
// A nil deadline is never satisfied.
func IsBefore(now time.Time, deadline *time.Time) bool {
	if deadline == nil {
		return false
	}
	return now.Before(*deadline)
}

