// Package system provides the wall clock behind content.Clock. Blob paths
// embed its Unix-millisecond timestamps, so it always reports UTC.
package system

import "time"

// Clock reads the system time.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
