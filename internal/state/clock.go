package state

import "time"

// Clock abstracts wall time so TTL expiry and backup retention are
// deterministic under test. Implemented by SystemClock (production) and
// testutil.ManualClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
