package domain

import "time"

// Clock abstracts the wall clock so schedule computations can be tested
// against fixed instants. All calendar arithmetic happens in the location
// of the returned time.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
