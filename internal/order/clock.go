package order

import "time"

// Clock supplies the current time to timestamp-stamping transitions.
// It is an explicit dependency so tests and callers control time; the
// aggregate never reads ambient wall-clock state.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
