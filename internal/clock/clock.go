// Package clock abstracts the current instant so deadline arithmetic,
// past-date validation and the expiry sweep can be tested against a fixed
// point in time.
package clock

import "time"

// Clock supplies the current instant in UTC.
type Clock interface {
	Now() time.Time
}

// Real reads the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed returns a Clock pinned to t. Intended for tests.
func Fixed(t time.Time) Clock { return fixed{t: t.UTC()} }

type fixed struct{ t time.Time }

func (f fixed) Now() time.Time { return f.t }
