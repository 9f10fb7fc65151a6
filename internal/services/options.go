package services

import (
	"time"
)

// Option configures the clock of a store service
type Option func(*clock)

type clock struct {
	now func() time.Time
	loc *time.Location
}

// WithNow overrides the time source
func WithNow(now func() time.Time) Option {
	return func(c *clock) { c.now = now }
}

// WithLocation sets the time zone used for calendar-day grouping
func WithLocation(loc *time.Location) Option {
	return func(c *clock) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func newClock(opts []Option) clock {
	c := clock{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
