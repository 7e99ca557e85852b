package trace

import (
	"fmt"

	"thyristor/core"
)

// Violation is a scheduling rule broken within one half-cycle
type Violation struct {
	HalfCycle int
	Event     Event
	Reason    string
}

func (v Violation) String() string {
	return fmt.Sprintf("half-cycle %d: %s (%s)", v.HalfCycle, v.Reason, v.Event)
}

// Checker verifies firing order per half-cycle: delays never decrease and
// no pin fires twice between two zero-crossings.
//
// Events seen before the first zero-cross, or after a gap in the stream,
// are not checked because the start of their half-cycle is unknown.
type Checker struct {
	halfCycles int
	fires      int
	inCycle    bool
	lastDelay  uint32
	fired      map[core.GPIOPin]bool

	violations []Violation
}

// NewChecker creates an empty checker
func NewChecker() *Checker {
	return &Checker{fired: make(map[core.GPIOPin]bool)}
}

// Observe feeds one event, in stream order
func (c *Checker) Observe(e Event) {
	switch {
	case e.Kind == core.TraceZeroCross:
		c.halfCycles++
		c.inCycle = true
		c.lastDelay = 0
		clear(c.fired)

	case e.Kind.IsFiring():
		c.fires++
		if !c.inCycle {
			return
		}
		if e.Value < c.lastDelay {
			c.report(e, fmt.Sprintf("delay %d fired after %d", e.Value, c.lastDelay))
		}
		if c.fired[e.Pin] {
			c.report(e, "pin fired twice")
		}
		c.fired[e.Pin] = true
		c.lastDelay = e.Value

	case e.Kind == core.TraceSpurious:
		if c.inCycle {
			c.report(e, "spurious timer expiry")
		}
	}
}

// Resync forgets the current half-cycle, e.g. after frames were lost
func (c *Checker) Resync() {
	c.inCycle = false
}

func (c *Checker) report(e Event, reason string) {
	c.violations = append(c.violations, Violation{
		HalfCycle: c.halfCycles,
		Event:     e,
		Reason:    reason,
	})
}

// Violations returns everything reported so far
func (c *Checker) Violations() []Violation {
	return c.violations
}

// HalfCycles returns the number of zero-crossings seen
func (c *Checker) HalfCycles() int {
	return c.halfCycles
}

// Fires returns the number of firing events seen
func (c *Checker) Fires() int {
	return c.fires
}
