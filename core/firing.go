package core

import "sync/atomic"

// State is the position of the dimmer within the current half-cycle
type State uint32

const (
	StateIdle          State = iota // not started, or no edge seen yet
	StateReset                      // zero-cross: outputs low, snapshot published
	StateImmediateFire              // firing loads with negligible delay
	StateArmed                      // timer counting down to the next load
	StateFireGroup                  // timer expired, firing a coalesced group
	StateDisarmed                   // nothing more to fire before the next edge
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReset:
		return "RESET"
	case StateImmediateFire:
		return "IMMEDIATE_FIRE"
	case StateArmed:
		return "ARMED"
	case StateFireGroup:
		return "FIRE_GROUP"
	case StateDisarmed:
		return "DISARMED"
	default:
		return "UNKNOWN"
	}
}

func (d *Dimmer) setState(s State) {
	atomic.StoreUint32(&d.state, uint32(s))
}

// handleZeroCross runs on the rising edge of the sync pin.
// Interrupt context: bounded loops over fixed arrays, no allocation.
func (d *Dimmer) handleZeroCross() {
	s := &d.sched
	d.setState(StateReset)
	atomic.AddUint32(&d.counters.halfCycles, 1)

	// Thyristors latch until the current drops, so the gate can go low now
	for i := 0; i < s.count; i++ {
		d.write(s.entries[i].pin, false)
	}

	d.publish()
	s.cursor = 0
	RecordTrace(TraceZeroCross, d.cfg.SyncPin, 0, uint32(s.count))

	d.setState(StateImmediateFire)
	for s.cursor < s.active && s.entries[s.cursor].delay < d.cfg.ImmediateFireUS {
		d.fire(TraceFireImmediate)
		atomic.AddUint32(&d.counters.immediate, 1)
	}

	if s.cursor < s.active && s.entries[s.cursor].delay < d.cfg.ArmCutoffUS {
		delay := s.entries[s.cursor].delay
		d.timer.SetCallback(d.timerFn)
		d.timer.Arm(delay)
		d.setState(StateArmed)
		RecordTrace(TraceArm, s.entries[s.cursor].pin, s.cursor, delay)
		return
	}
	d.disarm()
}

// handleTimer runs on timer expiry: fires the due load, plus every
// following load too close to it for the timer to separate, then arms
// for the next one.
func (d *Dimmer) handleTimer() {
	s := &d.sched
	if s.cursor >= s.active {
		atomic.AddUint32(&d.counters.spurious, 1)
		RecordTrace(TraceSpurious, d.cfg.SyncPin, s.cursor, 0)
		d.timer.SetCallback(nil)
		return
	}

	d.setState(StateFireGroup)
	d.fire(TraceFire)
	for s.cursor < s.active &&
		s.entries[s.cursor].delay-s.entries[s.cursor-1].delay < d.cfg.CoalesceUS {
		d.fire(TraceCoalesce)
		atomic.AddUint32(&d.counters.coalesced, 1)
	}

	// Same cutoff as the zero-cross handler: a load this close to the next
	// edge is left unfired rather than armed across the cycle boundary,
	// even though it is still ahead of the cursor.
	if s.cursor < s.active && s.entries[s.cursor].delay < d.cfg.ArmCutoffUS {
		interval := s.entries[s.cursor].delay - s.entries[s.cursor-1].delay
		d.timer.Arm(interval)
		d.setState(StateArmed)
		RecordTrace(TraceArm, s.entries[s.cursor].pin, s.cursor, interval)
		return
	}
	d.disarm()
}

// disarm removes the timer callback until the next zero-cross
func (d *Dimmer) disarm() {
	s := &d.sched
	if s.cursor < s.active {
		// Too close to the next edge to arm reliably
		atomic.AddUint32(&d.counters.cutoffSkips, 1)
	}
	d.timer.SetCallback(nil)
	d.setState(StateDisarmed)
	RecordTrace(TraceDisarm, d.cfg.SyncPin, s.cursor, 0)
}

// fire drives the load under the cursor high and advances the cursor
func (d *Dimmer) fire(kind TraceKind) {
	s := &d.sched
	e := &s.entries[s.cursor]
	d.write(e.pin, true)
	atomic.AddUint32(&d.counters.fires, 1)
	RecordTrace(kind, e.pin, s.cursor, e.delay)
	s.cursor++
}

func (d *Dimmer) write(pin GPIOPin, level bool) {
	if err := d.gpio.SetPin(pin, level); err != nil {
		atomic.AddUint32(&d.counters.writeErrors, 1)
	}
}
