package core

import "sync/atomic"

// scheduleEntry is the handler-side copy of one load
type scheduleEntry struct {
	pin   GPIOPin
	delay uint32
}

// schedule is the snapshot the zero-cross and timer handlers fire from.
//
// The mutator never writes entries, count or active; it only raises busy
// around a registry mutation and dirty after one. The zero-cross handler
// copies the registry only when it sees dirty set and busy clear, so a
// published snapshot is either the previous one or a complete new one.
type schedule struct {
	entries [MaxLoads]scheduleEntry
	count   int // entries published
	active  int // leading entries below the off delay, the only ones that may fire
	cursor  int // next entry to fire this half-cycle

	dirty uint32
	busy  uint32
}

// beginMutation marks a registry mutation in flight
func (d *Dimmer) beginMutation() {
	atomic.StoreUint32(&d.sched.busy, 1)
}

// endMutation flags the registry for publication when it changed and
// lifts the busy mark. dirty is raised before busy drops, so a handler
// can never see the change as complete while it is still being made.
func (d *Dimmer) endMutation(changed bool) {
	if changed {
		atomic.StoreUint32(&d.sched.dirty, 1)
	}
	if assertInvariants {
		if err := d.reg.validate(); err != nil {
			panic(err)
		}
	}
	atomic.StoreUint32(&d.sched.busy, 0)
}

// publish copies the registry into the schedule if it changed and no
// mutation is in flight. Runs in the zero-cross handler.
func (d *Dimmer) publish() {
	s := &d.sched
	if atomic.LoadUint32(&s.dirty) == 0 {
		return
	}
	if atomic.LoadUint32(&s.busy) != 0 {
		// Keep last cycle's snapshot; dirty stays set for the next edge
		atomic.AddUint32(&d.counters.staleCycles, 1)
		RecordTrace(TraceStale, d.cfg.SyncPin, 0, uint32(s.count))
		return
	}

	n := d.reg.count
	active := 0
	for i := 0; i < n; i++ {
		l := d.reg.at(i)
		s.entries[i] = scheduleEntry{pin: l.pin, delay: l.delay}
		if l.delay < d.cfg.OffDelayUS {
			active = i + 1
		}
	}
	s.count = n
	s.active = active
	atomic.StoreUint32(&s.dirty, 0)

	atomic.AddUint32(&d.counters.publishes, 1)
	RecordTrace(TracePublish, d.cfg.SyncPin, 0, uint32(n))
}
