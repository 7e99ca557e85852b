// Phase-cut dimmer
// Fires thyristors/triacs at a programmed delay after every mains zero-cross.
package core

import "sync/atomic"

// NoPin marks an unset pin
const NoPin GPIOPin = 0xFFFFFFFF

// LoadInfo describes one load, as returned by Dimmer.Loads
type LoadInfo struct {
	Handle   LoadHandle
	Pin      GPIOPin
	Delay    uint32
	Position int
}

// Stats is a snapshot of the scheduler counters
type Stats struct {
	HalfCycles  uint32 // zero-cross edges handled
	Publishes   uint32 // fresh snapshots taken
	StaleCycles uint32 // edges that reused the old snapshot (mutation in flight)
	Fires       uint32 // gate pulses, all kinds
	Immediate   uint32 // fired directly in the zero-cross handler
	Coalesced   uint32 // fired in the same timer step as the previous load
	CutoffSkips uint32 // loads left unfired because they were too close to the next edge
	Spurious    uint32 // timer expiries with nothing to fire
	WriteErrors uint32 // failed pin writes from a handler
}

type counters struct {
	halfCycles  uint32
	publishes   uint32
	staleCycles uint32
	fires       uint32
	immediate   uint32
	coalesced   uint32
	cutoffSkips uint32
	spurious    uint32
	writeErrors uint32
}

// Dimmer owns the load registry, the published schedule and the two
// interrupt handlers. Create one per zero-cross line.
//
// Create, Remove, SetDelay and TurnOff belong to the mutator domain and must
// not be called concurrently with each other. The handlers only ever read
// what the mutator publishes.
type Dimmer struct {
	cfg   Config
	gpio  GPIODriver
	timer OneShotTimer

	reg   registry
	sched schedule

	counters counters
	state    uint32
	started  bool

	// Bound once so the handlers never build a method value in interrupt context
	zeroCrossFn func()
	timerFn     func()
}

// NewDimmer creates a dimmer with no loads. Nothing touches the hardware
// until Create or Begin.
func NewDimmer(cfg Config, gpio GPIODriver, timer OneShotTimer) (*Dimmer, error) {
	if gpio == nil || timer == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Dimmer{
		cfg:   cfg,
		gpio:  gpio,
		timer: timer,
	}
	d.reg.init(cfg.OffDelayUS)
	d.zeroCrossFn = d.handleZeroCross
	d.timerFn = d.handleTimer
	return d, nil
}

// SetSyncPin selects the zero-cross input. Must be called before Begin.
func (d *Dimmer) SetSyncPin(pin GPIOPin) error {
	if d.started {
		return ErrAlreadyStarted
	}
	d.cfg.SyncPin = pin
	return nil
}

// Begin configures the sync pin and the timer and attaches the zero-cross
// handler. Loads may be created before or after, but Begin runs only once.
func (d *Dimmer) Begin() error {
	if d.started {
		return ErrAlreadyStarted
	}
	if d.cfg.SyncPin == NoPin {
		return ErrSyncPinUnset
	}

	if err := d.gpio.ConfigureInput(d.cfg.SyncPin); err != nil {
		return err
	}
	if err := d.timer.Init(d.cfg.TimerSource); err != nil {
		return err
	}
	d.timer.SetCallback(nil)

	d.started = true
	if err := d.gpio.AttachRisingEdge(d.cfg.SyncPin, d.zeroCrossFn); err != nil {
		d.started = false
		return err
	}

	DebugPrintln("[DIMMER] started sync=" + utoa(uint32(d.cfg.SyncPin)) +
		" half_cycle=" + utoa(d.cfg.HalfCycleUS) +
		" loads=" + itoa(d.reg.count))
	return nil
}

// Create registers a load on pin. It starts off and is configured as a
// low output before any handler can see it.
func (d *Dimmer) Create(pin GPIOPin) (LoadHandle, error) {
	d.beginMutation()
	h, err := d.reg.create(pin)
	if err != nil {
		d.endMutation(false)
		return LoadHandle{}, err
	}

	if err := d.gpio.ConfigureOutput(pin); err != nil {
		d.rollbackCreate(h)
		return LoadHandle{}, err
	}
	if err := d.gpio.SetPin(pin, false); err != nil {
		d.rollbackCreate(h)
		return LoadHandle{}, err
	}

	d.endMutation(true)
	return h, nil
}

// rollbackCreate undoes a create whose pin could not be set up. The load
// was never marked dirty, so there is nothing to publish.
func (d *Dimmer) rollbackCreate(h LoadHandle) {
	if err := d.reg.remove(h); err != nil && assertInvariants {
		panic(err)
	}
	d.endMutation(false)
}

// Remove drops a load. Its output is driven low; handlers stop firing it
// at the latest one half-cycle later.
func (d *Dimmer) Remove(h LoadHandle) error {
	l, err := d.reg.lookup(h)
	if err != nil {
		return err
	}
	pin := l.pin

	d.beginMutation()
	err = d.reg.remove(h)
	d.endMutation(err == nil)
	if err != nil {
		return err
	}
	return d.gpio.SetPin(pin, false)
}

// SetDelay sets the firing delay of a load in microseconds after the
// zero-cross. OffDelayUS turns it off.
func (d *Dimmer) SetDelay(h LoadHandle, us uint32) error {
	d.beginMutation()
	changed, err := d.reg.setDelay(h, us)
	d.endMutation(changed)
	return err
}

// Delay returns the programmed delay of a load
func (d *Dimmer) Delay(h LoadHandle) (uint32, error) {
	l, err := d.reg.lookup(h)
	if err != nil {
		return 0, err
	}
	return l.delay, nil
}

// TurnOff sets a load's delay to the off value
func (d *Dimmer) TurnOff(h LoadHandle) error {
	return d.SetDelay(h, d.cfg.OffDelayUS)
}

// Pin returns the output pin of a load
func (d *Dimmer) Pin(h LoadHandle) (GPIOPin, error) {
	l, err := d.reg.lookup(h)
	if err != nil {
		return 0, err
	}
	return l.pin, nil
}

// LoadCount returns the number of registered loads
func (d *Dimmer) LoadCount() int {
	return d.reg.count
}

// Loads appends every load to dst in firing order
func (d *Dimmer) Loads(dst []LoadInfo) []LoadInfo {
	for i := 0; i < d.reg.count; i++ {
		slot := d.reg.order[i]
		l := &d.reg.arena[slot]
		dst = append(dst, LoadInfo{
			Handle:   LoadHandle{slot: slot, gen: l.gen},
			Pin:      l.pin,
			Delay:    l.delay,
			Position: l.position,
		})
	}
	return dst
}

// Config returns the timing the dimmer runs with
func (d *Dimmer) Config() Config {
	return d.cfg
}

// Started reports whether Begin succeeded
func (d *Dimmer) Started() bool {
	return d.started
}

// State returns where the handlers are within the current half-cycle
func (d *Dimmer) State() State {
	return State(atomic.LoadUint32(&d.state))
}

// Stats returns a snapshot of the scheduler counters
func (d *Dimmer) Stats() Stats {
	c := &d.counters
	return Stats{
		HalfCycles:  atomic.LoadUint32(&c.halfCycles),
		Publishes:   atomic.LoadUint32(&c.publishes),
		StaleCycles: atomic.LoadUint32(&c.staleCycles),
		Fires:       atomic.LoadUint32(&c.fires),
		Immediate:   atomic.LoadUint32(&c.immediate),
		Coalesced:   atomic.LoadUint32(&c.coalesced),
		CutoffSkips: atomic.LoadUint32(&c.cutoffSkips),
		Spurious:    atomic.LoadUint32(&c.spurious),
		WriteErrors: atomic.LoadUint32(&c.writeErrors),
	}
}
