package core

// Load is one phase-cut output and the delay it fires at
type Load struct {
	pin      GPIOPin
	delay    uint32 // microseconds after the zero-cross
	position int    // index into registry.order, -1 when free
	gen      uint16 // bumped every time the slot is reused
	inUse    bool
}

// LoadHandle identifies a load for its whole lifetime.
// The zero value is never a valid handle.
type LoadHandle struct {
	slot uint8
	gen  uint16
}

// Valid reports whether h was ever returned by Create
func (h LoadHandle) Valid() bool {
	return h.gen != 0
}

// registry is the fixed-capacity ordered set of loads.
// Loads live in a static arena; order holds arena slots sorted by delay.
// Only the mutator domain touches it.
type registry struct {
	arena    [MaxLoads]Load
	order    [MaxLoads]uint8
	count    int
	offDelay uint32
}

func (r *registry) init(offDelay uint32) {
	r.offDelay = offDelay
	for i := range r.arena {
		r.arena[i].position = -1
	}
}

// create appends a new off load and reorders the whole set
func (r *registry) create(pin GPIOPin) (LoadHandle, error) {
	if r.count >= MaxLoads {
		return LoadHandle{}, ErrCapacityExceeded
	}
	for i := 0; i < r.count; i++ {
		if r.arena[r.order[i]].pin == pin {
			return LoadHandle{}, ErrPinInUse
		}
	}

	slot := 0
	for slot < MaxLoads && r.arena[slot].inUse {
		slot++
	}
	if slot == MaxLoads {
		// count and arena disagree
		return LoadHandle{}, ErrRegistryInconsistent
	}

	l := &r.arena[slot]
	l.gen++
	if l.gen == 0 {
		l.gen = 1
	}
	l.pin = pin
	l.delay = r.offDelay
	l.inUse = true

	r.order[r.count] = uint8(slot)
	r.count++
	r.reorder()

	return LoadHandle{slot: uint8(slot), gen: l.gen}, nil
}

// reorder is a stable insertion sort over the whole set. Creation is rare
// and the set is small, so a full pass is fine.
func (r *registry) reorder() {
	for i := 1; i < r.count; i++ {
		slot := r.order[i]
		d := r.arena[slot].delay
		j := i - 1
		for j >= 0 && r.arena[r.order[j]].delay > d {
			r.order[j+1] = r.order[j]
			j--
		}
		r.order[j+1] = slot
	}
	for i := 0; i < r.count; i++ {
		r.arena[r.order[i]].position = i
	}
}

// remove drops a load and compacts everything after it
func (r *registry) remove(h LoadHandle) error {
	l, err := r.lookup(h)
	if err != nil {
		return err
	}

	for i := l.position; i < r.count-1; i++ {
		r.order[i] = r.order[i+1]
		r.arena[r.order[i]].position = i
	}
	r.count--
	r.order[r.count] = 0

	l.inUse = false
	l.position = -1
	l.delay = r.offDelay
	return nil
}

// setDelay moves a load to its new place in the ordered set.
// A moved load always lands after every other load with the same delay,
// in both directions. Reports whether anything changed.
func (r *registry) setDelay(h LoadHandle, delay uint32) (bool, error) {
	l, err := r.lookup(h)
	if err != nil {
		return false, err
	}
	if delay > r.offDelay {
		return false, ErrDelayOutOfRange
	}
	if delay == l.delay {
		return false, nil
	}

	pos := l.position
	slot := r.order[pos]
	var target int

	if delay > l.delay {
		// Later: shift the entries we overtake one slot back
		i := pos + 1
		for i < r.count && r.arena[r.order[i]].delay <= delay {
			r.order[i-1] = r.order[i]
			r.arena[r.order[i-1]].position = i - 1
			i++
		}
		target = i - 1
	} else {
		// Earlier: shift the entries we overtake one slot forward
		i := pos - 1
		for i >= 0 && r.arena[r.order[i]].delay > delay {
			r.order[i+1] = r.order[i]
			r.arena[r.order[i+1]].position = i + 1
			i--
		}
		target = i + 1
	}

	r.order[target] = slot
	l.position = target
	l.delay = delay
	return true, nil
}

func (r *registry) lookup(h LoadHandle) (*Load, error) {
	if !h.Valid() || int(h.slot) >= MaxLoads {
		return nil, ErrInvalidHandle
	}
	l := &r.arena[h.slot]
	if !l.inUse || l.gen != h.gen {
		return nil, ErrInvalidHandle
	}
	return l, nil
}

// at returns the load at position i of the ordered set
func (r *registry) at(i int) *Load {
	return &r.arena[r.order[i]]
}

// validate checks ordering, positions and arena bookkeeping
func (r *registry) validate() error {
	if r.count < 0 || r.count > MaxLoads {
		return ErrRegistryInconsistent
	}
	var seen [MaxLoads]bool
	for i := 0; i < r.count; i++ {
		slot := r.order[i]
		if int(slot) >= MaxLoads || seen[slot] {
			return ErrRegistryInconsistent
		}
		seen[slot] = true
		l := &r.arena[slot]
		if !l.inUse || l.position != i {
			return ErrRegistryInconsistent
		}
		if i > 0 && r.at(i-1).delay > l.delay {
			return ErrRegistryInconsistent
		}
	}
	for i := range r.arena {
		if r.arena[i].inUse != seen[i] {
			return ErrRegistryInconsistent
		}
	}
	return nil
}
