package core

// Sweep ramps a delay from Min to Max and back over PeriodUS.
// The standalone demo drives every load with one, phase shifted.
type Sweep struct {
	PeriodUS uint32
	Min      uint32
	Max      uint32
}

// NewSweep covers the whole range of cfg, from full on to off
func NewSweep(cfg Config, periodUS uint32) Sweep {
	if periodUS < 2 {
		periodUS = 2
	}
	return Sweep{
		PeriodUS: periodUS,
		Min:      0,
		Max:      cfg.OffDelayUS,
	}
}

// DelayAt returns the delay at time now for a load shifted by phaseUS.
// The ramp jumps once when the microsecond clock wraps.
func (s Sweep) DelayAt(now, phaseUS uint32) uint32 {
	if s.PeriodUS < 2 || s.Max <= s.Min {
		return s.Min
	}
	half := uint64(s.PeriodUS / 2)
	span := uint64(s.Max - s.Min)
	p := uint64((now + phaseUS) % s.PeriodUS)
	if p < half {
		return s.Min + uint32(span*p/half)
	}
	p -= half
	if p > half {
		p = half // odd period
	}
	return s.Max - uint32(span*p/half)
}
