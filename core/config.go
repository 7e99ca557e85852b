package core

// MaxLoads is the fixed capacity of the load registry
const MaxLoads = 8

// Mains frequencies with built-in timing defaults
const (
	Mains50Hz = 50
	Mains60Hz = 60
)

// Default timing thresholds, in microseconds
const (
	DefaultImmediateFireUS = 30  // below this a load fires directly at the zero-cross
	DefaultCoalesceUS      = 150 // smallest gap the timer can resolve between two loads
	DefaultArmMarginUS     = 50  // no timer step is armed closer than this to the next edge
)

// Config holds the timing parameters of a dimmer
type Config struct {
	// MainsFrequency is informational once HalfCycleUS is set (Hz)
	MainsFrequency uint32

	// HalfCycleUS is the time between two zero-crossings
	HalfCycleUS uint32

	// OffDelayUS is the delay that means "never fire". Usually HalfCycleUS.
	OffDelayUS uint32

	// ImmediateFireUS: loads with a smaller delay fire inside the zero-cross handler
	ImmediateFireUS uint32

	// ArmCutoffUS: loads with a delay at or above this are not armed this half-cycle
	ArmCutoffUS uint32

	// CoalesceUS: loads closer than this to the previous one fire in the same timer step
	CoalesceUS uint32

	// SyncPin receives the zero-cross signal. NoPin until set.
	SyncPin GPIOPin

	// TimerSource is passed to OneShotTimer.Init
	TimerSource TimerSource
}

// DefaultConfig returns the timing for 50Hz mains
func DefaultConfig() Config {
	return ConfigForFrequency(Mains50Hz)
}

// ConfigForFrequency returns the timing for 50Hz or 60Hz mains.
// Any other frequency falls back to 50Hz.
func ConfigForFrequency(hz uint32) Config {
	if hz != Mains60Hz {
		hz = Mains50Hz
	}
	half := 1000000 / (2 * hz) // 10000us @50Hz, 8333us @60Hz
	return Config{
		MainsFrequency:  hz,
		HalfCycleUS:     half,
		OffDelayUS:      half,
		ImmediateFireUS: DefaultImmediateFireUS,
		ArmCutoffUS:     half - DefaultArmMarginUS,
		CoalesceUS:      DefaultCoalesceUS,
		SyncPin:         NoPin,
		TimerSource:     TimerSourceIRQ,
	}
}

// Validate checks that the thresholds are ordered sensibly
func (c Config) Validate() error {
	if c.HalfCycleUS == 0 || c.OffDelayUS == 0 {
		return ErrInvalidConfig
	}
	if c.ImmediateFireUS == 0 || c.ImmediateFireUS >= c.ArmCutoffUS {
		return ErrInvalidConfig
	}
	if c.ArmCutoffUS > c.OffDelayUS {
		return ErrInvalidConfig
	}
	if c.CoalesceUS == 0 {
		return ErrInvalidConfig
	}
	return nil
}
