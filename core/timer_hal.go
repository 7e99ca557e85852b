package core

// TimerSource selects the interrupt source backing the one-shot timer
type TimerSource uint8

const (
	// TimerSourceIRQ is an ordinary maskable timer interrupt. It must not
	// preempt the zero-cross edge interrupt.
	TimerSourceIRQ TimerSource = iota

	// TimerSourceNMI is a non-maskable source, where the platform has one
	TimerSourceNMI
)

// OneShotTimer is the abstract countdown timer the firing cascade runs on.
type OneShotTimer interface {
	// Init performs one-time setup. Called once from Begin, before any Arm.
	Init(source TimerSource) error

	// Arm starts a one-shot countdown of us microseconds, relative to now.
	// Called from interrupt context.
	Arm(us uint32)

	// SetCallback installs the expiry handler. A nil callback turns any
	// expiry into a no-op; an armed countdown is not cancelled.
	// Called from interrupt context.
	SetCallback(fn func())
}
