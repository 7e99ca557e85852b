package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract digital I/O interface used by the dimmer.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInput configures a pin as a digital input (zero-cross line)
	ConfigureInput(pin GPIOPin) error

	// SetPin drives the pin high (true) or low (false).
	// Called from interrupt context, so implementations must not block or allocate.
	SetPin(pin GPIOPin, value bool) error

	// AttachRisingEdge installs handler to run in interrupt context on every
	// rising edge of pin. Called once, from Begin.
	AttachRisingEdge(pin GPIOPin, handler func()) error
}
