//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"
	"thyristor/core"
)

// RP2040 exposes GPIO0-GPIO29
const numGPIO = 30

var (
	errPinRange     = errors.New("gpio out of range")
	errPinNotOutput = errors.New("gpio not configured as output")
)

// RPGPIODriver implements core.GPIODriver for RP2040.
// Gate writes go straight to the SIO set/clear registers so they are safe
// and fast from interrupt context.
type RPGPIODriver struct {
	outputMask uint32
	inputMask  uint32
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{}
}

// ConfigureOutput configures a pin as a digital output, driven low
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin >= numGPIO {
		return errPinRange
	}
	mask := uint32(1) << pin
	if d.outputMask&mask != 0 {
		// Already configured, this is OK
		return nil
	}

	rp.SIO.GPIO_OUT_CLR.Set(mask)
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.outputMask |= mask
	d.inputMask &^= mask
	return nil
}

// ConfigureInput configures the zero-cross input. Detector modules drive
// the line, the pull-down only holds it while the module is unplugged.
func (d *RPGPIODriver) ConfigureInput(pin core.GPIOPin) error {
	if pin >= numGPIO {
		return errPinRange
	}
	mask := uint32(1) << pin
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	d.inputMask |= mask
	d.outputMask &^= mask
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= numGPIO {
		return errPinRange
	}
	mask := uint32(1) << pin
	if d.outputMask&mask == 0 {
		return errPinNotOutput
	}
	if value {
		rp.SIO.GPIO_OUT_SET.Set(mask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(mask)
	}
	return nil
}

// AttachRisingEdge runs handler on every rising edge of pin, in the GPIO
// bank interrupt
func (d *RPGPIODriver) AttachRisingEdge(pin core.GPIOPin, handler func()) error {
	if pin >= numGPIO {
		return errPinRange
	}
	if handler == nil {
		return machine.Pin(pin).SetInterrupt(0, nil)
	}
	return machine.Pin(pin).SetInterrupt(machine.PinRising, func(machine.Pin) {
		handler()
	})
}
