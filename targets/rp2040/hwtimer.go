//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"runtime/interrupt"
	"thyristor/core"
)

// TinyGo's runtime sleeps on alarm 0; the dimmer owns alarm 2
const (
	alarmIndex = 2
	alarmMask  = 1 << alarmIndex

	// An alarm at or behind the counter would only fire after the 32-bit wrap
	minAlarmUS = 2
)

var errNMIUnsupported = errors.New("NMI timer source not supported on rp2040")

// RPAlarmTimer implements core.OneShotTimer on TIMER alarm 2
type RPAlarmTimer struct {
	callback    func()
	initialized bool
}

// alarmTimer is the instance serviced by the IRQ; interrupt.New needs a
// handler known at compile time
var alarmTimer *RPAlarmTimer

// NewRPAlarmTimer creates the alarm timer driver
func NewRPAlarmTimer() *RPAlarmTimer {
	return &RPAlarmTimer{}
}

// Init enables the alarm interrupt. It keeps the default priority, equal
// to the GPIO bank interrupt, so the two dimmer handlers never nest.
func (t *RPAlarmTimer) Init(source core.TimerSource) error {
	if source == core.TimerSourceNMI {
		return errNMIUnsupported
	}
	if t.initialized {
		return nil
	}

	alarmTimer = t
	timerArmed.Set(alarmMask)
	timerIntr.Set(alarmMask)
	timerInte.SetBits(alarmMask)

	intr := interrupt.New(rp.IRQ_TIMER_IRQ_2, alarmHandler)
	intr.Enable()

	t.initialized = true
	return nil
}

// Arm schedules the callback us microseconds from now
func (t *RPAlarmTimer) Arm(us uint32) {
	if us < minAlarmUS {
		us = minAlarmUS
	}
	timerAlarm2.Set(timerRAWL.Get() + us)
}

// SetCallback installs the expiry handler. nil also disarms the alarm.
func (t *RPAlarmTimer) SetCallback(fn func()) {
	t.callback = fn
	if fn == nil {
		timerArmed.Set(alarmMask)
	}
}

func alarmHandler(interrupt.Interrupt) {
	timerIntr.Set(alarmMask)
	t := alarmTimer
	if t == nil {
		return
	}
	if cb := t.callback; cb != nil {
		cb()
	}
}
