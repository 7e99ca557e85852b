// Package trace decodes and checks the scheduler trace a dimmer streams
// over its serial port.
package trace

import (
	"fmt"

	"thyristor/core"
	"thyristor/protocol"
)

// Event is one decoded scheduler event
type Event struct {
	Kind   core.TraceKind
	Pin    core.GPIOPin
	Cursor int
	Clock  uint32 // MCU microseconds, wraps every ~71 minutes
	Value  uint32
}

// EventFromRecord converts a wire record
func EventFromRecord(r protocol.TraceRecord) Event {
	return Event{
		Kind:   core.TraceKind(r.Kind),
		Pin:    core.GPIOPin(r.Pin),
		Cursor: int(r.Cursor),
		Clock:  r.Clock,
		Value:  r.Value,
	}
}

// String formats the event the way the firmware's DumpTrace does
func (e Event) String() string {
	return fmt.Sprintf("%s pin=%d cursor=%d clock=%d value=%d",
		e.Kind, uint32(e.Pin), e.Cursor, e.Clock, e.Value)
}
