//go:build rp2040

package main

import (
	"machine"
	"thyristor/core"
)

var debugUART *machine.UART

// InitDebugUART initializes UART0 on GPIO0 (TX) and GPIO1 (RX) and routes
// core debug output to it. USB carries the binary trace, so text goes here.
// Baud rate: 115200
func InitDebugUART() {
	debugUART = machine.UART0

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		debugUART = nil
		return
	}

	core.SetDebugWriter(DebugPrintln)
	core.SetDebugEnabled(true)
	DebugPrintln("=== RP2040 Dimmer Debug UART ===")
}

// DebugPrintln writes a string to the debug UART with newline
func DebugPrintln(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
