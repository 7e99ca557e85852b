package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"thyristor/host/serial"
	"thyristor/host/trace"
	"thyristor/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Print every event, not only violations")
	check   = flag.Bool("check", true, "Check firing order per half-cycle")
)

func main() {
	flag.Parse()

	fmt.Printf("Thyristor Trace Monitor (trace format %s)\n", protocol.Version)
	fmt.Println("==============================================")

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Opening %s...\n", *device)
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	if err := port.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: flush failed: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor := trace.NewMonitor(port)
	monitor.Follow = true

	var checker *trace.Checker
	reported := 0
	if *check {
		checker = trace.NewChecker()
		monitor.SetChecker(checker)
	}

	fmt.Println("Capturing, press Ctrl-C to stop")
	err = monitor.Run(ctx, func(ev trace.Event) {
		if *verbose {
			fmt.Println(ev)
		}
		if checker == nil {
			return
		}
		for _, v := range checker.Violations()[reported:] {
			fmt.Printf("VIOLATION %s\n", v)
		}
		reported = len(checker.Violations())
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	printSummary(monitor.Summary(), checker)

	if err != nil || (checker != nil && len(checker.Violations()) > 0) {
		os.Exit(1)
	}
}

func printSummary(s trace.Summary, checker *trace.Checker) {
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  frames:        %d\n", s.Frames)
	fmt.Printf("  events:        %d\n", s.Events)
	fmt.Printf("  corrupt:       %d\n", s.Corrupt)
	fmt.Printf("  lost frames:   %d\n", s.LostFrames)
	fmt.Printf("  discarded:     %d bytes\n", s.Discarded)
	fmt.Printf("  decode errors: %d\n", s.DecodeErrors)
	if checker != nil {
		fmt.Printf("  half-cycles:   %d\n", checker.HalfCycles())
		fmt.Printf("  fires:         %d\n", checker.Fires())
		fmt.Printf("  violations:    %d\n", len(checker.Violations()))
	}
}
