package trace

import (
	"context"
	"errors"
	"io"

	"thyristor/protocol"
)

// Summary totals what a Monitor has seen
type Summary struct {
	Frames       int
	Events       int
	Corrupt      int
	LostFrames   int
	Discarded    int
	DecodeErrors int
}

// Monitor reads trace frames from a byte stream and hands out events
type Monitor struct {
	reader  *protocol.FrameReader
	checker *Checker

	// Follow keeps reading past io.EOF and empty reads, for serial ports
	// whose read timeout surfaces as either. Run then ends only with its
	// context.
	Follow bool

	events       int
	decodeErrors int
	seenLost     int
}

// NewMonitor creates a monitor over r
func NewMonitor(r io.Reader) *Monitor {
	return &Monitor{reader: protocol.NewFrameReader(r)}
}

// SetChecker attaches a checker that observes every event
func (m *Monitor) SetChecker(c *Checker) {
	m.checker = c
}

// Run delivers events to fn until the stream ends or ctx is done.
// The end of the stream is not an error.
func (m *Monitor) Run(ctx context.Context, fn func(Event)) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		payload, err := m.reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrNoProgress) {
				if m.Follow {
					continue
				}
				return nil
			}
			return err
		}

		if m.reader.LostFrames != m.seenLost {
			m.seenLost = m.reader.LostFrames
			if m.checker != nil {
				m.checker.Resync()
			}
		}

		records, err := protocol.DecodeTraceRecords(payload)
		if err != nil {
			// Keep the records decoded before the bad one
			m.decodeErrors++
		}

		for _, r := range records {
			ev := EventFromRecord(r)
			m.events++
			if m.checker != nil {
				m.checker.Observe(ev)
			}
			if fn != nil {
				fn(ev)
			}
		}
	}
}

// Summary returns the totals so far
func (m *Monitor) Summary() Summary {
	return Summary{
		Frames:       m.reader.Frames,
		Events:       m.events,
		Corrupt:      m.reader.Corrupt,
		LostFrames:   m.reader.LostFrames,
		Discarded:    m.reader.Discarded,
		DecodeErrors: m.decodeErrors,
	}
}
