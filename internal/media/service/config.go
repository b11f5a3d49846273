package service

import "time"

// Config holds configuration for the hype detector.
type Config struct {
	// Window is the number of observed prices compared endpoint to endpoint.
	Window int
	// Threshold is the fractional rise across the window that ignites hype.
	Threshold float64
	// Duration is the number of cycles hype stays active after the last trigger.
	Duration int
	// Interval is the time between detector cycles.
	Interval time.Duration
	// TapeSize is the capacity of the headline ring buffer.
	TapeSize int
	// EventBuffer is the size of the internal headline channel.
	EventBuffer int
	// ExternalEventBuffer is the size of the external events channel.
	ExternalEventBuffer int
	// DropExternalEvents determines whether external event channel drops on overflow.
	DropExternalEvents bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Window:              30,
		Threshold:           0.05,
		Duration:            150,
		Interval:            2 * time.Millisecond,
		TapeSize:            100,
		EventBuffer:         64,
		ExternalEventBuffer: 64,
		DropExternalEvents:  true,
	}
}
