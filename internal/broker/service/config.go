package service

// Config holds configuration for the broker service.
type Config struct {
	// ActivityCapacity is the maximum number of recent activities to keep.
	ActivityCapacity int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		ActivityCapacity: 100,
	}
}
