package store

import "time"

// Config holds configuration for the Store.
type Config struct {
	// IDFloor is the lowest value the allocator may have issued before the
	// store starts. The first new id is one above the larger of IDFloor and
	// the highest id found in the seed.
	// Default: 0
	IDFloor int64

	// ValidateParents rejects creates and updates whose parent key attribute
	// references a missing parent record (see Registry).
	// Default: false (references are not checked, only cascade-cleaned)
	ValidateParents bool

	// Latency simulates a remote backend. Zero values disable the delay.
	Latency Latency
}

// Latency holds the per-class delays applied before an operation runs.
type Latency struct {
	// Read applies to list, get and getMany.
	Read time.Duration

	// Write applies to create, update, delete and the bulk variants.
	Write time.Duration

	// Clone applies to variant cloning.
	Clone time.Duration
}

// DefaultConfig returns an in-process configuration with no simulated latency.
func DefaultConfig() Config {
	return Config{}
}

// SimulatedLatency returns delays resembling a slow remote backend.
func SimulatedLatency() Latency {
	return Latency{
		Read:  200 * time.Millisecond,
		Write: 400 * time.Millisecond,
		Clone: 800 * time.Millisecond,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.IDFloor < 0 {
		c.IDFloor = 0
	}
	if c.Latency.Read < 0 {
		c.Latency.Read = 0
	}
	if c.Latency.Write < 0 {
		c.Latency.Write = 0
	}
	if c.Latency.Clone < 0 {
		c.Latency.Clone = 0
	}
}
