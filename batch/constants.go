package batch

// Default values used when Options leaves a field unset.
const (
	// DefaultMaxConcurrency is the number of actions allowed in flight at
	// once when Options.MaxConcurrency is zero.
	DefaultMaxConcurrency = 4
)
