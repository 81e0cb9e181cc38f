package statecache

import "context"

// Cache is the key-value existence-tracking capability.
type Cache interface {
	// Get returns the stored value and whether the key is present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores or replaces the value for a key.
	Set(ctx context.Context, key, value string) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Count returns the number of tracked keys.
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Key derives the state-cache key for a variant file name. The mapping
// must stay a pure function of the file name so the garbage collector can
// recompute it during a sweep.
func Key(fileName string) string {
	return "srcset:state:" + fileName
}
