// Package cache provides keyed, time-tagged persistence for normalized
// datasets. Whether an entry is usable (age, containment) is the resolver's
// call; stores only report what they hold and how old it is.
package cache

import (
	"context"
	"time"
)

// Entry is a stored payload plus its age at read time.
type Entry struct {
	Payload []byte
	Age     time.Duration
}

// Store is the key-value substrate behind the source resolver. Get returns
// ok=false on a clean miss; errors are reserved for substrate failures.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
}
