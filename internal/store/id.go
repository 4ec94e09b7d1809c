package store

import "github.com/oklog/ulid/v2"

// NewID returns a lexically sortable id. ulid.Make draws from a process-wide
// monotonic source that is safe for concurrent use.
func NewID() string {
	return ulid.Make().String()
}
