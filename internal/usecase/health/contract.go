package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CheckFunc checks one optional component (embedding providers, cache, configuration).
type CheckFunc func(ctx context.Context) error
