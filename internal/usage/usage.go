// Package usage records per-user token consumption and serves cumulative
// snapshots for the usage endpoints. In direct mode a local store (memory or
// postgres) is both the recorder and the fetcher; in gateway mode the gateway
// keeps the ledger and a fetcher proxies it.
package usage

import (
	"context"

	"anychat-backend/internal/models"
)

// Fetcher produces the cumulative usage snapshot for a user. A failed fetch
// must surface as an error so callers can drop any previously displayed
// snapshot instead of showing stale numbers.
type Fetcher interface {
	Fetch(ctx context.Context, userID string) (*models.UsageSnapshot, error)
}

// Recorder persists the usage of one completed chat turn.
type Recorder interface {
	Record(ctx context.Context, row *models.UsageRow) error
}

// Store is a local usage backend serving recording, per-user snapshots and
// the operator views.
type Store interface {
	Recorder
	Fetcher
	Global(ctx context.Context) (*models.UsageSnapshot, error)
	PerUser(ctx context.Context) ([]models.UserUsage, error)
}
