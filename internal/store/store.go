// Package store records scrape run history.
package store

import (
	"context"
	"time"

	"github.com/thriftngo/storefront-cli/internal/model"
)

// Run is one recorded invocation of a pipeline command.
type Run struct {
	ID           string          `json:"id"`
	Command      string          `json:"command"`
	Status       model.RunStatus `json:"status"`
	ListingCount int             `json:"listing_count"`
	Error        string          `json:"error,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus
	Limit  int
}

// Store defines the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context, command string) (*Run, error)
	CompleteRun(ctx context.Context, runID string, listingCount int) error
	FailRun(ctx context.Context, runID string, cause string) error
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
