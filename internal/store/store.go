// Package store persists estimates and the rate catalog. Estimates are saved
// as whole JSON documents: the tree is small, always loaded and recomputed as
// a unit, and a document column keeps the schema stable while the tree model
// evolves.
package store

import (
	"context"
	"time"

	"github.com/sells-group/estimate-cli/internal/catalog"
	"github.com/sells-group/estimate-cli/internal/model"
)

// EstimateSummary is the list-view projection of a stored estimate.
type EstimateSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Parts      int       `json:"parts"`
	GrandTotal float64   `json:"grand_total"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListFilter specifies criteria for listing estimates.
type ListFilter struct {
	Name   string `json:"name,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for estimates and the catalog.
type Store interface {
	// Estimates
	SaveEstimate(ctx context.Context, tree *model.EstimateTree) (string, error)
	UpdateEstimate(ctx context.Context, id string, tree *model.EstimateTree) error
	GetEstimate(ctx context.Context, id string) (*model.EstimateTree, error)
	ListEstimates(ctx context.Context, filter ListFilter) ([]EstimateSummary, error)
	DeleteEstimate(ctx context.Context, id string) error

	// Catalog
	SaveCatalog(ctx context.Context, items []catalog.Item) error
	LoadCatalog(ctx context.Context) ([]catalog.Item, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
