package domain

import (
	"context"
)

// Repository is the local invoice store.
type Repository interface {
	// Get returns every stored invoice, unfiltered.
	Get(ctx context.Context) ([]Invoice, error)
	Insert(ctx context.Context, invoice *Invoice) error
}
