package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	supplierdomain "github.com/smallbiznis/supplierspend/internal/supplier/domain"
)

// YearAmountSource yields ungrouped year amounts for a supplier from the
// source matching its kind.
type YearAmountSource interface {
	GetYearAmountsBySupplier(ctx context.Context, supplier supplierdomain.Supplier) ([]YearAmount, error)
}

type Service interface {
	GetTotalSpend(ctx context.Context, supplierID snowflake.ID) (SpendSummary, error)
}

const (
	SourceExternal = "external"
	SourceInternal = "internal"
)

func SourceOf(supplier supplierdomain.Supplier) string {
	if supplier.IsExternal {
		return SourceExternal
	}
	return SourceInternal
}
