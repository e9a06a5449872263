package service

import (
	"context"

	externaldomain "github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	invoicedomain "github.com/smallbiznis/supplierspend/internal/invoice/domain"
	"github.com/smallbiznis/supplierspend/internal/spend/domain"
	supplierdomain "github.com/smallbiznis/supplierspend/internal/supplier/domain"
	"go.uber.org/fx"
)

type YearAmountsParams struct {
	fx.In

	Gateway  externaldomain.Gateway
	Invoices invoicedomain.Repository
}

type YearAmounts struct {
	gateway  externaldomain.Gateway
	invoices invoicedomain.Repository
}

func NewYearAmounts(p YearAmountsParams) *YearAmounts {
	return &YearAmounts{gateway: p.Gateway, invoices: p.Invoices}
}

func (y *YearAmounts) GetYearAmountsBySupplier(ctx context.Context, supplier supplierdomain.Supplier) ([]domain.YearAmount, error) {
	if supplier.IsExternal {
		return y.external(ctx, supplier)
	}
	return y.internal(ctx, supplier)
}

func (y *YearAmounts) external(ctx context.Context, supplier supplierdomain.Supplier) ([]domain.YearAmount, error) {
	invoices, err := y.gateway.GetInvoices(ctx, supplier.ID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.YearAmount, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, domain.YearAmount{Year: inv.Year, Amount: inv.TotalAmount})
	}
	return out, nil
}

func (y *YearAmounts) internal(ctx context.Context, supplier supplierdomain.Supplier) ([]domain.YearAmount, error) {
	invoices, err := y.invoices.Get(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.YearAmount, 0)
	for _, inv := range invoices {
		if inv.SupplierID != supplier.ID {
			continue
		}
		out = append(out, domain.YearAmount{Year: inv.Year(), Amount: inv.Amount})
	}
	return out, nil
}
