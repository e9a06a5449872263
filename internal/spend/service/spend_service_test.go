package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/supplierspend/internal/clock"
	"github.com/smallbiznis/supplierspend/internal/config"
	externaldomain "github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	externalservice "github.com/smallbiznis/supplierspend/internal/externalinvoice/service"
	invoicedomain "github.com/smallbiznis/supplierspend/internal/invoice/domain"
	"github.com/smallbiznis/supplierspend/internal/spend/domain"
	"github.com/smallbiznis/supplierspend/internal/spend/service"
	supplierdomain "github.com/smallbiznis/supplierspend/internal/supplier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type fakeSuppliers map[snowflake.ID]supplierdomain.Supplier

func (f fakeSuppliers) Create(context.Context, supplierdomain.CreateSupplierRequest) (supplierdomain.Supplier, error) {
	return supplierdomain.Supplier{}, errors.New("not implemented")
}

func (f fakeSuppliers) GetByID(_ context.Context, id snowflake.ID) (supplierdomain.Supplier, error) {
	s, ok := f[id]
	if !ok {
		return supplierdomain.Supplier{}, supplierdomain.ErrNotFound
	}
	return s, nil
}

type fakeInvoices struct {
	invoices []invoicedomain.Invoice
	err      error
}

func (f *fakeInvoices) Get(context.Context) ([]invoicedomain.Invoice, error) {
	return f.invoices, f.err
}

func (f *fakeInvoices) Insert(_ context.Context, inv *invoicedomain.Invoice) error {
	f.invoices = append(f.invoices, *inv)
	return nil
}

type fakeGateway struct {
	invoices []externaldomain.ExternalInvoice
	err      error
	calls    int
}

func (f *fakeGateway) GetInvoices(context.Context, snowflake.ID) ([]externaldomain.ExternalInvoice, error) {
	f.calls++
	return f.invoices, f.err
}

type alwaysFailingRemote struct{ calls int }

func (r *alwaysFailingRemote) GetInvoices(context.Context, string) ([]externaldomain.ExternalInvoice, error) {
	r.calls++
	return nil, errors.New("connection refused")
}

type staticFailover struct{ snapshot externaldomain.FailoverSnapshot }

func (f staticFailover) GetInvoices(context.Context, snowflake.ID) (externaldomain.FailoverSnapshot, error) {
	return f.snapshot, nil
}

func invoiceOn(supplierID snowflake.ID, year int, amount string) invoicedomain.Invoice {
	return invoicedomain.Invoice{
		SupplierID:  supplierID,
		Amount:      decimal.RequireFromString(amount),
		InvoiceDate: datatypes.Date(time.Date(year, 3, 15, 0, 0, 0, 0, time.UTC)),
	}
}

func newSpendService(suppliers fakeSuppliers, gateway externaldomain.Gateway, invoices invoicedomain.Repository) domain.Service {
	source := service.NewYearAmounts(service.YearAmountsParams{Gateway: gateway, Invoices: invoices})
	return service.New(service.Params{
		Log:       zap.NewNop(),
		Suppliers: suppliers,
		Source:    source,
	})
}

func TestGetTotalSpend_InternalSupplier(t *testing.T) {
	suppliers := fakeSuppliers{1: {ID: 1, Name: "Supplier 1", IsExternal: false}}
	invoices := &fakeInvoices{invoices: []invoicedomain.Invoice{
		invoiceOn(1, 2000, "10"),
		invoiceOn(2, 2000, "999"),
		invoiceOn(1, 2000, "20"),
		invoiceOn(1, 2001, "30"),
	}}
	gateway := &fakeGateway{}

	summary, err := newSpendService(suppliers, gateway, invoices).GetTotalSpend(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Supplier 1", summary.Name)
	require.Len(t, summary.Years, 2)
	assert.Equal(t, 2000, summary.Years[0].Year)
	assert.True(t, decimal.NewFromInt(30).Equal(summary.Years[0].TotalSpend))
	assert.Equal(t, 2001, summary.Years[1].Year)
	assert.True(t, decimal.NewFromInt(30).Equal(summary.Years[1].TotalSpend))
	assert.Zero(t, gateway.calls, "internal suppliers never reach the gateway")
}

func TestGetTotalSpend_ExternalSupplierServedFromFailover(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	remote := &alwaysFailingRemote{}
	gateway := externalservice.New(externalservice.Params{
		Log:    zap.NewNop(),
		Clock:  clock.NewFakeClock(now),
		Remote: remote,
		Failover: staticFailover{snapshot: externaldomain.FailoverSnapshot{
			Timestamp: now.AddDate(0, 0, -3),
			Invoices: []externaldomain.ExternalInvoice{
				{Year: 2023, TotalAmount: decimal.NewFromInt(5)},
				{Year: 2024, TotalAmount: decimal.NewFromInt(6)},
				{Year: 2023, TotalAmount: decimal.NewFromInt(22)},
			},
		}},
		Config: config.NewStaticGatewayConfigHolder(config.DefaultGatewayConfig()),
	})
	suppliers := fakeSuppliers{7: {ID: 7, Name: "Remote Supplier", IsExternal: true}}

	summary, err := newSpendService(suppliers, gateway, &fakeInvoices{}).GetTotalSpend(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Remote Supplier", summary.Name)
	require.Len(t, summary.Years, 2)
	assert.Equal(t, 2023, summary.Years[0].Year)
	assert.True(t, decimal.NewFromInt(27).Equal(summary.Years[0].TotalSpend))
	assert.Equal(t, 2024, summary.Years[1].Year)
	assert.True(t, decimal.NewFromInt(6).Equal(summary.Years[1].TotalSpend))
	assert.Equal(t, 4, remote.calls)
}

func TestGetTotalSpend_NoInvoices(t *testing.T) {
	suppliers := fakeSuppliers{1: {ID: 1, Name: "Quiet"}}

	summary, err := newSpendService(suppliers, &fakeGateway{}, &fakeInvoices{}).GetTotalSpend(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, summary.Years)
	assert.Empty(t, summary.Years)
}

func TestGetTotalSpend_PropagatesSupplierError(t *testing.T) {
	_, err := newSpendService(fakeSuppliers{}, &fakeGateway{}, &fakeInvoices{}).GetTotalSpend(context.Background(), 42)
	assert.ErrorIs(t, err, supplierdomain.ErrNotFound)
}

func TestGetTotalSpend_PropagatesGatewayError(t *testing.T) {
	suppliers := fakeSuppliers{1: {ID: 1, Name: "Remote", IsExternal: true}}
	stale := &externaldomain.FailoverOutOfDateError{Timestamp: time.Now(), Cause: errors.New("down")}

	_, err := newSpendService(suppliers, &fakeGateway{err: stale}, &fakeInvoices{}).GetTotalSpend(context.Background(), 1)
	assert.ErrorIs(t, err, externaldomain.ErrFailoverOutOfDate)
}

func TestGetTotalSpend_PropagatesStoreError(t *testing.T) {
	suppliers := fakeSuppliers{1: {ID: 1, Name: "Local"}}
	storeErr := errors.New("db closed")

	_, err := newSpendService(suppliers, &fakeGateway{}, &fakeInvoices{err: storeErr}).GetTotalSpend(context.Background(), 1)
	assert.ErrorIs(t, err, storeErr)
}

func TestGroupByYear(t *testing.T) {
	t.Run("first occurrence order", func(t *testing.T) {
		details := service.GroupByYear([]domain.YearAmount{
			{Year: 2024, Amount: decimal.NewFromInt(1)},
			{Year: 2001, Amount: decimal.NewFromInt(2)},
			{Year: 2024, Amount: decimal.NewFromInt(3)},
			{Year: 1999, Amount: decimal.NewFromInt(4)},
		})
		years := make([]int, 0, len(details))
		for _, d := range details {
			years = append(years, d.Year)
		}
		assert.Equal(t, []int{2024, 2001, 1999}, years)
		assert.True(t, decimal.NewFromInt(4).Equal(details[0].TotalSpend))
	})

	t.Run("decimal exact", func(t *testing.T) {
		amounts := make([]domain.YearAmount, 0, 10)
		for i := 0; i < 10; i++ {
			amounts = append(amounts, domain.YearAmount{Year: 2020, Amount: decimal.RequireFromString("0.1")})
		}
		details := service.GroupByYear(amounts)
		require.Len(t, details, 1)
		assert.Equal(t, "1", details[0].TotalSpend.String())
	})

	t.Run("empty", func(t *testing.T) {
		details := service.GroupByYear(nil)
		assert.NotNil(t, details)
		assert.Empty(t, details)
	})
}
