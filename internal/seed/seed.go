package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/supplierspend/internal/clock"
	"github.com/smallbiznis/supplierspend/internal/config"
	externaldomain "github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice/failover"
	invoicedomain "github.com/smallbiznis/supplierspend/internal/invoice/domain"
	supplierdomain "github.com/smallbiznis/supplierspend/internal/supplier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	demoInternalSupplier = "Demo Internal Supplier"
	demoExternalSupplier = "Demo External Supplier"
)

// SnapshotWriter stores failover snapshots.
type SnapshotWriter interface {
	Save(ctx context.Context, supplierID snowflake.ID, snapshot externaldomain.FailoverSnapshot) error
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Snapshots SnapshotWriter
}

var Module = fx.Module("seed",
	fx.Provide(func(s *failover.Store) SnapshotWriter { return s }),
	fx.Invoke(func(p Params) {
		if !p.Config.SeedDemoData {
			return
		}
		log := p.Log.Named("seed")
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				result, err := EnsureDemoData(ctx, p.DB, p.GenID, p.Snapshots, p.Clock)
				if err != nil {
					return err
				}
				log.Info("demo data ready",
					zap.String("internal_supplier_id", result.InternalSupplierID.String()),
					zap.String("external_supplier_id", result.ExternalSupplierID.String()),
				)
				return nil
			},
		})
	}),
)

type Result struct {
	InternalSupplierID snowflake.ID
	ExternalSupplierID snowflake.ID
}

// EnsureDemoData creates one internal supplier with invoices and one external
// supplier with a fresh failover snapshot. Existing demo rows are reused.
func EnsureDemoData(ctx context.Context, conn *gorm.DB, node *snowflake.Node, snapshots SnapshotWriter, c clock.Clock) (Result, error) {
	if conn == nil {
		return Result{}, errors.New("seed database handle is required")
	}
	if node == nil {
		return Result{}, errors.New("seed id generator is required")
	}
	if c == nil {
		c = clock.New()
	}

	var result Result
	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		internal, created, err := ensureSupplierTx(ctx, tx, node, demoInternalSupplier, false, c.Now())
		if err != nil {
			return err
		}
		result.InternalSupplierID = internal.ID
		if created {
			if err := insertDemoInvoicesTx(ctx, tx, node, internal.ID, c.Now()); err != nil {
				return err
			}
		}

		external, _, err := ensureSupplierTx(ctx, tx, node, demoExternalSupplier, true, c.Now())
		if err != nil {
			return err
		}
		result.ExternalSupplierID = external.ID
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if snapshots == nil {
		return result, nil
	}
	snapshot := externaldomain.FailoverSnapshot{
		Timestamp: c.Now(),
		Invoices: []externaldomain.ExternalInvoice{
			{Year: 2023, TotalAmount: decimal.NewFromInt(5)},
			{Year: 2024, TotalAmount: decimal.NewFromInt(6)},
			{Year: 2023, TotalAmount: decimal.NewFromInt(22)},
		},
	}
	if err := snapshots.Save(ctx, result.ExternalSupplierID, snapshot); err != nil {
		return Result{}, err
	}
	return result, nil
}

func ensureSupplierTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string, external bool, now time.Time) (supplierdomain.Supplier, bool, error) {
	var existing supplierdomain.Supplier
	err := tx.WithContext(ctx).Where("name = ?", name).Take(&existing).Error
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return supplierdomain.Supplier{}, false, err
	}

	supplier := supplierdomain.Supplier{
		ID:         node.Generate(),
		Name:       name,
		IsExternal: external,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(&supplier).Error; err != nil {
		return supplierdomain.Supplier{}, false, err
	}
	return supplier, true, nil
}

func insertDemoInvoicesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, supplierID snowflake.ID, now time.Time) error {
	rows := []struct {
		date   time.Time
		amount string
	}{
		{date: time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC), amount: "10"},
		{date: time.Date(2000, 9, 1, 0, 0, 0, 0, time.UTC), amount: "20"},
		{date: time.Date(2001, 4, 1, 0, 0, 0, 0, time.UTC), amount: "30"},
	}
	invoices := make([]invoicedomain.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, invoicedomain.Invoice{
			ID:          node.Generate(),
			SupplierID:  supplierID,
			Amount:      decimal.RequireFromString(row.amount),
			InvoiceDate: datatypes.Date(row.date),
			CreatedAt:   now,
		})
	}
	return tx.WithContext(ctx).Create(&invoices).Error
}
