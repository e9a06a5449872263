package seed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/supplierspend/internal/clock"
	externaldomain "github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	invoicedomain "github.com/smallbiznis/supplierspend/internal/invoice/domain"
	supplierdomain "github.com/smallbiznis/supplierspend/internal/supplier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingWriter struct {
	saved map[snowflake.ID]externaldomain.FailoverSnapshot
	err   error
}

func (w *recordingWriter) Save(_ context.Context, id snowflake.ID, s externaldomain.FailoverSnapshot) error {
	if w.err != nil {
		return w.err
	}
	if w.saved == nil {
		w.saved = map[snowflake.ID]externaldomain.FailoverSnapshot{}
	}
	w.saved[id] = s
	return nil
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&supplierdomain.Supplier{}, &invoicedomain.Invoice{}))
	return conn
}

func TestEnsureDemoDataIsIdempotent(t *testing.T) {
	conn := openDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	writer := &recordingWriter{}

	first, err := EnsureDemoData(context.Background(), conn, node, writer, clock.NewFakeClock(now))
	require.NoError(t, err)
	second, err := EnsureDemoData(context.Background(), conn, node, writer, clock.NewFakeClock(now))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var suppliers int64
	require.NoError(t, conn.Model(&supplierdomain.Supplier{}).Count(&suppliers).Error)
	assert.Equal(t, int64(2), suppliers)

	var invoices []invoicedomain.Invoice
	require.NoError(t, conn.Find(&invoices).Error)
	require.Len(t, invoices, 3)
	for _, inv := range invoices {
		assert.Equal(t, first.InternalSupplierID, inv.SupplierID)
	}

	snapshot, ok := writer.saved[first.ExternalSupplierID]
	require.True(t, ok)
	assert.Equal(t, now, snapshot.Timestamp)
	assert.Len(t, snapshot.Invoices, 3)
}

func TestEnsureDemoDataSnapshotFailure(t *testing.T) {
	conn := openDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	writeErr := errors.New("redis down")
	_, err = EnsureDemoData(context.Background(), conn, node, &recordingWriter{err: writeErr}, nil)
	assert.ErrorIs(t, err, writeErr)
}

func TestEnsureDemoDataRequiresDependencies(t *testing.T) {
	_, err := EnsureDemoData(context.Background(), nil, nil, nil, nil)
	assert.Error(t, err)
}
