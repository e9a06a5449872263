package failover

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "failover:invoices:1234", snapshotKey(snowflake.ID(1234)))
}

func TestEncodeDecodeSnapshot(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.FixedZone("WIB", 7*3600))
	raw, err := encodeSnapshot(domain.FailoverSnapshot{
		Timestamp: ts,
		Invoices: []domain.ExternalInvoice{
			{Year: 2023, TotalAmount: decimal.RequireFromString("5.10")},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"timestamp":"2024-02-02T21:05:06Z"`)

	snapshot, err := decodeSnapshot(raw)
	require.NoError(t, err)
	assert.True(t, ts.Equal(snapshot.Timestamp))
	require.Len(t, snapshot.Invoices, 1)
	assert.True(t, decimal.RequireFromString("5.1").Equal(snapshot.Invoices[0].TotalAmount))
}

func TestDecodeSnapshot_NullInvoices(t *testing.T) {
	snapshot, err := decodeSnapshot([]byte(`{"timestamp":"2024-01-01T00:00:00Z","invoices":null}`))
	require.NoError(t, err)
	assert.NotNil(t, snapshot.Invoices)
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	_, err := decodeSnapshot([]byte(`{`))
	assert.Error(t, err)
}

func TestStore_NotConfigured(t *testing.T) {
	var s *Store
	_, err := s.GetInvoices(context.Background(), snowflake.ID(1))
	assert.Error(t, err)
}

// fakeRedis keeps string values in memory and fails on demand. Methods
// the store does not use are left to the embedded nil Cmdable.
type fakeRedis struct {
	redis.Cmdable

	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	default:
		return redis.NewStatusResult("", fmt.Errorf("unexpected value type %T", value))
	}
	return redis.NewStatusResult("OK", nil)
}

func TestStore_NotFound(t *testing.T) {
	store := NewStore(newFakeRedis(), zap.NewNop())

	_, err := store.GetInvoices(context.Background(), snowflake.ID(7))
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestStore_SaveAndGet(t *testing.T) {
	client := newFakeRedis()
	store := NewStore(client, zap.NewNop())
	ctx := context.Background()
	id := snowflake.ID(42)

	want := domain.FailoverSnapshot{
		Timestamp: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		Invoices: []domain.ExternalInvoice{
			{Year: 2023, TotalAmount: decimal.RequireFromString("5.125")},
			{Year: 2024, TotalAmount: decimal.NewFromInt(6)},
		},
	}
	require.NoError(t, store.Save(ctx, id, want))
	assert.Contains(t, client.values, "failover:invoices:42")

	got, err := store.GetInvoices(ctx, id)
	require.NoError(t, err)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	require.Len(t, got.Invoices, 2)
	for i := range want.Invoices {
		assert.Equal(t, want.Invoices[i].Year, got.Invoices[i].Year)
		assert.True(t, want.Invoices[i].TotalAmount.Equal(got.Invoices[i].TotalAmount))
	}

	_, err = store.GetInvoices(ctx, snowflake.ID(43))
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "snapshots are keyed per supplier")
}

func TestStore_SaveNilInvoices(t *testing.T) {
	client := newFakeRedis()
	store := NewStore(client, zap.NewNop())

	require.NoError(t, store.Save(context.Background(), snowflake.ID(1), domain.FailoverSnapshot{Timestamp: time.Now()}))
	assert.Contains(t, client.values["failover:invoices:1"], `"invoices":[]`)
}

func TestStore_DecodeError(t *testing.T) {
	client := newFakeRedis()
	client.values["failover:invoices:9"] = "{"
	store := NewStore(client, zap.NewNop())

	_, err := store.GetInvoices(context.Background(), snowflake.ID(9))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
	assert.Contains(t, err.Error(), "decode failover snapshot")
}

func TestStore_GetError(t *testing.T) {
	connErr := errors.New("dial tcp: connection refused")
	client := newFakeRedis()
	client.getErr = connErr
	store := NewStore(client, zap.NewNop())

	_, err := store.GetInvoices(context.Background(), snowflake.ID(1))
	assert.ErrorIs(t, err, connErr)
	assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestStore_SetError(t *testing.T) {
	setErr := errors.New("READONLY You can't write against a read only replica")
	client := newFakeRedis()
	client.setErr = setErr
	store := NewStore(client, zap.NewNop())

	err := store.Save(context.Background(), snowflake.ID(1), domain.FailoverSnapshot{Timestamp: time.Now()})
	assert.ErrorIs(t, err, setErr)
	assert.Empty(t, client.values)
}

func TestStore_SaveNotConfigured(t *testing.T) {
	var s *Store
	assert.Error(t, s.Save(context.Background(), snowflake.ID(1), domain.FailoverSnapshot{}))
}
