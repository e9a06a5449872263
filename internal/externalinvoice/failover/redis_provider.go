package failover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/supplierspend/internal/config"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyFailoverInvoices = "failover:invoices:%s"

// Store keeps one failover snapshot per supplier in redis as JSON.
type Store struct {
	client redis.Cmdable
	log    *zap.Logger
}

func NewStore(client redis.Cmdable, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{client: client, log: log.Named("externalinvoice.failover")}
}

func (s *Store) GetInvoices(ctx context.Context, supplierID snowflake.ID) (domain.FailoverSnapshot, error) {
	if s == nil || s.client == nil {
		return domain.FailoverSnapshot{}, errors.New("failover store not configured")
	}

	raw, err := s.client.Get(ctx, snapshotKey(supplierID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.FailoverSnapshot{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.FailoverSnapshot{}, err
	}
	return decodeSnapshot(raw)
}

// Save replaces the supplier's snapshot.
func (s *Store) Save(ctx context.Context, supplierID snowflake.ID, snapshot domain.FailoverSnapshot) error {
	if s == nil || s.client == nil {
		return errors.New("failover store not configured")
	}

	raw, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, snapshotKey(supplierID), raw, 0).Err(); err != nil {
		return err
	}
	s.log.Debug("failover snapshot saved",
		zap.String("supplier_id", supplierID.String()),
		zap.Int("invoices", len(snapshot.Invoices)),
	)
	return nil
}

func snapshotKey(supplierID snowflake.ID) string {
	return fmt.Sprintf(keyFailoverInvoices, supplierID.String())
}

func encodeSnapshot(snapshot domain.FailoverSnapshot) ([]byte, error) {
	if snapshot.Invoices == nil {
		snapshot.Invoices = []domain.ExternalInvoice{}
	}
	snapshot.Timestamp = snapshot.Timestamp.UTC()
	return json.Marshal(snapshot)
}

func decodeSnapshot(raw []byte) (domain.FailoverSnapshot, error) {
	var snapshot domain.FailoverSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return domain.FailoverSnapshot{}, fmt.Errorf("decode failover snapshot: %w", err)
	}
	if snapshot.Invoices == nil {
		snapshot.Invoices = []domain.ExternalInvoice{}
	}
	return snapshot, nil
}

// NewRedisClient builds the client backing the failover store and closes it on stop.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Redis.Addr),
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}
	return client
}
