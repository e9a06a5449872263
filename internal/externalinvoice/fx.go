package externalinvoice

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice/failover"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice/remote"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("externalinvoice.gateway",
	fx.Provide(
		failover.NewRedisClient,
		func(c *redis.Client) redis.Cmdable { return c },
		failover.NewStore,
		func(s *failover.Store) domain.FailoverProvider { return s },
		fx.Annotate(remote.New, fx.As(new(domain.RemoteClient))),
		service.New,
		func(g *service.Gateway) domain.Gateway { return g },
	),
)
