package spend

import (
	"github.com/smallbiznis/supplierspend/internal/spend/domain"
	"github.com/smallbiznis/supplierspend/internal/spend/service"
	"go.uber.org/fx"
)

var Module = fx.Module("spend.service",
	fx.Provide(
		fx.Annotate(service.NewYearAmounts, fx.As(new(domain.YearAmountSource))),
		service.New,
	),
)
