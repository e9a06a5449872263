package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	externaldomain "github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	"github.com/smallbiznis/supplierspend/internal/observability/logger"
	"github.com/smallbiznis/supplierspend/internal/observability/metrics"
	"github.com/smallbiznis/supplierspend/internal/spend/domain"
	supplierdomain "github.com/smallbiznis/supplierspend/internal/supplier/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Suppliers supplierdomain.Service
	Source    domain.YearAmountSource
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	suppliers supplierdomain.Service
	source    domain.YearAmountSource
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("spend.service"),
		suppliers: p.Suppliers,
		source:    p.Source,
		metrics:   p.Metrics,
		tracer:    otel.Tracer("supplierspend/spend"),
	}
}

func (s *Service) GetTotalSpend(ctx context.Context, supplierID snowflake.ID) (domain.SpendSummary, error) {
	ctx, span := s.tracer.Start(ctx, "spend.GetTotalSpend",
		trace.WithAttributes(attribute.String("supplier_id", supplierID.String())),
	)
	defer span.End()

	supplier, err := s.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		span.RecordError(err)
		return domain.SpendSummary{}, err
	}

	source := domain.SourceOf(supplier)
	span.SetAttributes(attribute.String("spend.source", source))

	amounts, err := s.source.GetYearAmountsBySupplier(ctx, supplier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordSpendSummary(ctx, source, outcomeOf(err))
		logger.WithContext(ctx, s.log).Error("year amounts unavailable",
			zap.String("supplier_id", supplierID.String()),
			zap.String("source", source),
			zap.Error(err),
		)
		return domain.SpendSummary{}, err
	}
	s.metrics.RecordYearAmounts(ctx, source, len(amounts))
	s.metrics.RecordSpendSummary(ctx, source, "success")

	return domain.SpendSummary{
		Name:  supplier.Name,
		Years: GroupByYear(amounts),
	}, nil
}

// GroupByYear sums amounts per year, keeping years in first-occurrence order.
func GroupByYear(amounts []domain.YearAmount) []domain.SpendDetail {
	details := make([]domain.SpendDetail, 0)
	index := make(map[int]int, len(amounts))
	for _, a := range amounts {
		i, ok := index[a.Year]
		if !ok {
			index[a.Year] = len(details)
			details = append(details, domain.SpendDetail{Year: a.Year, TotalSpend: a.Amount})
			continue
		}
		details[i].TotalSpend = details[i].TotalSpend.Add(a.Amount)
	}
	return details
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, externaldomain.ErrFailoverOutOfDate):
		return "failover_out_of_date"
	case errors.Is(err, externaldomain.ErrFailoverUnavailable):
		return "failover_unavailable"
	default:
		return "error"
	}
}
