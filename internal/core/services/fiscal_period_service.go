package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/google/uuid"
)

type fiscalPeriodService struct {
	BaseService
	calendar portsrepo.FiscalCalendar
}

func NewFiscalPeriodService(calendar portsrepo.FiscalCalendar, options ...ServiceOption) portssvc.FiscalPeriodSvcFacade {
	return &fiscalPeriodService{BaseService: newBaseService(options...), calendar: calendar}
}

func (s *fiscalPeriodService) CreatePeriod(ctx context.Context, req dto.CreateFiscalPeriodRequest) (*domain.FiscalPeriod, error) {
	start, end := domain.DateOnly(req.StartDate), domain.DateOnly(req.EndDate)
	if end.Before(start) {
		return nil, apperrors.NewValidationError("fiscal period %s ends before it starts", req.Name)
	}
	period := domain.FiscalPeriod{
		PeriodID:  uuid.NewString(),
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Status:    domain.PeriodOpen,
	}
	if err := s.calendar.SavePeriod(ctx, period); err != nil {
		s.LogError(ctx, err, "Failed to save fiscal period", slog.String("name", req.Name))
		return nil, err
	}
	return &period, nil
}

func (s *fiscalPeriodService) ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error) {
	return s.calendar.ListPeriods(ctx)
}

func (s *fiscalPeriodService) UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus) error {
	switch status {
	case domain.PeriodOpen, domain.PeriodClosed, domain.PeriodArchived:
	default:
		return apperrors.NewValidationError("unknown fiscal period status %q", status)
	}
	if err := s.calendar.UpdatePeriodStatus(ctx, periodID, status); err != nil {
		return err
	}
	s.LogInfo(ctx, "Fiscal period status changed", slog.String("period_id", periodID), slog.String("status", string(status)))
	return nil
}
