package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/core/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFiscalPeriodService(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatePeriod", func(t *testing.T) {
		calendar := new(MockFiscalCalendar)
		svc := services.NewFiscalPeriodService(calendar)
		calendar.On("SavePeriod", ctx, mock.MatchedBy(func(p domain.FiscalPeriod) bool {
			return p.Status == domain.PeriodOpen && p.PeriodID != ""
		})).Return(nil).Once()

		period, err := svc.CreatePeriod(ctx, dto.CreateFiscalPeriodRequest{
			Name:      "Jun 2024",
			StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.True(t, period.IsOpen())
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		svc := services.NewFiscalPeriodService(new(MockFiscalCalendar))

		_, err := svc.CreatePeriod(ctx, dto.CreateFiscalPeriodRequest{
			Name:      "Backwards",
			StartDate: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		})

		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("UpdatePeriodStatus", func(t *testing.T) {
		calendar := new(MockFiscalCalendar)
		svc := services.NewFiscalPeriodService(calendar)
		calendar.On("UpdatePeriodStatus", ctx, "fp-1", domain.PeriodClosed).Return(nil).Once()

		require.NoError(t, svc.UpdatePeriodStatus(ctx, "fp-1", domain.PeriodClosed))
		assert.True(t, errors.Is(svc.UpdatePeriodStatus(ctx, "fp-1", "FROZEN"), apperrors.ErrValidation))
		calendar.AssertExpectations(t)
	})
}
