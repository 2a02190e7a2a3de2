package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/stockroomhq/stockroom-backend/internal/alerts"
	"github.com/stockroomhq/stockroom-backend/internal/stockcheck"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// criticalReader is the storage surface the hourly pass needs.
type criticalReader interface {
	FindCriticalItems(ctx context.Context) ([]models.InventoryItem, error)
}

// CriticalStockJob re-alerts on items with zero or negative available stock.
// It only runs during business hours so the alert channel stays quiet while
// nobody can act on it.
type CriticalStockJob struct {
	logg       *logger.Logger
	reader     criticalReader
	sink       alerts.Sink
	hoursStart int
	hoursEnd   int
	now        func() time.Time
}

// NewCriticalStockJob wires the hourly critical-stock pass. Business hours
// are expressed as local-time hour bounds, start inclusive, end exclusive.
func NewCriticalStockJob(logg *logger.Logger, reader criticalReader, sink alerts.Sink, hoursStart, hoursEnd int) (*CriticalStockJob, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if reader == nil {
		return nil, errors.New("inventory reader required")
	}
	if sink == nil {
		return nil, errors.New("alert sink required")
	}
	if hoursStart < 0 || hoursEnd > 24 || hoursStart >= hoursEnd {
		return nil, fmt.Errorf("invalid business hours %d..%d", hoursStart, hoursEnd)
	}
	return &CriticalStockJob{
		logg:       logg,
		reader:     reader,
		sink:       sink,
		hoursStart: hoursStart,
		hoursEnd:   hoursEnd,
		now:        time.Now,
	}, nil
}

func (j *CriticalStockJob) Name() string { return "critical_stock_check" }

func (j *CriticalStockJob) Run(ctx context.Context) error {
	if !j.withinBusinessHours(j.now()) {
		j.logg.Info(ctx, "outside business hours; skipping critical stock pass")
		return nil
	}

	items, err := j.reader.FindCriticalItems(ctx)
	if err != nil {
		return fmt.Errorf("load critical items: %w", err)
	}

	var sinkErrs error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if item.Product == nil {
			j.logg.Warn(j.logg.WithField(ctx, "inventory_item_id", item.ID.String()),
				"critical item missing product; skipping")
			continue
		}
		classification := stockcheck.Classify(item, item.Product.MinStockLevel, item.Product.MaxStockLevel)
		if err := j.sink.RecordAlert(ctx, buildAlert(item, classification)); err != nil {
			j.logg.Error(j.logg.WithField(ctx, "inventory_item_id", item.ID.String()),
				"failed to record critical stock alert", err)
			sinkErrs = multierr.Append(sinkErrs, fmt.Errorf("alert for item %s: %w", item.ID, err))
		}
	}
	return sinkErrs
}

func (j *CriticalStockJob) withinBusinessHours(at time.Time) bool {
	if at.Weekday() == time.Sunday {
		return false
	}
	hour := at.Hour()
	return hour >= j.hoursStart && hour < j.hoursEnd
}
