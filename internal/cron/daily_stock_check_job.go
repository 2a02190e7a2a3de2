package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/stockroomhq/stockroom-backend/internal/alerts"
	"github.com/stockroomhq/stockroom-backend/internal/stockcheck"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// monitoredReader is the storage surface the daily pass needs.
type monitoredReader interface {
	FindMonitoredItems(ctx context.Context) ([]models.InventoryItem, error)
	StampLastStockCheck(ctx context.Context, itemIDs []uuid.UUID, checkedAt time.Time) error
}

// DailyStockCheckJob walks every monitored item once, classifies it, emits an
// alert per unhealthy item and one summary for the whole pass.
type DailyStockCheckJob struct {
	logg   *logger.Logger
	reader monitoredReader
	sink   alerts.Sink
	now    func() time.Time
}

// NewDailyStockCheckJob wires the daily full-scan pass.
func NewDailyStockCheckJob(logg *logger.Logger, reader monitoredReader, sink alerts.Sink) (*DailyStockCheckJob, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if reader == nil {
		return nil, errors.New("inventory reader required")
	}
	if sink == nil {
		return nil, errors.New("alert sink required")
	}
	return &DailyStockCheckJob{
		logg:   logg,
		reader: reader,
		sink:   sink,
		now:    time.Now,
	}, nil
}

func (j *DailyStockCheckJob) Name() string { return "daily_stock_check" }

func (j *DailyStockCheckJob) Run(ctx context.Context) error {
	items, err := j.reader.FindMonitoredItems(ctx)
	if err != nil {
		return fmt.Errorf("load monitored items: %w", err)
	}

	summary := alerts.ScanSummary{
		TotalMonitored: len(items),
		TotalValue:     decimal.Zero,
	}
	checked := make([]uuid.UUID, 0, len(items))
	var sinkErrs error

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if item.Product == nil {
			j.logg.Warn(j.logg.WithField(ctx, "inventory_item_id", item.ID.String()),
				"monitored item missing product; skipping")
			continue
		}
		checked = append(checked, item.ID)

		if available := item.AvailableQuantity(); available > 0 && item.Product.CostPrice != nil {
			value := item.Product.CostPrice.Mul(decimal.NewFromInt(int64(available)))
			summary.TotalValue = summary.TotalValue.Add(value)
		}

		classification := stockcheck.Classify(item, item.Product.MinStockLevel, item.Product.MaxStockLevel)
		switch classification.Status {
		case enums.StockStatusOK:
			continue
		case enums.StockStatusLowStock:
			summary.LowCount++
		case enums.StockStatusOutOfStock:
			summary.OutCount++
		case enums.StockStatusOverStock:
			summary.OverCount++
		}
		summary.AlertCount++

		if err := j.sink.RecordAlert(ctx, buildAlert(item, classification)); err != nil {
			j.logg.Error(j.logg.WithField(ctx, "inventory_item_id", item.ID.String()),
				"failed to record stock alert", err)
			sinkErrs = multierr.Append(sinkErrs, fmt.Errorf("alert for item %s: %w", item.ID, err))
		}
	}

	// Undeliverable alerts never stop the pass; every item still gets
	// visited, stamped and counted in the summary.
	if err := j.reader.StampLastStockCheck(ctx, checked, j.now().UTC()); err != nil {
		return fmt.Errorf("stamp last stock check: %w", err)
	}
	if err := j.sink.RecordSummary(ctx, summary); err != nil {
		return fmt.Errorf("record scan summary: %w", err)
	}
	return sinkErrs
}

func buildAlert(item models.InventoryItem, classification stockcheck.Classification) alerts.StockAlert {
	alert := alerts.StockAlert{
		Type:             classification.Status,
		WarehouseID:      item.WarehouseID,
		CurrentAvailable: item.AvailableQuantity(),
		SuggestedAction:  classification.SuggestedAction,
	}
	if item.Product != nil {
		alert.ProductID = item.Product.ID
		alert.ProductName = item.Product.Name
		alert.SKU = item.Product.SKU
		alert.MinLevel = item.Product.MinStockLevel
		alert.MaxLevel = item.Product.MaxStockLevel
	}
	if item.Warehouse != nil {
		alert.WarehouseName = item.Warehouse.Name
	}
	return alert
}
