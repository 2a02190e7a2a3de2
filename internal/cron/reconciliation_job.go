package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockroomhq/stockroom-backend/internal/alerts"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

const discrepancyNegativeAvailable = "NEGATIVE_AVAILABLE"

// discrepancyReader is the storage surface the weekly pass needs.
type discrepancyReader interface {
	FindNegativeAvailableItems(ctx context.Context) ([]models.InventoryItem, error)
}

// ReconciliationJob sweeps for items whose reserved stock exceeds on-hand
// stock. Guarded writes should make that impossible, so every hit is
// reported at high severity.
type ReconciliationJob struct {
	logg   *logger.Logger
	reader discrepancyReader
	sink   alerts.Sink
	now    func() time.Time
}

// NewReconciliationJob wires the weekly reconciliation pass.
func NewReconciliationJob(logg *logger.Logger, reader discrepancyReader, sink alerts.Sink) (*ReconciliationJob, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if reader == nil {
		return nil, errors.New("inventory reader required")
	}
	if sink == nil {
		return nil, errors.New("alert sink required")
	}
	return &ReconciliationJob{
		logg:   logg,
		reader: reader,
		sink:   sink,
		now:    time.Now,
	}, nil
}

func (j *ReconciliationJob) Name() string { return "stock_reconciliation" }

func (j *ReconciliationJob) Run(ctx context.Context) error {
	items, err := j.reader.FindNegativeAvailableItems(ctx)
	if err != nil {
		return fmt.Errorf("load negative available items: %w", err)
	}
	if len(items) == 0 {
		j.logg.Info(ctx, "reconciliation found no discrepancies")
		return nil
	}

	report := alerts.DiscrepancyReport{
		GeneratedAt:   j.now().UTC(),
		Discrepancies: make([]alerts.Discrepancy, 0, len(items)),
	}
	for _, item := range items {
		entry := alerts.Discrepancy{
			WarehouseID:       item.WarehouseID,
			Quantity:          item.Quantity,
			ReservedQuantity:  item.ReservedQuantity,
			AvailableQuantity: item.AvailableQuantity(),
			Kind:              discrepancyNegativeAvailable,
		}
		if item.Product != nil {
			entry.ProductID = item.Product.ID
			entry.ProductName = item.Product.Name
			entry.SKU = item.Product.SKU
		} else {
			entry.ProductID = item.ProductID
		}
		if item.Warehouse != nil {
			entry.WarehouseName = item.Warehouse.Name
		}
		report.Discrepancies = append(report.Discrepancies, entry)
	}

	if err := j.sink.RecordDiscrepancyReport(ctx, report); err != nil {
		return fmt.Errorf("record discrepancy report: %w", err)
	}
	return nil
}
