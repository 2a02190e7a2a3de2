package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// StockAlert is one per-item finding from a scan pass.
type StockAlert struct {
	Type             enums.StockStatus `json:"type"`
	ProductID        uuid.UUID         `json:"productId"`
	ProductName      string            `json:"productName"`
	SKU              string            `json:"sku"`
	WarehouseID      uuid.UUID         `json:"warehouseId"`
	WarehouseName    string            `json:"warehouseName"`
	CurrentAvailable int               `json:"currentAvailable"`
	MinLevel         int               `json:"minLevel"`
	MaxLevel         *int              `json:"maxLevel,omitempty"`
	SuggestedAction  string            `json:"suggestedAction"`
}

// ScanSummary aggregates one full scan pass.
type ScanSummary struct {
	TotalMonitored int             `json:"totalMonitored"`
	LowCount       int             `json:"lowCount"`
	OutCount       int             `json:"outCount"`
	OverCount      int             `json:"overCount"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	AlertCount     int             `json:"alertCount"`
}

// Discrepancy describes one item whose state violates a ledger invariant.
type Discrepancy struct {
	ProductID         uuid.UUID `json:"productId"`
	ProductName       string    `json:"productName"`
	SKU               string    `json:"sku"`
	WarehouseID       uuid.UUID `json:"warehouseId"`
	WarehouseName     string    `json:"warehouseName"`
	Quantity          int       `json:"totalQuantity"`
	ReservedQuantity  int       `json:"reservedQuantity"`
	AvailableQuantity int       `json:"availableQuantity"`
	Kind              string    `json:"discrepancyType"`
}

// DiscrepancyReport is the weekly reconciliation output. Any entry means an
// invariant was breached upstream and should be handled as an incident.
type DiscrepancyReport struct {
	GeneratedAt   time.Time     `json:"generatedAt"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// Sink receives structured alerts and reports from scan passes. The scanner
// only depends on this interface; delivery channels live behind it.
type Sink interface {
	RecordAlert(ctx context.Context, alert StockAlert) error
	RecordSummary(ctx context.Context, summary ScanSummary) error
	RecordDiscrepancyReport(ctx context.Context, report DiscrepancyReport) error
}

// LogSink writes alerts to the structured log. It is the default sink when
// no external notification channel is configured.
type LogSink struct {
	logg *logger.Logger
}

// NewLogSink builds a sink backed by the shared logger.
func NewLogSink(logg *logger.Logger) (*LogSink, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogSink{logg: logg}, nil
}

func (s *LogSink) RecordAlert(ctx context.Context, alert StockAlert) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"alert_type":        string(alert.Type),
		"product_id":        alert.ProductID.String(),
		"sku":               alert.SKU,
		"warehouse_id":      alert.WarehouseID.String(),
		"current_available": alert.CurrentAvailable,
		"min_level":         alert.MinLevel,
		"suggested_action":  alert.SuggestedAction,
	})
	s.logg.Warn(ctx, "stock alert")
	return nil
}

func (s *LogSink) RecordSummary(ctx context.Context, summary ScanSummary) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"total_monitored": summary.TotalMonitored,
		"low_count":       summary.LowCount,
		"out_count":       summary.OutCount,
		"over_count":      summary.OverCount,
		"total_value":     summary.TotalValue.String(),
		"alert_count":     summary.AlertCount,
	})
	s.logg.Info(ctx, "stock scan summary")
	return nil
}

func (s *LogSink) RecordDiscrepancyReport(ctx context.Context, report DiscrepancyReport) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"generated_at":        report.GeneratedAt,
		"total_discrepancies": len(report.Discrepancies),
	})
	s.logg.Error(ctx, "inventory discrepancy report", nil)
	for _, d := range report.Discrepancies {
		entryCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id":         d.ProductID.String(),
			"warehouse_id":       d.WarehouseID.String(),
			"quantity":           d.Quantity,
			"reserved_quantity":  d.ReservedQuantity,
			"available_quantity": d.AvailableQuantity,
			"discrepancy_type":   d.Kind,
		})
		s.logg.Warn(entryCtx, "negative available stock")
	}
	return nil
}
