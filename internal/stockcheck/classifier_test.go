package stockcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

func intPtr(v int) *int { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		quantity   int
		reserved   int
		minLevel   int
		maxLevel   *int
		wantStatus enums.StockStatus
		wantAction string
	}{
		{
			name:       "out of stock at zero",
			quantity:   0,
			minLevel:   5,
			maxLevel:   intPtr(50),
			wantStatus: enums.StockStatusOutOfStock,
			wantAction: "immediate restock required",
		},
		{
			name:       "low stock suggests reorder to max",
			quantity:   3,
			minLevel:   5,
			maxLevel:   intPtr(50),
			wantStatus: enums.StockStatusLowStock,
			wantAction: "reorder 47 units",
		},
		{
			name:       "over stock",
			quantity:   60,
			minLevel:   5,
			maxLevel:   intPtr(50),
			wantStatus: enums.StockStatusOverStock,
			wantAction: "consider redistribution or promotion",
		},
		{
			name:       "healthy",
			quantity:   20,
			minLevel:   5,
			maxLevel:   intPtr(50),
			wantStatus: enums.StockStatusOK,
			wantAction: "",
		},
		{
			name:       "reservation pushes available to zero",
			quantity:   30,
			reserved:   30,
			minLevel:   5,
			maxLevel:   intPtr(50),
			wantStatus: enums.StockStatusOutOfStock,
			wantAction: "immediate restock required",
		},
		{
			name:       "negative available still reports out of stock first",
			quantity:   2,
			reserved:   5,
			minLevel:   5,
			maxLevel:   intPtr(50),
			wantStatus: enums.StockStatusOutOfStock,
			wantAction: "immediate restock required",
		},
		{
			name:       "low stock without max level omits quantity",
			quantity:   3,
			minLevel:   5,
			wantStatus: enums.StockStatusLowStock,
			wantAction: "reorder required",
		},
		{
			name:       "low stock reorder never negative",
			quantity:   3,
			minLevel:   5,
			maxLevel:   intPtr(2),
			wantStatus: enums.StockStatusLowStock,
			wantAction: "reorder 0 units",
		},
		{
			name:       "no max level never over stocks",
			quantity:   10000,
			minLevel:   5,
			wantStatus: enums.StockStatusOK,
			wantAction: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := models.InventoryItem{
				Quantity:         tt.quantity,
				ReservedQuantity: tt.reserved,
			}
			got := Classify(item, tt.minLevel, tt.maxLevel)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantAction, got.SuggestedAction)
		})
	}
}
