package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry whose stock the ledger tracks. Min/max stock
// levels drive the classifier; cost price feeds scan value totals.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SKU           string           `gorm:"column:sku;not null;uniqueIndex"`
	Name          string           `gorm:"column:name;not null"`
	Description   *string          `gorm:"column:description"`
	Unit          string           `gorm:"column:unit;not null;default:piece"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	CostPrice     *decimal.Decimal `gorm:"column:cost_price;type:numeric(10,2)"`
	MinStockLevel int              `gorm:"column:min_stock_level;not null;default:0"`
	MaxStockLevel *int             `gorm:"column:max_stock_level"`
	IsActive      bool             `gorm:"column:is_active;not null;default:true"`
	IsDeleted     bool             `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
