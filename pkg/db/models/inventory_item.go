package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks on-hand and reserved stock of one product in one
// warehouse. The (ProductID, WarehouseID) pair is unique per row.
type InventoryItem struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID        uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_inventory_product_warehouse"`
	WarehouseID      uuid.UUID  `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:idx_inventory_product_warehouse"`
	Quantity         int        `gorm:"column:quantity;not null;default:0"`
	ReservedQuantity int        `gorm:"column:reserved_quantity;not null;default:0"`
	Location         *string    `gorm:"column:location"`
	LastStockCheck   *time.Time `gorm:"column:last_stock_check"`
	IsDeleted        bool       `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Product      *Product               `gorm:"foreignKey:ProductID"`
	Warehouse    *Warehouse             `gorm:"foreignKey:WarehouseID"`
	Transactions []InventoryTransaction `gorm:"foreignKey:InventoryItemID"`
}

// AvailableQuantity is derived on read and never persisted, so it cannot
// diverge from Quantity/ReservedQuantity.
func (i InventoryItem) AvailableQuantity() int {
	return i.Quantity - i.ReservedQuantity
}
