package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// InventoryTransaction is one immutable audit entry in an item's ledger.
// Rows are append-only; replaying QuantityDelta in transaction-date order
// from zero must reproduce the item's current quantity.
type InventoryTransaction struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	InventoryItemID uuid.UUID             `gorm:"column:inventory_item_id;type:uuid;not null;index"`
	Type            enums.TransactionType `gorm:"column:type;type:transaction_type_enum;not null"`
	QuantityDelta   int                   `gorm:"column:quantity_delta;not null"`
	QuantityBefore  int                   `gorm:"column:quantity_before;not null"`
	QuantityAfter   int                   `gorm:"column:quantity_after;not null"`
	Reference       string                `gorm:"column:reference"`
	Notes           *string               `gorm:"column:notes"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	TransactionDate time.Time             `gorm:"column:transaction_date;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
