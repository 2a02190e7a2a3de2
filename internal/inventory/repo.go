package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
)

// Repository manages persistence for inventory items and their transaction
// ledger. Quantity mutations go through guarded UPDATEs so that two writers
// working from the same stale read can never both commit.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindItem loads the non-tombstoned item for the (product, warehouse) pair.
func (r *Repository) FindItem(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ? AND is_deleted = ?", productID, warehouseID, false).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByID loads a non-tombstoned item by primary key.
func (r *Repository) FindItemByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new inventory item row.
func (r *Repository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateQuantityGuarded sets the item quantity only if the current stored
// quantity still equals expectedBefore. Returns the number of rows updated;
// zero means another writer got there first.
func (r *Repository) UpdateQuantityGuarded(ctx context.Context, itemID uuid.UUID, expectedBefore, after int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET quantity = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity = ? AND is_deleted = ?
	`, after, itemID, expectedBefore, false)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ReserveGuarded increments reserved_quantity only when enough available
// stock remains. Zero rows affected means the reservation lost the race or
// exceeds availability.
func (r *Repository) ReserveGuarded(ctx context.Context, itemID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved_quantity = reserved_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_deleted = ? AND quantity - reserved_quantity >= ?
	`, qty, itemID, false, qty)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ReleaseGuarded decrements reserved_quantity only when at least qty is
// currently reserved.
func (r *Repository) ReleaseGuarded(ctx context.Context, itemID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved_quantity = reserved_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_deleted = ? AND reserved_quantity >= ?
	`, qty, itemID, false, qty)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// CreateTransaction appends one ledger entry. Entries are never updated or
// deleted afterwards.
func (r *Repository) CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// ListTransactionsByItem returns the newest ledger entries for an item,
// optionally restricted to a date range and resuming below a pagination
// cursor.
func (r *Repository) ListTransactionsByItem(ctx context.Context, itemID uuid.UUID, filter TransactionFilter, cursor *pagination.Cursor, limit int) ([]models.InventoryTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("inventory_item_id = ?", itemID)
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transaction_date <= ?", *filter.To)
	}
	if cursor != nil {
		// Composite comparison so entries sharing a transaction_date are
		// neither skipped nor repeated across pages.
		query = query.Where("(transaction_date, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var txns []models.InventoryTransaction
	err := query.
		Order("transaction_date DESC, id DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ListTransactionsForReplay returns every ledger entry for an item in
// transaction-date order, oldest first.
func (r *Repository) ListTransactionsForReplay(ctx context.Context, itemID uuid.UUID) ([]models.InventoryTransaction, error) {
	var txns []models.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("inventory_item_id = ?", itemID).
		Order("transaction_date ASC, created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// FindMonitoredItems returns every non-tombstoned item whose product is
// active and non-tombstoned, with the product preloaded for thresholds.
func (r *Repository) FindMonitoredItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = inventory_items.product_id").
		Where("inventory_items.is_deleted = ?", false).
		Where("products.is_deleted = ? AND products.is_active = ?", false, true).
		Preload("Product").
		Preload("Warehouse").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindMonitoredItemsInWarehouse restricts the monitored set to one warehouse.
func (r *Repository) FindMonitoredItemsInWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = inventory_items.product_id").
		Where("inventory_items.is_deleted = ?", false).
		Where("inventory_items.warehouse_id = ?", warehouseID).
		Where("products.is_deleted = ? AND products.is_active = ?", false, true).
		Preload("Product").
		Preload("Warehouse").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindCriticalItems restricts the monitored set to items with no available
// stock left.
func (r *Repository) FindCriticalItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = inventory_items.product_id").
		Where("inventory_items.is_deleted = ?", false).
		Where("products.is_deleted = ? AND products.is_active = ?", false, true).
		Where("inventory_items.quantity - inventory_items.reserved_quantity <= 0").
		Preload("Product").
		Preload("Warehouse").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindNegativeAvailableItems returns items whose available quantity is
// negative. Any result is an invariant breach upstream, not routine output.
func (r *Repository) FindNegativeAvailableItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("quantity - reserved_quantity < 0").
		Preload("Product").
		Preload("Warehouse").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// StampLastStockCheck records the scan timestamp on the visited items in one
// batched statement. Re-running with the same timestamp is a no-op in effect.
func (r *Repository) StampLastStockCheck(ctx context.Context, itemIDs []uuid.UUID, checkedAt time.Time) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id IN ?", itemIDs).
		Update("last_stock_check", checkedAt).Error
}
