package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/stockcheck"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
)

// maxMutationAttempts bounds the optimistic retry loop on write conflicts.
const maxMutationAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the quantity-mutating and read operations of the stock
// ledger. Every successful mutation persists the item update and its ledger
// entry as one atomic unit.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*models.InventoryItem, *models.InventoryTransaction, error)
	Reserve(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (*models.InventoryItem, error)
	Release(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (*models.InventoryItem, error)
	GetItem(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error)
	ListTransactions(ctx context.Context, productID, warehouseID uuid.UUID, filter TransactionFilter, params pagination.Params) ([]models.InventoryTransaction, error)
	StockLevels(ctx context.Context, warehouseID *uuid.UUID) (*StockLevels, error)
}

// TransactionFilter narrows a ledger listing to a date range. Nil bounds are
// open ends.
type TransactionFilter struct {
	From *time.Time
	To   *time.Time
}

// StockLevels aggregates the current shape of the monitored stock, either
// for one warehouse or across all of them.
type StockLevels struct {
	TotalItems      int
	TotalQuantity   int
	TotalReserved   int
	TotalValue      decimal.Decimal
	LowStockCount   int
	OutOfStockCount int
	OverStockCount  int
}

// AdjustInput carries one stock adjustment request. For IN/OUT, Quantity is
// the movement amount; for ADJUSTMENT it is the absolute target quantity.
type AdjustInput struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Type        enums.TransactionType
	Quantity    int
	Reference   string
	Notes       *string
	UserID      *uuid.UUID
}

// ServiceParams configure the inventory service.
type ServiceParams struct {
	DB     txRunner
	Repo   *Repository
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	db   txRunner
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:   params.DB,
		repo: params.Repo,
		logg: params.Logger,
		now:  now,
	}, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryItem, *models.InventoryTransaction, error) {
	if err := validateAdjustInput(input); err != nil {
		return nil, nil, err
	}

	var (
		item *models.InventoryItem
		txn  *models.InventoryTransaction
	)
	var lastErr error
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		item, txn, lastErr = s.applyMutation(ctx, input)
		if lastErr == nil {
			return item, txn, nil
		}
		if !pkgerrors.IsRetryable(lastErr) {
			return nil, nil, lastErr
		}
	}
	return nil, nil, lastErr
}

// applyMutation runs one optimistic attempt: load (or create) the item,
// compute before/after, and persist the item update plus its ledger entry
// in one transaction. A guarded UPDATE matching zero rows aborts the whole
// transaction, so a conflicting writer can never leave an item updated
// without its ledger entry or vice versa.
func (s *service) applyMutation(ctx context.Context, input AdjustInput) (*models.InventoryItem, *models.InventoryTransaction, error) {
	var (
		item models.InventoryItem
		txn  models.InventoryTransaction
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.findOrCreateItem(ctx, repo, input.ProductID, input.WarehouseID)
		if err != nil {
			return err
		}

		before := current.Quantity
		after, delta, err := computeTransition(input.Type, before, input.Quantity)
		if err != nil {
			return err
		}

		rows, err := repo.UpdateQuantityGuarded(ctx, current.ID, before, after)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item quantity")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConcurrentModification,
				"item quantity changed since read")
		}

		entry := models.InventoryTransaction{
			ID:              uuid.New(),
			InventoryItemID: current.ID,
			Type:            input.Type,
			QuantityDelta:   delta,
			QuantityBefore:  before,
			QuantityAfter:   after,
			Reference:       s.referenceOrDefault(input.Reference),
			Notes:           input.Notes,
			UserID:          input.UserID,
			TransactionDate: s.now().UTC(),
		}
		if err := repo.CreateTransaction(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
		}

		current.Quantity = after
		item = *current
		txn = entry
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &item, &txn, nil
}

// findOrCreateItem implements upsert-on-write: the first adjustment against
// an unseen (product, warehouse) pair creates the item with quantity 0.
func (s *service) findOrCreateItem(ctx context.Context, repo *Repository, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	current, err := repo.FindItem(ctx, productID, warehouseID)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}

	fresh := &models.InventoryItem{
		ID:          uuid.New(),
		ProductID:   productID,
		WarehouseID: warehouseID,
	}
	if err := repo.CreateItem(ctx, fresh); err != nil {
		if db.IsUniqueViolation(err, "") {
			// Another writer created the row between our read and insert.
			return nil, pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, err,
				"item created concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
	}
	return fresh, nil
}

func validateAdjustInput(input AdjustInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	switch input.Type {
	case enums.TransactionTypeIn, enums.TransactionTypeOut:
		if input.Quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
		}
	case enums.TransactionTypeAdjustment:
		if input.Quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "target quantity must not be negative")
		}
	case enums.TransactionTypeTransfer:
		return pkgerrors.New(pkgerrors.CodeValidation,
			"transfer requires a paired two-item operation and is not supported here")
	default:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported transaction type %q", input.Type))
	}
	return nil
}

// computeTransition maps one adjustment onto the (after, delta) pair stored
// in the ledger entry.
func computeTransition(txType enums.TransactionType, before, quantity int) (after, delta int, err error) {
	switch txType {
	case enums.TransactionTypeIn:
		after = before + quantity
		delta = quantity
	case enums.TransactionTypeOut:
		after = before - quantity
		delta = -quantity
		if after < 0 {
			return 0, 0, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				"stock out would drive quantity negative").
				WithDetails(map[string]any{"on_hand": before, "requested": quantity})
		}
	case enums.TransactionTypeAdjustment:
		after = quantity
		delta = quantity - before
	default:
		return 0, 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported transaction type %q", txType))
	}
	return after, delta, nil
}

func (s *service) referenceOrDefault(reference string) string {
	if reference != "" {
		return reference
	}
	return fmt.Sprintf("AUTO-%d", s.now().UTC().UnixMilli())
}

func (s *service) Reserve(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (*models.InventoryItem, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}
	item, err := s.loadItem(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ReserveGuarded(ctx, item.ID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	if rows == 0 {
		refreshed, rerr := s.repo.FindItemByID(ctx, item.ID)
		if rerr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, rerr, "reload item after failed reserve")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientAvailable,
			"reservation exceeds available stock").
			WithDetails(map[string]any{
				"available": refreshed.AvailableQuantity(),
				"requested": qty,
			})
	}
	return s.repo.FindItemByID(ctx, item.ID)
}

func (s *service) Release(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (*models.InventoryItem, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be positive")
	}
	item, err := s.loadItem(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ReleaseGuarded(ctx, item.ID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release reserved stock")
	}
	if rows == 0 {
		refreshed, rerr := s.repo.FindItemByID(ctx, item.ID)
		if rerr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, rerr, "reload item after failed release")
		}
		return nil, pkgerrors.New(pkgerrors.CodeOverRelease,
			"release exceeds reserved quantity").
			WithDetails(map[string]any{
				"reserved":  refreshed.ReservedQuantity,
				"requested": qty,
			})
	}
	return s.repo.FindItemByID(ctx, item.ID)
}

func (s *service) GetItem(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	return s.loadItem(ctx, productID, warehouseID)
}

func (s *service) ListTransactions(ctx context.Context, productID, warehouseID uuid.UUID, filter TransactionFilter, params pagination.Params) ([]models.InventoryTransaction, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	item, err := s.loadItem(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	txns, err := s.repo.ListTransactionsByItem(ctx, item.ID, filter, cursor, pagination.NormalizeLimit(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return txns, nil
}

// StockLevels walks the monitored items with the same classification and
// valuation rules the daily scan uses, so the synchronous summary and the
// scan summary never disagree on method.
func (s *service) StockLevels(ctx context.Context, warehouseID *uuid.UUID) (*StockLevels, error) {
	var (
		items []models.InventoryItem
		err   error
	)
	if warehouseID != nil {
		items, err = s.repo.FindMonitoredItemsInWarehouse(ctx, *warehouseID)
	} else {
		items, err = s.repo.FindMonitoredItems(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monitored items")
	}

	levels := StockLevels{TotalValue: decimal.Zero}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		levels.TotalItems++
		levels.TotalQuantity += item.Quantity
		levels.TotalReserved += item.ReservedQuantity

		available := item.AvailableQuantity()
		if available > 0 && item.Product.CostPrice != nil {
			value := item.Product.CostPrice.Mul(decimal.NewFromInt(int64(available)))
			levels.TotalValue = levels.TotalValue.Add(value)
		}

		switch stockcheck.Classify(item, item.Product.MinStockLevel, item.Product.MaxStockLevel).Status {
		case enums.StockStatusLowStock:
			levels.LowStockCount++
		case enums.StockStatusOutOfStock:
			levels.OutOfStockCount++
		case enums.StockStatusOverStock:
			levels.OverStockCount++
		}
	}
	return &levels, nil
}

func (s *service) loadItem(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.repo.FindItem(ctx, productID, warehouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return item, nil
}
