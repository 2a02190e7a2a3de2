package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/api/validators"
	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
)

type adjustRequest struct {
	ProductID   string  `json:"productId" validate:"required,uuid"`
	WarehouseID string  `json:"warehouseId" validate:"required,uuid"`
	Type        string  `json:"type" validate:"required"`
	Quantity    int     `json:"quantity" validate:"min=0"`
	Reference   string  `json:"reference" validate:"omitempty,max=120"`
	Notes       *string `json:"notes" validate:"omitempty,max=500"`
	UserID      *string `json:"userId" validate:"omitempty,uuid"`
}

type reservationRequest struct {
	ProductID   string `json:"productId" validate:"required,uuid"`
	WarehouseID string `json:"warehouseId" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
}

type itemResponse struct {
	ID                uuid.UUID  `json:"id"`
	ProductID         uuid.UUID  `json:"productId"`
	WarehouseID       uuid.UUID  `json:"warehouseId"`
	Quantity          int        `json:"quantity"`
	ReservedQuantity  int        `json:"reservedQuantity"`
	AvailableQuantity int        `json:"availableQuantity"`
	Location          *string    `json:"location,omitempty"`
	LastStockCheck    *time.Time `json:"lastStockCheck,omitempty"`
}

type transactionResponse struct {
	ID              uuid.UUID  `json:"id"`
	Type            string     `json:"type"`
	QuantityDelta   int        `json:"quantityDelta"`
	QuantityBefore  int        `json:"quantityBefore"`
	QuantityAfter   int        `json:"quantityAfter"`
	Reference       string     `json:"reference"`
	Notes           *string    `json:"notes,omitempty"`
	UserID          *uuid.UUID `json:"userId,omitempty"`
	TransactionDate time.Time  `json:"transactionDate"`
}

func newItemResponse(item *models.InventoryItem) itemResponse {
	return itemResponse{
		ID:                item.ID,
		ProductID:         item.ProductID,
		WarehouseID:       item.WarehouseID,
		Quantity:          item.Quantity,
		ReservedQuantity:  item.ReservedQuantity,
		AvailableQuantity: item.AvailableQuantity(),
		Location:          item.Location,
		LastStockCheck:    item.LastStockCheck,
	}
}

func newTransactionResponse(txn *models.InventoryTransaction) transactionResponse {
	return transactionResponse{
		ID:              txn.ID,
		Type:            string(txn.Type),
		QuantityDelta:   txn.QuantityDelta,
		QuantityBefore:  txn.QuantityBefore,
		QuantityAfter:   txn.QuantityAfter,
		Reference:       txn.Reference,
		Notes:           txn.Notes,
		UserID:          txn.UserID,
		TransactionDate: txn.TransactionDate,
	}
}

// AdjustStock applies one IN/OUT/ADJUSTMENT movement and returns the updated
// item together with its ledger entry.
func AdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body adjustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, warehouseID, err := parseItemKey(body.ProductID, body.WarehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txType, err := enums.ParseTransactionType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}

		input := inventory.AdjustInput{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Type:        txType,
			Quantity:    body.Quantity,
			Reference:   strings.TrimSpace(body.Reference),
			Notes:       body.Notes,
		}
		if body.UserID != nil {
			userID, err := uuid.Parse(*body.UserID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
				return
			}
			input.UserID = &userID
		}

		item, txn, err := svc.Adjust(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"item":        newItemResponse(item),
			"transaction": newTransactionResponse(txn),
		})
	}
}

// ReserveStock earmarks available stock without moving quantity.
func ReserveStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body reservationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, warehouseID, err := parseItemKey(body.ProductID, body.WarehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Reserve(r.Context(), productID, warehouseID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// ReleaseStock returns previously reserved stock to the available pool.
func ReleaseStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body reservationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, warehouseID, err := parseItemKey(body.ProductID, body.WarehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Release(r.Context(), productID, warehouseID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// GetInventoryItem returns one item's current stock levels.
func GetInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, warehouseID, err := parseItemKey(
			chi.URLParam(r, "productId"),
			chi.URLParam(r, "warehouseId"),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), productID, warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// ListInventoryTransactions returns the item's ledger, newest first, with
// cursor pagination.
func ListInventoryTransactions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, warehouseID, err := parseItemKey(
			chi.URLParam(r, "productId"),
			chi.URLParam(r, "warehouseId"),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}

		var filter inventory.TransactionFilter
		filter.From, err = parseTimeParam(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.To, err = parseTimeParam(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, err := svc.ListTransactions(r.Context(), productID, warehouseID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]transactionResponse, 0, len(txns))
		for i := range txns {
			items = append(items, newTransactionResponse(&txns[i]))
		}
		payload := map[string]any{"transactions": items}
		if len(txns) > 0 {
			last := txns[len(txns)-1]
			payload["nextCursor"] = pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: last.TransactionDate,
				ID:        last.ID,
			})
		}
		responses.WriteSuccess(w, payload)
	}
}

type stockLevelsResponse struct {
	TotalItems      int    `json:"totalItems"`
	TotalQuantity   int    `json:"totalQuantity"`
	TotalReserved   int    `json:"totalReserved"`
	TotalValue      string `json:"totalValue"`
	LowStockCount   int    `json:"lowStockCount"`
	OutOfStockCount int    `json:"outOfStockCount"`
	OverStockCount  int    `json:"overStockCount"`
}

// GetStockLevels returns an aggregate picture of monitored stock, optionally
// scoped to one warehouse via the warehouseId query parameter.
func GetStockLevels(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var warehouseID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("warehouseId")); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse id"))
				return
			}
			warehouseID = &parsed
		}

		levels, err := svc.StockLevels(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockLevelsResponse{
			TotalItems:      levels.TotalItems,
			TotalQuantity:   levels.TotalQuantity,
			TotalReserved:   levels.TotalReserved,
			TotalValue:      levels.TotalValue.String(),
			LowStockCount:   levels.LowStockCount,
			OutOfStockCount: levels.OutOfStockCount,
			OverStockCount:  levels.OverStockCount,
		})
	}
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
			fmt.Sprintf("%s must be an RFC 3339 timestamp", name))
	}
	return &parsed, nil
}

func parseItemKey(rawProductID, rawWarehouseID string) (uuid.UUID, uuid.UUID, error) {
	productID, err := uuid.Parse(strings.TrimSpace(rawProductID))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	warehouseID, err := uuid.Parse(strings.TrimSpace(rawWarehouseID))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse id")
	}
	return productID, warehouseID, nil
}
