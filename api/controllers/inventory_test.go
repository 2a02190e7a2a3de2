package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
)

type testInventoryService struct {
	adjustFn  func(ctx context.Context, input inventory.AdjustInput) (*models.InventoryItem, *models.InventoryTransaction, error)
	reserveFn func(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (*models.InventoryItem, error)
	releaseFn func(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (*models.InventoryItem, error)
	getFn     func(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error)
	listFn    func(ctx context.Context, productID, warehouseID uuid.UUID, filter inventory.TransactionFilter, params pagination.Params) ([]models.InventoryTransaction, error)
	levelsFn  func(ctx context.Context, warehouseID *uuid.UUID) (*inventory.StockLevels, error)
}

func (s *testInventoryService) Adjust(ctx context.Context, input inventory.AdjustInput) (*models.InventoryItem, *models.InventoryTransaction, error) {
	if s.adjustFn != nil {
		return s.adjustFn(ctx, input)
	}
	return nil, nil, nil
}

func (s *testInventoryService) Reserve(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (*models.InventoryItem, error) {
	if s.reserveFn != nil {
		return s.reserveFn(ctx, productID, warehouseID, qty)
	}
	return nil, nil
}

func (s *testInventoryService) Release(ctx context.Context, productID, warehouseID uuid.UUID, qty int) (*models.InventoryItem, error) {
	if s.releaseFn != nil {
		return s.releaseFn(ctx, productID, warehouseID, qty)
	}
	return nil, nil
}

func (s *testInventoryService) GetItem(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	if s.getFn != nil {
		return s.getFn(ctx, productID, warehouseID)
	}
	return nil, nil
}

func (s *testInventoryService) ListTransactions(ctx context.Context, productID, warehouseID uuid.UUID, filter inventory.TransactionFilter, params pagination.Params) ([]models.InventoryTransaction, error) {
	if s.listFn != nil {
		return s.listFn(ctx, productID, warehouseID, filter, params)
	}
	return nil, nil
}

func (s *testInventoryService) StockLevels(ctx context.Context, warehouseID *uuid.UUID) (*inventory.StockLevels, error) {
	if s.levelsFn != nil {
		return s.levelsFn(ctx, warehouseID)
	}
	return nil, nil
}

func testLog() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func itemKeyRequest(method, target, productID, warehouseID string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID)
	routeCtx.URLParams.Add("warehouseId", warehouseID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestAdjustStockSuccess(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()
	svc := &testInventoryService{
		adjustFn: func(ctx context.Context, input inventory.AdjustInput) (*models.InventoryItem, *models.InventoryTransaction, error) {
			if input.ProductID != productID || input.WarehouseID != warehouseID {
				t.Fatalf("unexpected item key: %s/%s", input.ProductID, input.WarehouseID)
			}
			if input.Type != enums.TransactionTypeIn || input.Quantity != 25 {
				t.Fatalf("unexpected input: %+v", input)
			}
			item := &models.InventoryItem{
				ID:          uuid.New(),
				ProductID:   productID,
				WarehouseID: warehouseID,
				Quantity:    25,
			}
			txn := &models.InventoryTransaction{
				ID:            uuid.New(),
				Type:          enums.TransactionTypeIn,
				QuantityDelta: 25,
				QuantityAfter: 25,
				Reference:     input.Reference,
			}
			return item, txn, nil
		},
	}

	body := `{"productId":"` + productID.String() + `","warehouseId":"` + warehouseID.String() + `","type":"IN","quantity":25,"reference":"PO-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/adjustments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AdjustStock(svc, testLog())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			Item struct {
				Quantity int `json:"quantity"`
			} `json:"item"`
			Transaction struct {
				QuantityDelta int    `json:"quantityDelta"`
				Reference     string `json:"reference"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.Item.Quantity != 25 {
		t.Fatalf("unexpected quantity: %d", envelope.Data.Item.Quantity)
	}
	if envelope.Data.Transaction.QuantityDelta != 25 || envelope.Data.Transaction.Reference != "PO-1" {
		t.Fatalf("unexpected transaction: %+v", envelope.Data.Transaction)
	}
}

func TestAdjustStockRejectsBadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "missing product", body: `{"warehouseId":"` + uuid.NewString() + `","type":"IN","quantity":1}`},
		{name: "bad uuid", body: `{"productId":"nope","warehouseId":"` + uuid.NewString() + `","type":"IN","quantity":1}`},
		{name: "unknown field", body: `{"productId":"` + uuid.NewString() + `","warehouseId":"` + uuid.NewString() + `","type":"IN","quantity":1,"extra":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/adjustments", strings.NewReader(tt.body))
			resp := httptest.NewRecorder()
			AdjustStock(&testInventoryService{}, testLog())(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}
}

func TestAdjustStockRejectsUnknownType(t *testing.T) {
	body := `{"productId":"` + uuid.NewString() + `","warehouseId":"` + uuid.NewString() + `","type":"BOGUS","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/adjustments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AdjustStock(&testInventoryService{}, testLog())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAdjustStockMapsDomainErrors(t *testing.T) {
	svc := &testInventoryService{
		adjustFn: func(ctx context.Context, input inventory.AdjustInput) (*models.InventoryItem, *models.InventoryTransaction, error) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock out would drive quantity negative").
				WithDetails(map[string]any{"on_hand": 5, "requested": 10})
		},
	}
	body := `{"productId":"` + uuid.NewString() + `","warehouseId":"` + uuid.NewString() + `","type":"OUT","quantity":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/adjustments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AdjustStock(svc, testLog())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected code: %s", envelope.Error.Code)
	}
	if envelope.Error.Details["on_hand"] != float64(5) {
		t.Fatalf("unexpected details: %v", envelope.Error.Details)
	}
}

func TestReserveStockSuccess(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()
	svc := &testInventoryService{
		reserveFn: func(ctx context.Context, pid, wid uuid.UUID, qty int) (*models.InventoryItem, error) {
			if qty != 4 {
				t.Fatalf("unexpected qty %d", qty)
			}
			return &models.InventoryItem{
				ID:               uuid.New(),
				ProductID:        pid,
				WarehouseID:      wid,
				Quantity:         10,
				ReservedQuantity: 4,
			}, nil
		},
	}
	body := `{"productId":"` + productID.String() + `","warehouseId":"` + warehouseID.String() + `","quantity":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/reservations", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ReserveStock(svc, testLog())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			AvailableQuantity int `json:"availableQuantity"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.AvailableQuantity != 6 {
		t.Fatalf("unexpected available: %d", envelope.Data.AvailableQuantity)
	}
}

func TestReserveStockRejectsZeroQuantity(t *testing.T) {
	body := `{"productId":"` + uuid.NewString() + `","warehouseId":"` + uuid.NewString() + `","quantity":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/reservations", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ReserveStock(&testInventoryService{}, testLog())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestReleaseStockOverRelease(t *testing.T) {
	svc := &testInventoryService{
		releaseFn: func(ctx context.Context, pid, wid uuid.UUID, qty int) (*models.InventoryItem, error) {
			return nil, pkgerrors.New(pkgerrors.CodeOverRelease, "release exceeds reserved quantity")
		},
	}
	body := `{"productId":"` + uuid.NewString() + `","warehouseId":"` + uuid.NewString() + `","quantity":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/releases", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ReleaseStock(svc, testLog())(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
}

func TestGetInventoryItem(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()
	svc := &testInventoryService{
		getFn: func(ctx context.Context, pid, wid uuid.UUID) (*models.InventoryItem, error) {
			if pid != productID || wid != warehouseID {
				t.Fatalf("unexpected item key: %s/%s", pid, wid)
			}
			return &models.InventoryItem{ID: uuid.New(), ProductID: pid, WarehouseID: wid, Quantity: 7}, nil
		},
	}
	req := itemKeyRequest(http.MethodGet,
		"/api/v1/inventory/items/"+productID.String()+"/"+warehouseID.String(),
		productID.String(), warehouseID.String(), nil)
	resp := httptest.NewRecorder()
	GetInventoryItem(svc, testLog())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestGetInventoryItemNotFound(t *testing.T) {
	svc := &testInventoryService{
		getFn: func(ctx context.Context, pid, wid uuid.UUID) (*models.InventoryItem, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		},
	}
	req := itemKeyRequest(http.MethodGet, "/api/v1/inventory/items/x/y",
		uuid.NewString(), uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	GetInventoryItem(svc, testLog())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestListInventoryTransactions(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()
	svc := &testInventoryService{
		listFn: func(ctx context.Context, pid, wid uuid.UUID, filter inventory.TransactionFilter, params pagination.Params) ([]models.InventoryTransaction, error) {
			if params.Limit != 2 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			if filter.From != nil || filter.To != nil {
				t.Fatalf("unexpected date filter %+v", filter)
			}
			return []models.InventoryTransaction{
				{ID: uuid.New(), Type: enums.TransactionTypeIn, QuantityDelta: 5},
				{ID: uuid.New(), Type: enums.TransactionTypeOut, QuantityDelta: -2},
			}, nil
		},
	}
	req := itemKeyRequest(http.MethodGet,
		"/api/v1/inventory/items/"+productID.String()+"/"+warehouseID.String()+"/transactions?limit=2",
		productID.String(), warehouseID.String(), nil)
	resp := httptest.NewRecorder()
	ListInventoryTransactions(svc, testLog())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			Transactions []transactionResponse `json:"transactions"`
			NextCursor   string                `json:"nextCursor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(envelope.Data.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(envelope.Data.Transactions))
	}
	if envelope.Data.NextCursor == "" {
		t.Fatal("expected next cursor")
	}
}

func TestGetStockLevels(t *testing.T) {
	warehouseID := uuid.New()
	svc := &testInventoryService{
		levelsFn: func(ctx context.Context, wid *uuid.UUID) (*inventory.StockLevels, error) {
			if wid == nil || *wid != warehouseID {
				t.Fatalf("unexpected warehouse filter %v", wid)
			}
			return &inventory.StockLevels{
				TotalItems:    3,
				TotalQuantity: 42,
				TotalReserved: 7,
				TotalValue:    decimal.RequireFromString("99.90"),
				LowStockCount: 1,
			}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/inventory/stock-levels?warehouseId="+warehouseID.String(), nil)
	resp := httptest.NewRecorder()
	GetStockLevels(svc, testLog())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data stockLevelsResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.TotalItems != 3 || envelope.Data.TotalQuantity != 42 {
		t.Fatalf("unexpected totals: %+v", envelope.Data)
	}
	if envelope.Data.TotalValue != "99.9" {
		t.Fatalf("unexpected total value %q", envelope.Data.TotalValue)
	}
	if envelope.Data.LowStockCount != 1 {
		t.Fatalf("unexpected low stock count %d", envelope.Data.LowStockCount)
	}
}

func TestGetStockLevelsBadWarehouseID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/stock-levels?warehouseId=nope", nil)
	resp := httptest.NewRecorder()
	GetStockLevels(&testInventoryService{}, testLog())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListInventoryTransactionsDateRange(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	svc := &testInventoryService{
		listFn: func(ctx context.Context, pid, wid uuid.UUID, filter inventory.TransactionFilter, params pagination.Params) ([]models.InventoryTransaction, error) {
			if filter.From == nil || !filter.From.Equal(from) {
				t.Fatalf("unexpected from %v", filter.From)
			}
			if filter.To == nil || !filter.To.Equal(to) {
				t.Fatalf("unexpected to %v", filter.To)
			}
			return nil, nil
		},
	}
	target := "/api/v1/inventory/items/x/y/transactions?from=" + from.Format(time.RFC3339) +
		"&to=" + to.Format(time.RFC3339)
	req := itemKeyRequest(http.MethodGet, target, productID.String(), warehouseID.String(), nil)
	resp := httptest.NewRecorder()
	ListInventoryTransactions(svc, testLog())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListInventoryTransactionsBadDate(t *testing.T) {
	req := itemKeyRequest(http.MethodGet, "/api/v1/inventory/items/x/y/transactions?from=yesterday",
		uuid.NewString(), uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	ListInventoryTransactions(&testInventoryService{}, testLog())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListInventoryTransactionsBadLimit(t *testing.T) {
	req := itemKeyRequest(http.MethodGet, "/api/v1/inventory/items/x/y/transactions?limit=-1",
		uuid.NewString(), uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	ListInventoryTransactions(&testInventoryService{}, testLog())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
