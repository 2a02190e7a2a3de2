package enums

// StockStatus classifies the health of one inventory item.
type StockStatus string

const (
	StockStatusOK         StockStatus = "OK"
	StockStatusLowStock   StockStatus = "LOW_STOCK"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StockStatusOverStock  StockStatus = "OVER_STOCK"
)

// IsValid reports whether the value matches the canonical stock status enum.
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusOK, StockStatusLowStock, StockStatusOutOfStock, StockStatusOverStock:
		return true
	}
	return false
}
