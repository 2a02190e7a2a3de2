package stockcheck

import (
	"fmt"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// Classification is the health verdict for one inventory item at one point
// in time. A single evaluation yields exactly one classification.
type Classification struct {
	Status          enums.StockStatus
	SuggestedAction string
}

// Classify maps an item's current state plus its product's configured
// thresholds to a stock-health classification. The tie-break order is fixed:
// out-of-stock wins over low-stock, which wins over over-stock.
func Classify(item models.InventoryItem, minLevel int, maxLevel *int) Classification {
	available := item.AvailableQuantity()

	switch {
	case available <= 0:
		return Classification{
			Status:          enums.StockStatusOutOfStock,
			SuggestedAction: "immediate restock required",
		}
	case available <= minLevel:
		if maxLevel == nil {
			return Classification{
				Status:          enums.StockStatusLowStock,
				SuggestedAction: "reorder required",
			}
		}
		reorder := *maxLevel - available
		if reorder < 0 {
			reorder = 0
		}
		return Classification{
			Status:          enums.StockStatusLowStock,
			SuggestedAction: fmt.Sprintf("reorder %d units", reorder),
		}
	case maxLevel != nil && available > *maxLevel:
		return Classification{
			Status:          enums.StockStatusOverStock,
			SuggestedAction: "consider redistribution or promotion",
		}
	default:
		return Classification{Status: enums.StockStatusOK}
	}
}
