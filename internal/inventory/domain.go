package inventory

import (
	"time"
)

// Category splits stock between production inputs and sellable goods.
type Category string

const (
	CategoryRawMaterial     Category = "raw_material"
	CategoryFinishedProduct Category = "finished_product"
)

// IsValid checks if the category is a known value.
func (c Category) IsValid() bool {
	return c == CategoryRawMaterial || c == CategoryFinishedProduct
}

// Unit enumerates stock-keeping units.
type Unit string

const (
	UnitKg     Unit = "kg"
	UnitLitre  Unit = "litre"
	UnitPiece  Unit = "piece"
	UnitCarton Unit = "carton"
)

// IsValid checks if the unit is a known value.
func (u Unit) IsValid() bool {
	switch u {
	case UnitKg, UnitLitre, UnitPiece, UnitCarton:
		return true
	default:
		return false
	}
}

// Item is one stock-keeping row.
type Item struct {
	ID           int64     `json:"id" db:"id"`
	SKU          string    `json:"sku" db:"sku"`
	Name         string    `json:"name" db:"name"`
	Category     Category  `json:"category" db:"category"`
	Unit         Unit      `json:"unit" db:"unit"`
	Quantity     float64   `json:"quantity" db:"quantity"`
	MinThreshold float64   `json:"min_threshold" db:"min_threshold"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// LowStock reports whether the quantity has fallen to or below the reorder
// threshold.
func (i Item) LowStock() bool {
	return i.Quantity <= i.MinThreshold
}

// ItemView adds the derived low-stock flag to the API payload.
type ItemView struct {
	Item
	LowStock bool `json:"low_stock"`
}

// CreateItemRequest registers a stock item.
type CreateItemRequest struct {
	SKU          string   `json:"sku" validate:"required,max=50"`
	Name         string   `json:"name" validate:"required,max=200"`
	Category     Category `json:"category" validate:"required,oneof=raw_material finished_product"`
	Unit         Unit     `json:"unit" validate:"required,oneof=kg litre piece carton"`
	Quantity     float64  `json:"quantity" validate:"gte=0"`
	MinThreshold float64  `json:"min_threshold" validate:"gte=0"`
}

// AdjustQuantityRequest moves stock in or out by a signed delta.
type AdjustQuantityRequest struct {
	Delta  float64 `json:"delta" validate:"required"`
	Reason string  `json:"reason" validate:"required,max=500"`
}

// ListItemsRequest filters the inventory listing.
type ListItemsRequest struct {
	Category Category
	Search   string
	LowOnly  bool
	Page     int
	PerPage  int
}
