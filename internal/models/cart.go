package models

import (
	"github.com/shopspring/decimal"
)

// ItemRef points a cart or order line at the thing being bought. Exactly two
// implementations exist, so a line can never reference both a product and a
// composition, or neither.
type ItemRef interface {
	isItemRef()
}

// ProductRef references a plain catalog product.
type ProductRef struct {
	ProductID int64 `json:"product_id"`
}

// CompositionRef references a user-built composition.
type CompositionRef struct {
	CompositionID int64 `json:"composition_id"`
}

func (ProductRef) isItemRef()     {}
func (CompositionRef) isItemRef() {}

// CartLine is one row of a cart. UnitPrice is a snapshot taken when the line
// was created and is never re-derived from the catalog afterwards.
type CartLine struct {
	ID        int64           `json:"id" db:"id"`
	Ref       ItemRef         `json:"ref"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// Cart holds a user's pending lines. One active cart per user.
type Cart struct {
	ID     int64           `json:"id" db:"id"`
	UserID int64           `json:"user_id" db:"user_id"`
	Lines  []CartLine      `json:"lines"`
	Total  decimal.Decimal `json:"total" db:"total"`
}

// RecalculateTotal sets the total to the exact sum of line subtotals. Always
// a full sum, never an incremental adjustment.
func (c *Cart) RecalculateTotal() {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal)
	}
	c.Total = total
}

// FindLine returns the line with the given id, or nil.
func (c *Cart) FindLine(lineID int64) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}
