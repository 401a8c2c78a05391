package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BaseType is the kind of customizable item being built.
type BaseType string

const (
	BasePizza  BaseType = "pizza"
	BaseBurger BaseType = "burger"
)

// ParseBaseType converts a raw string into a known base type.
func ParseBaseType(s string) (BaseType, error) {
	switch BaseType(s) {
	case BasePizza, BaseBurger:
		return BaseType(s), nil
	default:
		return "", fmt.Errorf("unknown base type: %q", s)
	}
}

// Composition is a user-built item assembled from catalog products under one
// base type. The component list is immutable after creation.
type Composition struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	BaseType   BaseType  `json:"base_type" db:"base_type"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Components []Product `json:"components"`

	// PriceOverride, when set, takes precedence over the component sum.
	// Used by import and snapshot flows.
	PriceOverride *decimal.Decimal `json:"price_override,omitempty" db:"price_override"`
}

// Price returns the composition's current derived price: the explicit
// override when present, otherwise the sum of component prices. Rounding is
// the snapshot manager's job, not done here.
func (c *Composition) Price() decimal.Decimal {
	if c.PriceOverride != nil {
		return *c.PriceOverride
	}
	sum := decimal.Zero
	for _, p := range c.Components {
		sum = sum.Add(p.Price)
	}
	return sum
}
