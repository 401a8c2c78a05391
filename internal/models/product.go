package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Category classifies the role a product plays inside a composition.
type Category string

const (
	CategoryCrustType     Category = "crust_type"
	CategorySize          Category = "size"
	CategorySauce         Category = "sauce"
	CategoryTopping       Category = "topping"
	CategoryBun           Category = "bun"
	CategoryPatty         Category = "patty"
	CategoryCheese        Category = "cheese"
	CategoryBurgerSauce   Category = "burger_sauce"
	CategoryBurgerTopping Category = "burger_topping"
	CategorySide          Category = "side"
	CategoryDrink         Category = "drink"
)

// ParseCategory converts a raw string into a known category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryCrustType, CategorySize, CategorySauce, CategoryTopping,
		CategoryBun, CategoryPatty, CategoryCheese, CategoryBurgerSauce,
		CategoryBurgerTopping, CategorySide, CategoryDrink:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown product category: %q", s)
	}
}

// Product is a catalog item. The catalog owns it; this core only reads it.
type Product struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Category  Category        `json:"category" db:"category"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Available bool            `json:"available" db:"available"`
}
