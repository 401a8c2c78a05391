// Package rules holds the category rule table and the composition validator.
package rules

import "build-a-bite/internal/models"

// Cardinality bounds, kept as named constants because the limits are policy,
// not structure.
const (
	maxPizzaToppings  = 5
	maxBurgerPatties  = 3
	maxBurgerSauces   = 2
	maxBurgerToppings = 5
	maxDrinks         = 1
)

// Bound is an inclusive (min, max) cardinality pair for one category.
type Bound struct {
	Min int
	Max int
}

// BaseRules defines, for one base type, the closed set of admissible
// categories and explicit bounds for the categories that have them. A
// category present in Allowed but absent from Bounds is unbounded beyond
// set membership.
type BaseRules struct {
	Allowed map[models.Category]bool
	Bounds  map[models.Category]Bound
}

// Table maps each base type to its rules. Built once at startup and read-only
// afterwards.
type Table struct {
	byBase map[models.BaseType]BaseRules

	// drinkBound applies to every base type, independently of the per-base
	// tables.
	drinkBound Bound
}

// DefaultTable returns the production rule set.
func DefaultTable() *Table {
	return &Table{
		byBase: map[models.BaseType]BaseRules{
			models.BasePizza: {
				Allowed: map[models.Category]bool{
					models.CategoryCrustType: true,
					models.CategorySize:      true,
					models.CategorySauce:     true,
					models.CategoryTopping:   true,
					models.CategorySide:      true,
					models.CategoryDrink:     true,
				},
				Bounds: map[models.Category]Bound{
					models.CategoryCrustType: {Min: 1, Max: 1},
					models.CategorySize:      {Min: 1, Max: 1},
					models.CategoryTopping:   {Min: 0, Max: maxPizzaToppings},
				},
			},
			models.BaseBurger: {
				Allowed: map[models.Category]bool{
					models.CategoryBun:           true,
					models.CategoryPatty:         true,
					models.CategoryCheese:        true,
					models.CategoryBurgerSauce:   true,
					models.CategoryBurgerTopping: true,
					models.CategorySide:          true,
					models.CategoryDrink:         true,
				},
				Bounds: map[models.Category]Bound{
					models.CategoryBun:           {Min: 1, Max: 1},
					models.CategoryPatty:         {Min: 0, Max: maxBurgerPatties},
					models.CategoryBurgerSauce:   {Min: 0, Max: maxBurgerSauces},
					models.CategoryBurgerTopping: {Min: 0, Max: maxBurgerToppings},
				},
			},
		},
		drinkBound: Bound{Min: 0, Max: maxDrinks},
	}
}

// ForBase returns the rules for one base type.
func (t *Table) ForBase(base models.BaseType) (BaseRules, bool) {
	r, ok := t.byBase[base]
	return r, ok
}

// DrinkBound returns the cross-cutting drink cardinality.
func (t *Table) DrinkBound() Bound {
	return t.drinkBound
}
