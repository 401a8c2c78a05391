package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"build-a-bite/internal/models"
)

// boundOrder fixes the order bounds are checked in, so the same bad input
// always yields the same rejection.
var boundOrder = []models.Category{
	models.CategoryCrustType,
	models.CategorySize,
	models.CategoryBun,
	models.CategoryPatty,
	models.CategoryBurgerSauce,
	models.CategoryTopping,
	models.CategoryBurgerTopping,
}

// Validator checks candidate component sets against the rule table.
type Validator struct {
	table *Table
}

// NewValidator creates a validator over the given table.
func NewValidator(table *Table) *Validator {
	return &Validator{table: table}
}

// Validate enforces the rule table over the candidate products and, when they
// pass, builds a Composition referencing all of them. Persisting the result is
// the caller's responsibility. Every rejection is a *models.ValidationError.
func (v *Validator) Validate(baseType models.BaseType, userID int64, name string, products []models.Product, priceOverride *decimal.Decimal) (*models.Composition, error) {
	if len(products) == 0 {
		return nil, &models.ValidationError{
			Code:    models.ValidationEmptySelection,
			Field:   "products",
			Message: "at least one component is required",
		}
	}

	base, ok := v.table.ForBase(baseType)
	if !ok {
		return nil, &models.ValidationError{
			Code:    models.ValidationCategoryNotAllowed,
			Field:   "base_type",
			Message: fmt.Sprintf("no rules defined for base type %q", baseType),
		}
	}

	// Membership first: any category outside the base's closed set rejects
	// the whole selection, regardless of counts. Checked in product order so
	// the first offender is reported.
	counts := make(map[models.Category]int, len(products))
	for _, p := range products {
		if !base.Allowed[p.Category] {
			return nil, &models.ValidationError{
				Code:    models.ValidationCategoryNotAllowed,
				Field:   string(p.Category),
				Message: fmt.Sprintf("category %s (%s) is not allowed for %s", p.Category, p.Name, baseType),
			}
		}
		counts[p.Category]++
	}

	for _, category := range boundOrder {
		bound, ok := base.Bounds[category]
		if !ok {
			continue
		}
		if err := checkBound(category, counts[category], bound); err != nil {
			return nil, err
		}
	}

	// Drink cap applies to both base types.
	if err := checkBound(models.CategoryDrink, counts[models.CategoryDrink], v.table.DrinkBound()); err != nil {
		return nil, err
	}

	return &models.Composition{
		Name:          name,
		BaseType:      baseType,
		UserID:        userID,
		Components:    products,
		PriceOverride: priceOverride,
	}, nil
}

func checkBound(category models.Category, observed int, bound Bound) error {
	if observed < bound.Min || observed > bound.Max {
		return &models.ValidationError{
			Code:    models.ValidationCardinalityViolation,
			Field:   string(category),
			Message: fmt.Sprintf("category %s has %d components, expected %d..%d", category, observed, bound.Min, bound.Max),
		}
	}
	return nil
}
