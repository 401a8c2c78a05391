package composition

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
	"build-a-bite/internal/rules"
)

// Repository defines composition persistence.
type Repository interface {
	Insert(ctx context.Context, composition *models.Composition) (int64, error)
	CompositionByID(ctx context.Context, id int64) (*models.Composition, error)
}

// Catalog resolves candidate component products.
type Catalog interface {
	ProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// Service builds and validates user compositions.
type Service struct {
	repo      Repository
	catalog   Catalog
	validator *rules.Validator
	logger    *logger.Logger
}

// NewService creates a composition service.
func NewService(repo Repository, catalog Catalog, validator *rules.Validator, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		validator: validator,
		logger:    log,
	}
}

// Create validates the candidate products against the rule table and persists
// the resulting composition. The composition is immutable afterwards.
func (s *Service) Create(ctx context.Context, userID int64, baseType models.BaseType, name string, productIDs []int64, priceOverride *decimal.Decimal, requestID string) (*models.Composition, error) {
	products, err := s.catalog.ProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = defaultName(baseType)
	}

	composition, err := s.validator.Validate(baseType, userID, name, products, priceOverride)
	if err != nil {
		s.logger.Debug("composition_rejected", "Composition failed validation", requestID, map[string]interface{}{
			"user_id":   userID,
			"base_type": string(baseType),
			"reason":    err.Error(),
		})
		return nil, err
	}

	id, err := s.repo.Insert(ctx, composition)
	if err != nil {
		return nil, fmt.Errorf("failed to persist composition: %w", err)
	}
	composition.ID = id

	s.logger.Info("composition_created", fmt.Sprintf("Composition %d created", id), requestID, map[string]interface{}{
		"composition_id": id,
		"user_id":        userID,
		"base_type":      string(baseType),
		"components":     len(products),
	})

	return composition, nil
}

// CompositionByID returns a composition with its components loaded.
func (s *Service) CompositionByID(ctx context.Context, id int64) (*models.Composition, error) {
	return s.repo.CompositionByID(ctx, id)
}

func defaultName(baseType models.BaseType) string {
	if baseType == models.BaseBurger {
		return "Custom Burger"
	}
	return "Custom Pizza"
}
