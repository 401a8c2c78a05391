package catalog

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"build-a-bite/internal/models"
)

// Repository defines the catalog reads this service needs.
type Repository interface {
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
	ProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// Service resolves catalog products for the rest of the core. Concurrent
// lookups of the same product are collapsed into one query.
type Service struct {
	repo Repository
	sfg  singleflight.Group
}

// NewService creates a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ProductByID returns the current catalog record for one product.
func (s *Service) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		return s.repo.ProductByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Product), nil
}

// ProductsByIDs resolves every id and returns a NotFoundError for the first
// id without a catalog row.
func (s *Service) ProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	products, err := s.repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// Preserve request order; the validator reports the first offender, so
	// order matters.
	resolved := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, &models.NotFoundError{Entity: "product", ID: id}
		}
		resolved = append(resolved, p)
	}

	return resolved, nil
}
