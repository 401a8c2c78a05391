package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"build-a-bite/internal/models"
)

// Authorizer charges a card. Implementations return an authorization code and
// whether the charge was approved; a declined charge is not an error.
type Authorizer interface {
	Authorize(ctx context.Context, card *models.Card, amount decimal.Decimal) (code string, approved bool, err error)
}

// LocalAuthorizer approves every charge. It stands in for a real payment
// gateway in development and test environments.
type LocalAuthorizer struct{}

// NewLocalAuthorizer creates the always-approving authorizer.
func NewLocalAuthorizer() *LocalAuthorizer {
	return &LocalAuthorizer{}
}

// Authorize approves the charge and returns a locally generated code.
func (a *LocalAuthorizer) Authorize(_ context.Context, _ *models.Card, _ decimal.Decimal) (string, bool, error) {
	return fmt.Sprintf("AUTH-LOCAL-%s", uuid.NewString()[:8]), true, nil
}
