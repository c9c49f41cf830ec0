package auth

import (
	"context"

	"github.com/google/uuid"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// ClaimsAuthorizer authorizes billing operations from the JWT claims the
// auth middleware put on the context. The token is property scoped, so a
// capability check is a pure claims lookup with no database round trip.
type ClaimsAuthorizer struct{}

// NewClaimsAuthorizer creates a ClaimsAuthorizer
func NewClaimsAuthorizer() *ClaimsAuthorizer {
	return &ClaimsAuthorizer{}
}

// Authorize checks that the context's claims belong to the given user,
// cover the given property and carry the capability
func (a *ClaimsAuthorizer) Authorize(ctx context.Context, userID, propertyID uuid.UUID, capability appbilling.Capability) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return shared.ErrUnauthorized
	}
	if claims.UserID != userID.String() {
		return shared.ErrForbidden
	}
	if propertyID != uuid.Nil && claims.PropertyID != propertyID.String() {
		return shared.ErrForbidden
	}
	if !claims.HasCapability(string(capability)) {
		return shared.ErrForbidden
	}
	return nil
}

// Ensure ClaimsAuthorizer implements Authorizer
var _ appbilling.Authorizer = (*ClaimsAuthorizer)(nil)
