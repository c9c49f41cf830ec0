package billing

import (
	"context"

	"github.com/google/uuid"
)

// Capability names an operation a user may perform on a property.
type Capability string

const (
	CapViewBilling   Capability = "billing:view"
	CapManageBilling Capability = "billing:manage"
	CapRecordPayment Capability = "billing:payment"
	CapReconcile     Capability = "billing:reconcile"
)

// Authorizer answers whether a user holds a capability on a property. The
// identity system lives outside this module; handlers resolve the user from
// the JWT and the services check the capability here.
type Authorizer interface {
	Authorize(ctx context.Context, userID, propertyID uuid.UUID, capability Capability) error
}
