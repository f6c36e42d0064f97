package auth

import (
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	"github.com/google/uuid"
)

// Capability names an action a workflow checks before mutating shared state.
type Capability string

const (
	CapManageOrders   Capability = "manage_orders"
	CapManageCatalog  Capability = "manage_catalog"
	CapManageContent  Capability = "manage_content"
	CapReadEnquiries  Capability = "read_enquiries"
	CapVerifyPayments Capability = "verify_payments"
)

var roleCapabilities = map[enums.UserRole][]Capability{
	enums.UserRoleAdmin: {
		CapManageOrders,
		CapManageCatalog,
		CapManageContent,
		CapReadEnquiries,
		CapVerifyPayments,
	},
	enums.UserRoleCustomer: {
		CapVerifyPayments,
	},
}

// Actor is the authenticated caller handed to workflow functions.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// NewActor builds an actor from verified token claims.
func NewActor(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}
}

// IsAuthenticated reports whether the actor carries a user id.
func (a Actor) IsAuthenticated() bool {
	return a.UserID != uuid.Nil
}

// Can reports whether the actor's role grants the capability.
func (a Actor) Can(capability Capability) bool {
	if !a.IsAuthenticated() {
		return false
	}
	for _, c := range roleCapabilities[a.Role] {
		if c == capability {
			return true
		}
	}
	return false
}

// Owns reports whether the actor is the given user.
func (a Actor) Owns(userID uuid.UUID) bool {
	return a.IsAuthenticated() && a.UserID == userID
}
