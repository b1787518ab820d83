package identity

import (
	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Actor is the request-scoped identity of the user invoking a core operation.
// It is resolved once at the authorization boundary and passed by value;
// its capability set never changes for the lifetime of a request.
type Actor struct {
	UserID     uuid.UUID
	BusinessID uuid.UUID
	ShopID     *uuid.UUID
	Role       Role

	capabilities map[Capability]struct{}
}

// NewActor resolves the role's capabilities plus any individually granted extras
func NewActor(userID, businessID uuid.UUID, shopID *uuid.UUID, role Role, grants ...Capability) (Actor, error) {
	if userID == uuid.Nil {
		return Actor{}, shared.NewDomainError("INVALID_ACTOR", "Actor user ID is required")
	}
	if businessID == uuid.Nil {
		return Actor{}, shared.NewDomainError("INVALID_ACTOR", "Actor business ID is required")
	}
	if !role.IsValid() {
		return Actor{}, shared.NewDomainError("INVALID_ROLE", "Unknown role: "+string(role))
	}
	if role == RoleShopWorker && shopID == nil {
		return Actor{}, shared.NewDomainError("INVALID_ACTOR", "Shop workers must be assigned to a shop")
	}

	caps := make(map[Capability]struct{}, len(roleCapabilities[role])+len(grants))
	for _, c := range roleCapabilities[role] {
		caps[c] = struct{}{}
	}
	for _, c := range grants {
		caps[c] = struct{}{}
	}

	return Actor{
		UserID:       userID,
		BusinessID:   businessID,
		ShopID:       shopID,
		Role:         role,
		capabilities: caps,
	}, nil
}

// Can reports whether the actor holds capability c
func (a Actor) Can(c Capability) bool {
	_, ok := a.capabilities[c]
	return ok
}

// Require returns a Forbidden error when the actor lacks capability c
func (a Actor) Require(c Capability) error {
	if a.Can(c) {
		return nil
	}
	return shared.NewKindError(shared.KindForbidden, "FORBIDDEN", "Missing permission "+string(c)).
		WithDetail("capability", string(c))
}

// CanOperateShop reports whether the actor may act on shopID
func (a Actor) CanOperateShop(shopID uuid.UUID) bool {
	if a.Role.SpansAllShops() {
		return true
	}
	return a.ShopID != nil && *a.ShopID == shopID
}

// RequireShop returns a Forbidden error when the actor may not act on shopID
func (a Actor) RequireShop(shopID uuid.UUID) error {
	if a.CanOperateShop(shopID) {
		return nil
	}
	return shared.NewKindError(shared.KindForbidden, "SHOP_FORBIDDEN", "Not allowed to operate on this shop").
		WithDetail("shop_id", shopID.String())
}

// IsZero reports whether the actor was never resolved
func (a Actor) IsZero() bool {
	return a.UserID == uuid.Nil
}
