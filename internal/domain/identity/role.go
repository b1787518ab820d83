package identity

import (
	"slices"
	"strings"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Role is the closed set of roles a user can hold within a business
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleBusinessOwner Role = "business_owner"
	RoleShopWorker    Role = "shop_worker"
)

// AllRoles lists every known role
var AllRoles = []Role{RoleAdmin, RoleBusinessOwner, RoleShopWorker}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return slices.Contains(AllRoles, r)
}

// ParseRole parses a role name; unknown names are rejected rather than defaulted
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Unknown role: "+s)
	}
	return r, nil
}

// Capability is a single permitted action in resource:action form
type Capability string

const (
	CapInventoryView      Capability = "inventory:view"
	CapInventoryRestock   Capability = "inventory:restock"
	CapInventoryAllocate  Capability = "inventory:allocate"
	CapInventoryReclaim   Capability = "inventory:reclaim"
	CapInventoryReceive   Capability = "inventory:receive"
	CapInventoryConfigure Capability = "inventory:configure"

	CapTransferRequest  Capability = "transfer:request"
	CapTransferApprove  Capability = "transfer:approve"
	CapTransferDispatch Capability = "transfer:dispatch"
	CapTransferComplete Capability = "transfer:complete"
	CapTransferView     Capability = "transfer:view"

	CapBillCreate    Capability = "bill:create"
	CapBillCancel    Capability = "bill:cancel"
	CapBillView      Capability = "bill:view"
	CapPaymentRecord Capability = "payment:record"

	CapSaleRecord Capability = "sale:record"
	CapSaleReturn Capability = "sale:return"
	CapSaleView   Capability = "sale:view"
)

var ownerCapabilities = []Capability{
	CapInventoryView, CapInventoryRestock, CapInventoryAllocate, CapInventoryReclaim,
	CapInventoryReceive, CapInventoryConfigure,
	CapTransferRequest, CapTransferApprove, CapTransferDispatch, CapTransferComplete, CapTransferView,
	CapBillCreate, CapBillCancel, CapBillView, CapPaymentRecord,
	CapSaleRecord, CapSaleReturn, CapSaleView,
}

var workerCapabilities = []Capability{
	CapInventoryView, CapInventoryRestock,
	CapTransferRequest, CapTransferDispatch, CapTransferView,
	CapBillCreate, CapBillView, CapPaymentRecord,
	CapSaleRecord, CapSaleView,
}

// roleCapabilities is the capability lookup table for each role
var roleCapabilities = map[Role][]Capability{
	RoleAdmin:         ownerCapabilities,
	RoleBusinessOwner: ownerCapabilities,
	RoleShopWorker:    workerCapabilities,
}

// Capabilities returns a copy of the capabilities granted to the role
func (r Role) Capabilities() []Capability {
	return slices.Clone(roleCapabilities[r])
}

// SpansAllShops reports whether the role may act on every shop of its business
func (r Role) SpansAllShops() bool {
	return r == RoleAdmin || r == RoleBusinessOwner
}
