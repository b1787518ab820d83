package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// MovementKind identifies which ledger operation produced a movement
type MovementKind string

const (
	MovementRestock     MovementKind = "restock"
	MovementReserve     MovementKind = "reserve"
	MovementRelease     MovementKind = "release"
	MovementAllocateIn  MovementKind = "allocate_in"
	MovementReclaimOut  MovementKind = "reclaim_out"
	MovementPoolOut     MovementKind = "pool_out"
	MovementPoolIn      MovementKind = "pool_in"
	MovementReceive     MovementKind = "receive"
	MovementTransferOut MovementKind = "transfer_out"
	MovementTransferIn  MovementKind = "transfer_in"
)

// IsValid checks if the kind is known
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementRestock, MovementReserve, MovementRelease, MovementAllocateIn, MovementReclaimOut,
		MovementPoolOut, MovementPoolIn, MovementReceive, MovementTransferOut, MovementTransferIn:
		return true
	}
	return false
}

// Reference types attached to movements
const (
	ReferenceBill     = "bill"
	ReferenceSale     = "sale"
	ReferenceTransfer = "transfer"
	ReferenceManual   = "manual"
)

// Reference points a movement at the document that caused it
type Reference struct {
	Type string
	ID   *uuid.UUID
}

// ManualReference is used for operator-initiated ledger calls
func ManualReference() Reference {
	return Reference{Type: ReferenceManual}
}

// RefTo builds a reference to a document
func RefTo(refType string, id uuid.UUID) Reference {
	return Reference{Type: refType, ID: &id}
}

// StockMovement is an append-only audit record of one quantity change.
// ShopID is nil for changes to a product's business pool.
type StockMovement struct {
	ID             uuid.UUID
	BusinessID     uuid.UUID
	ProductID      uuid.UUID
	ShopID         *uuid.UUID
	Kind           MovementKind
	Quantity       int64
	QuantityBefore int64
	QuantityAfter  int64
	Reference      Reference
	ActorID        *uuid.UUID
	Notes          string
	CreatedAt      time.Time
}

// NewStockMovement records a change that left the position at quantityAfter.
// delta is signed: positive for stock in, negative for stock out.
func NewStockMovement(
	businessID, productID uuid.UUID,
	shopID *uuid.UUID,
	kind MovementKind,
	delta, quantityAfter int64,
	ref Reference,
	actorID *uuid.UUID,
	notes string,
) (*StockMovement, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_KIND", "Unknown movement kind: "+string(kind))
	}
	if delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if quantityAfter < 0 {
		return nil, shared.NewDomainError("NEGATIVE_STOCK", "Movement cannot leave a negative quantity")
	}
	if ref.Type == "" {
		ref = ManualReference()
	}
	return &StockMovement{
		ID:             uuid.New(),
		BusinessID:     businessID,
		ProductID:      productID,
		ShopID:         shopID,
		Kind:           kind,
		Quantity:       delta,
		QuantityBefore: quantityAfter - delta,
		QuantityAfter:  quantityAfter,
		Reference:      ref,
		ActorID:        actorID,
		Notes:          notes,
		CreatedAt:      shared.Now(),
	}, nil
}

// IsInbound reports whether the movement added stock
func (m *StockMovement) IsInbound() bool {
	return m.Quantity > 0
}
