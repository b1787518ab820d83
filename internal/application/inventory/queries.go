package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// GetShopInventory returns one shop inventory row visible to actor
func (l *StockLedger) GetShopInventory(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ShopInventoryResponse, error) {
	if err := actor.Require(identity.CapInventoryView); err != nil {
		return nil, err
	}
	var resp ShopInventoryResponse
	err := l.scope.Execute(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
		inv, err := l.loadInventory(ctx, repos, actor, id)
		if err != nil {
			return err
		}
		if err := actor.RequireShop(inv.ShopID); err != nil {
			return err
		}
		resp = ToShopInventoryResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListShopInventory lists rows of the actor's business. Shop workers only see
// their own shop whatever filter they pass.
func (l *StockLedger) ListShopInventory(ctx context.Context, actor identity.Actor, filter ShopInventoryListFilter) (shared.Paginated[ShopInventoryResponse], error) {
	if err := actor.Require(identity.CapInventoryView); err != nil {
		return shared.Paginated[ShopInventoryResponse]{}, err
	}
	if filter.Status != "" && !inventory.StockStatus(filter.Status).IsValid() {
		return shared.Paginated[ShopInventoryResponse]{}, shared.NewDomainError("INVALID_STATUS", "Unknown stock status: "+filter.Status)
	}
	df := filter.toDomain(actor.BusinessID)
	if !actor.Role.SpansAllShops() {
		df.ShopID = actor.ShopID
	}

	var page shared.Paginated[ShopInventoryResponse]
	err := l.scope.Execute(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
		rows, total, err := repos.ShopInventories().List(ctx, df)
		if err != nil {
			return err
		}
		items := make([]ShopInventoryResponse, 0, len(rows))
		for i := range rows {
			items = append(items, ToShopInventoryResponse(&rows[i]))
		}
		page = shared.NewPaginated(items, total, df.Page, df.PageSize)
		return nil
	})
	return page, err
}

// ListMovements lists the audit trail of the actor's business
func (l *StockLedger) ListMovements(ctx context.Context, actor identity.Actor, filter MovementListFilter) (shared.Paginated[StockMovementResponse], error) {
	if err := actor.Require(identity.CapInventoryView); err != nil {
		return shared.Paginated[StockMovementResponse]{}, err
	}
	df := inventory.StockMovementFilter{
		Filter:     shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize(),
		BusinessID: actor.BusinessID,
		ShopID:     filter.ShopID,
		ProductID:  filter.ProductID,
		Kind:       inventory.MovementKind(filter.Kind),
	}
	if df.Kind != "" && !df.Kind.IsValid() {
		return shared.Paginated[StockMovementResponse]{}, shared.NewDomainError("INVALID_KIND", "Unknown movement kind: "+filter.Kind)
	}
	if !actor.Role.SpansAllShops() {
		df.ShopID = actor.ShopID
	}

	var page shared.Paginated[StockMovementResponse]
	err := l.scope.Execute(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
		rows, total, err := repos.Movements().List(ctx, df)
		if err != nil {
			return err
		}
		items := make([]StockMovementResponse, 0, len(rows))
		for i := range rows {
			items = append(items, ToStockMovementResponse(&rows[i]))
		}
		page = shared.NewPaginated(items, total, df.Page, df.PageSize)
		return nil
	})
	return page, err
}
