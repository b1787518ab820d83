// Package inventory implements the stock ledger: the only code that changes
// shop inventory quantities and product business pools.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

const componentLedger = "stock_ledger"

// StockLedger applies quantity changes. Every decrement is a conditional
// update that only succeeds when enough stock is present, and every change
// appends a StockMovement in the same transaction.
//
// Operator-facing operations (Restock, AllocateFromBusinessPool,
// ReclaimToBusinessPool, ReceiveIntoBusinessPool, UpdateThresholds) check the
// actor's capabilities. Reserve, Release and MoveBetweenShops are primitives
// for the billing, sales and transfer services, which authorize the request
// themselves; the ledger only enforces business scoping for them.
type StockLedger struct {
	scope    TransactionScope
	logger   *zap.Logger
	recorder OperationRecorder
}

// NewStockLedger creates a new StockLedger
func NewStockLedger(scope TransactionScope, logger *zap.Logger) *StockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockLedger{
		scope:    scope,
		logger:   logger,
		recorder: NopRecorder,
	}
}

// WithRecorder sets the metrics recorder
func (l *StockLedger) WithRecorder(r OperationRecorder) *StockLedger {
	if r != nil {
		l.recorder = r
	}
	return l
}

// Restock adds quantity to a shop inventory row and records the restock
func (l *StockLedger) Restock(ctx context.Context, actor identity.Actor, shopInventoryID uuid.UUID, quantity int64, notes string) (*inventory.ShopInventory, error) {
	if err := actor.Require(identity.CapInventoryRestock); err != nil {
		return nil, err
	}
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	notes, err := inventory.NormalizeNotes(notes)
	if err != nil {
		return nil, err
	}

	var result *inventory.ShopInventory
	err = l.run(ctx, "restock", func(ctx context.Context, repos TransactionalRepositories) error {
		inv, err := l.loadInventory(ctx, repos, actor, shopInventoryID)
		if err != nil {
			return err
		}
		if err := actor.RequireShop(inv.ShopID); err != nil {
			return err
		}
		if err := repos.ShopInventories().Increment(ctx, inv.ID, quantity); err != nil {
			return err
		}
		if err := repos.ShopInventories().MarkRestocked(ctx, inv.ID, time.Now(), notes); err != nil {
			return err
		}
		after, err := repos.ShopInventories().FindByID(ctx, inv.ID)
		if err != nil {
			return err
		}
		if err := l.recordShopMovement(ctx, repos, actor, after, inventory.MovementRestock, quantity, inventory.ManualReference(), notes); err != nil {
			return err
		}
		result = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("shop inventory restocked",
		zap.String("shop_inventory_id", result.ID.String()),
		zap.Int64("quantity", quantity),
		zap.Int64("new_quantity", result.Quantity),
	)
	return result, nil
}

// Reserve takes quantity out of a shop's stock for a sale or bill. It fails
// with InsufficientStock, leaving the row untouched, when the shop holds less.
func (l *StockLedger) Reserve(ctx context.Context, actor identity.Actor, shopID, productID uuid.UUID, quantity int64, ref inventory.Reference) (*inventory.ShopInventory, error) {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	var result *inventory.ShopInventory
	err := l.run(ctx, "reserve", func(ctx context.Context, repos TransactionalRepositories) error {
		after, err := l.decrementShop(ctx, repos, actor, shopID, productID, quantity, inventory.MovementReserve, ref)
		if err != nil {
			return err
		}
		result = after
		return nil
	})
	if err != nil {
		l.logFailure("reserve failed", err,
			zap.String("shop_id", shopID.String()),
			zap.String("product_id", productID.String()),
			zap.Int64("quantity", quantity),
		)
		return nil, err
	}
	return result, nil
}

// Release puts quantity back into a shop's stock, creating the row if the
// product was never held there. It reverses a Reserve for a cancelled bill
// or a returned sale.
func (l *StockLedger) Release(ctx context.Context, actor identity.Actor, shopID, productID uuid.UUID, quantity int64, ref inventory.Reference) (*inventory.ShopInventory, error) {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	var result *inventory.ShopInventory
	err := l.run(ctx, "release", func(ctx context.Context, repos TransactionalRepositories) error {
		shop, product, err := l.loadShopAndProduct(ctx, repos, actor, shopID, productID)
		if err != nil {
			return err
		}
		after, err := l.incrementShop(ctx, repos, actor, shop, product, quantity, inventory.MovementRelease, ref, "")
		if err != nil {
			return err
		}
		result = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AllocateFromBusinessPool moves quantity from the product's unassigned pool
// into the shop, creating the shop's row with the product's thresholds when
// it does not exist yet.
func (l *StockLedger) AllocateFromBusinessPool(ctx context.Context, actor identity.Actor, productID, shopID uuid.UUID, quantity int64) (*inventory.ShopInventory, error) {
	if err := actor.Require(identity.CapInventoryAllocate); err != nil {
		return nil, err
	}
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	var result *inventory.ShopInventory
	err := l.run(ctx, "allocate", func(ctx context.Context, repos TransactionalRepositories) error {
		shop, product, err := l.loadShopAndProduct(ctx, repos, actor, shopID, productID)
		if err != nil {
			return err
		}
		applied, err := repos.Products().DecrementPoolIfAvailable(ctx, product.ID, quantity)
		if err != nil {
			return err
		}
		if !applied {
			current, err := repos.Products().FindByID(ctx, product.ID)
			if err != nil {
				return err
			}
			return shared.NewInsufficientUnassignedStockError(current.Label(), quantity, current.BusinessInventoryQuantity).
				WithDetail("product_id", product.ID.String())
		}
		if err := l.recordPoolMovement(ctx, repos, actor, product.ID, inventory.MovementPoolOut, -quantity, inventory.ManualReference()); err != nil {
			return err
		}
		after, err := l.incrementShop(ctx, repos, actor, shop, product, quantity, inventory.MovementAllocateIn, inventory.ManualReference(), "")
		if err != nil {
			return err
		}
		result = after
		return nil
	})
	if err != nil {
		l.logFailure("allocation failed", err,
			zap.String("product_id", productID.String()),
			zap.String("shop_id", shopID.String()),
			zap.Int64("quantity", quantity),
		)
		return nil, err
	}
	l.logger.Info("stock allocated from business pool",
		zap.String("product_id", productID.String()),
		zap.String("shop_id", shopID.String()),
		zap.Int64("quantity", quantity),
	)
	return result, nil
}

// ReclaimToBusinessPool moves quantity from the shop back into the product's
// unassigned pool. It fails with InsufficientStock when the shop holds less.
func (l *StockLedger) ReclaimToBusinessPool(ctx context.Context, actor identity.Actor, productID, shopID uuid.UUID, quantity int64) (*inventory.ShopInventory, error) {
	if err := actor.Require(identity.CapInventoryReclaim); err != nil {
		return nil, err
	}
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	var result *inventory.ShopInventory
	err := l.run(ctx, "reclaim", func(ctx context.Context, repos TransactionalRepositories) error {
		after, err := l.decrementShop(ctx, repos, actor, shopID, productID, quantity, inventory.MovementReclaimOut, inventory.ManualReference())
		if err != nil {
			return err
		}
		if err := repos.Products().IncrementPool(ctx, productID, quantity); err != nil {
			return err
		}
		if err := l.recordPoolMovement(ctx, repos, actor, productID, inventory.MovementPoolIn, quantity, inventory.ManualReference()); err != nil {
			return err
		}
		result = after
		return nil
	})
	if err != nil {
		l.logFailure("reclaim failed", err,
			zap.String("product_id", productID.String()),
			zap.String("shop_id", shopID.String()),
			zap.Int64("quantity", quantity),
		)
		return nil, err
	}
	l.logger.Info("stock reclaimed to business pool",
		zap.String("product_id", productID.String()),
		zap.String("shop_id", shopID.String()),
		zap.Int64("quantity", quantity),
	)
	return result, nil
}

// MoveBetweenShops decrements the source shop and increments (or creates)
// the destination row in one step. Transfer completion is its only caller.
func (l *StockLedger) MoveBetweenShops(ctx context.Context, actor identity.Actor, productID, fromShopID, toShopID uuid.UUID, quantity int64, ref inventory.Reference) (from, to *inventory.ShopInventory, err error) {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return nil, nil, err
	}
	if fromShopID == toShopID {
		return nil, nil, shared.NewDomainError("SAME_SHOP_TRANSFER", "Cannot transfer to the same shop")
	}
	err = l.run(ctx, "move", func(ctx context.Context, repos TransactionalRepositories) error {
		toShop, product, err := l.loadShopAndProduct(ctx, repos, actor, toShopID, productID)
		if err != nil {
			return err
		}
		src, err := l.decrementShop(ctx, repos, actor, fromShopID, productID, quantity, inventory.MovementTransferOut, ref)
		if err != nil {
			return err
		}
		dst, err := l.incrementShop(ctx, repos, actor, toShop, product, quantity, inventory.MovementTransferIn, ref, "")
		if err != nil {
			return err
		}
		from, to = src, dst
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// ReceiveIntoBusinessPool adds newly received stock to the product's unassigned pool
func (l *StockLedger) ReceiveIntoBusinessPool(ctx context.Context, actor identity.Actor, productID uuid.UUID, quantity int64, notes string) (*catalog.Product, error) {
	if err := actor.Require(identity.CapInventoryReceive); err != nil {
		return nil, err
	}
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	notes, err := inventory.NormalizeNotes(notes)
	if err != nil {
		return nil, err
	}

	var result *catalog.Product
	err = l.run(ctx, "receive", func(ctx context.Context, repos TransactionalRepositories) error {
		product, err := l.loadProduct(ctx, repos, actor, productID)
		if err != nil {
			return err
		}
		if err := repos.Products().IncrementPool(ctx, product.ID, quantity); err != nil {
			return err
		}
		after, err := repos.Products().FindByID(ctx, product.ID)
		if err != nil {
			return err
		}
		m, err := inventory.NewStockMovement(after.BusinessID, after.ID, nil, inventory.MovementReceive,
			quantity, after.BusinessInventoryQuantity, inventory.ManualReference(), &actor.UserID, notes)
		if err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, m); err != nil {
			return err
		}
		result = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("stock received into business pool",
		zap.String("product_id", productID.String()),
		zap.Int64("quantity", quantity),
		zap.Int64("pool", result.BusinessInventoryQuantity),
	)
	return result, nil
}

// UpdateThresholds replaces a shop row's min / max / reorder levels
func (l *StockLedger) UpdateThresholds(ctx context.Context, actor identity.Actor, shopInventoryID uuid.UUID, t catalog.StockThresholds) (*inventory.ShopInventory, error) {
	if err := actor.Require(identity.CapInventoryConfigure); err != nil {
		return nil, err
	}
	var result *inventory.ShopInventory
	err := l.run(ctx, "update_thresholds", func(ctx context.Context, repos TransactionalRepositories) error {
		inv, err := l.loadInventory(ctx, repos, actor, shopInventoryID)
		if err != nil {
			return err
		}
		if err := actor.RequireShop(inv.ShopID); err != nil {
			return err
		}
		if err := inv.UpdateThresholds(t); err != nil {
			return err
		}
		if err := repos.ShopInventories().UpdateThresholds(ctx, inv); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// run executes fn in the ledger's scope and records the outcome
func (l *StockLedger) run(ctx context.Context, operation string, fn func(ctx context.Context, repos TransactionalRepositories) error) error {
	start := time.Now()
	err := l.scope.Execute(ctx, fn)
	l.recorder.ObserveOperation(componentLedger, operation, Outcome(err), time.Since(start))
	return err
}

// decrementShop applies the conditional decrement and appends its movement.
// A missing row counts as zero available.
func (l *StockLedger) decrementShop(
	ctx context.Context,
	repos TransactionalRepositories,
	actor identity.Actor,
	shopID, productID uuid.UUID,
	quantity int64,
	kind inventory.MovementKind,
	ref inventory.Reference,
) (*inventory.ShopInventory, error) {
	shop, product, err := l.loadShopAndProduct(ctx, repos, actor, shopID, productID)
	if err != nil {
		return nil, err
	}
	inv, err := repos.ShopInventories().FindByShopAndProduct(ctx, shop.ID, product.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, insufficientAt(product, shop, quantity, 0)
		}
		return nil, err
	}
	applied, err := repos.ShopInventories().DecrementIfAvailable(ctx, inv.ID, quantity)
	if err != nil {
		return nil, err
	}
	after, err := repos.ShopInventories().FindByID(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, insufficientAt(product, shop, quantity, after.Quantity)
	}
	if err := l.recordShopMovement(ctx, repos, actor, after, kind, -quantity, ref, ""); err != nil {
		return nil, err
	}
	before := after.Quantity + quantity
	if after.NeedsReorder() && before > after.Thresholds.ReorderPoint {
		repos.AddEvents(inventory.NewStockBelowReorderPointEvent(after))
	}
	return after, nil
}

// incrementShop adds quantity to the (shop, product) row, creating it first if needed
func (l *StockLedger) incrementShop(
	ctx context.Context,
	repos TransactionalRepositories,
	actor identity.Actor,
	shop *catalog.Shop,
	product *catalog.Product,
	quantity int64,
	kind inventory.MovementKind,
	ref inventory.Reference,
	notes string,
) (*inventory.ShopInventory, error) {
	fresh, err := inventory.NewShopInventory(shop, product)
	if err != nil {
		return nil, err
	}
	inv, _, err := repos.ShopInventories().Create(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if err := repos.ShopInventories().Increment(ctx, inv.ID, quantity); err != nil {
		return nil, err
	}
	after, err := repos.ShopInventories().FindByID(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if err := l.recordShopMovement(ctx, repos, actor, after, kind, quantity, ref, notes); err != nil {
		return nil, err
	}
	return after, nil
}

func (l *StockLedger) recordShopMovement(
	ctx context.Context,
	repos TransactionalRepositories,
	actor identity.Actor,
	inv *inventory.ShopInventory,
	kind inventory.MovementKind,
	delta int64,
	ref inventory.Reference,
	notes string,
) error {
	shopID := inv.ShopID
	m, err := inventory.NewStockMovement(inv.BusinessID, inv.ProductID, &shopID, kind, delta, inv.Quantity, ref, actorRef(actor), notes)
	if err != nil {
		return err
	}
	return repos.Movements().Append(ctx, m)
}

func (l *StockLedger) recordPoolMovement(
	ctx context.Context,
	repos TransactionalRepositories,
	actor identity.Actor,
	productID uuid.UUID,
	kind inventory.MovementKind,
	delta int64,
	ref inventory.Reference,
) error {
	product, err := repos.Products().FindByID(ctx, productID)
	if err != nil {
		return err
	}
	m, err := inventory.NewStockMovement(product.BusinessID, product.ID, nil, kind, delta, product.BusinessInventoryQuantity, ref, actorRef(actor), "")
	if err != nil {
		return err
	}
	return repos.Movements().Append(ctx, m)
}

func (l *StockLedger) loadInventory(ctx context.Context, repos TransactionalRepositories, actor identity.Actor, id uuid.UUID) (*inventory.ShopInventory, error) {
	inv, err := repos.ShopInventories().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.BelongsTo(actor.BusinessID) {
		return nil, shared.NewNotFoundError("shop inventory")
	}
	return inv, nil
}

func (l *StockLedger) loadProduct(ctx context.Context, repos TransactionalRepositories, actor identity.Actor, id uuid.UUID) (*catalog.Product, error) {
	product, err := repos.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.BelongsTo(actor.BusinessID) {
		return nil, shared.NewNotFoundError("product")
	}
	return product, nil
}

func (l *StockLedger) loadShopAndProduct(ctx context.Context, repos TransactionalRepositories, actor identity.Actor, shopID, productID uuid.UUID) (*catalog.Shop, *catalog.Product, error) {
	shop, err := repos.Shops().FindByID(ctx, shopID)
	if err != nil {
		return nil, nil, err
	}
	if !shop.BelongsTo(actor.BusinessID) {
		return nil, nil, shared.NewNotFoundError("shop")
	}
	product, err := l.loadProduct(ctx, repos, actor, productID)
	if err != nil {
		return nil, nil, err
	}
	if err := inventory.EnsureSameBusiness(shop, product); err != nil {
		return nil, nil, err
	}
	return shop, product, nil
}

func (l *StockLedger) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch shared.KindOf(err) {
	case shared.KindInsufficientStock, shared.KindInsufficientUnassignedStock:
		l.logger.Warn(msg, fields...)
	case shared.KindPersistence, "":
		l.logger.Error(msg, fields...)
	default:
		l.logger.Info(msg, fields...)
	}
}

func insufficientAt(product *catalog.Product, shop *catalog.Shop, requested, available int64) error {
	return shared.NewInsufficientStockError(product.Label(), requested, available).
		WithDetail("product_id", product.ID.String()).
		WithDetail("shop_id", shop.ID.String())
}

func actorRef(actor identity.Actor) *uuid.UUID {
	if actor.IsZero() {
		return nil
	}
	id := actor.UserID
	return &id
}
