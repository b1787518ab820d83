// Package transfer implements the inter-shop stock transfer workflow.
package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	appinv "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

const component = "transfer"

// Service drives StockTransfer through its state machine. Only completion
// moves stock; it does so through the stock ledger inside the same
// transaction as the status change.
type Service struct {
	scope    appinv.TransactionScope
	ledger   *appinv.StockLedger
	logger   *zap.Logger
	recorder appinv.OperationRecorder
}

// NewService creates a new transfer Service
func NewService(scope appinv.TransactionScope, ledger *appinv.StockLedger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scope:    scope,
		ledger:   ledger,
		logger:   logger,
		recorder: appinv.NopRecorder,
	}
}

// WithRecorder sets the metrics recorder
func (s *Service) WithRecorder(r appinv.OperationRecorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Create requests a transfer. The source stock check is advisory; stock is
// not held until completion.
func (s *Service) Create(ctx context.Context, actor identity.Actor, req CreateTransferRequest) (*TransferResponse, error) {
	if err := actor.Require(identity.CapTransferRequest); err != nil {
		return nil, err
	}
	if !actor.CanOperateShop(req.FromShopID) && !actor.CanOperateShop(req.ToShopID) {
		return nil, actor.RequireShop(req.FromShopID)
	}

	var resp TransferResponse
	err := s.run(ctx, "create", func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		product, err := repos.Products().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if !product.BelongsTo(actor.BusinessID) {
			return shared.NewNotFoundError("product")
		}
		shops, err := repos.Shops().FindByIDs(ctx, []uuid.UUID{req.FromShopID, req.ToShopID})
		if err != nil {
			return err
		}
		from, to := shops[req.FromShopID], shops[req.ToShopID]
		if from == nil || to == nil || !from.BelongsTo(actor.BusinessID) {
			return shared.NewNotFoundError("shop")
		}

		available := int64(0)
		inv, err := repos.ShopInventories().FindByShopAndProduct(ctx, from.ID, product.ID)
		switch {
		case err == nil:
			available = inv.Quantity
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		t, err := inventory.NewStockTransfer(product, from, to, req.Quantity, req.Reason, actor.UserID, available)
		if err != nil {
			return err
		}
		if err := repos.Transfers().Save(ctx, t); err != nil {
			return err
		}
		repos.AddEvents(t.PullDomainEvents()...)
		resp = ToTransferResponse(t)
		resp.Summary = t.Summary(product.Name, from.Name, to.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock transfer requested",
		zap.String("transfer_id", resp.ID.String()),
		zap.String("summary", resp.Summary),
	)
	return &resp, nil
}

// Approve re-checks source stock and approves a pending transfer
func (s *Service) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID) (*TransferResponse, error) {
	if err := actor.Require(identity.CapTransferApprove); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, "approve", id, func(ctx context.Context, repos appinv.TransactionalRepositories, t *inventory.StockTransfer) error {
		available := int64(0)
		inv, err := repos.ShopInventories().FindByShopAndProduct(ctx, t.FromShopID, t.ProductID)
		switch {
		case err == nil:
			available = inv.Quantity
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		return t.Approve(actor.UserID, available)
	})
}

// Dispatch marks an approved transfer as in transit
func (s *Service) Dispatch(ctx context.Context, actor identity.Actor, id uuid.UUID) (*TransferResponse, error) {
	if err := actor.Require(identity.CapTransferDispatch); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, "dispatch", id, func(_ context.Context, _ appinv.TransactionalRepositories, t *inventory.StockTransfer) error {
		if err := actor.RequireShop(t.FromShopID); err != nil {
			return err
		}
		return t.Dispatch()
	})
}

// Complete moves the stock and closes the transfer. When the source is short
// the whole unit of work rolls back and the transfer keeps its prior status.
func (s *Service) Complete(ctx context.Context, actor identity.Actor, id uuid.UUID) (*TransferResponse, error) {
	if err := actor.Require(identity.CapTransferComplete); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, "complete", id, func(ctx context.Context, _ appinv.TransactionalRepositories, t *inventory.StockTransfer) error {
		if err := actor.RequireShop(t.ToShopID); err != nil {
			return err
		}
		if !t.CanComplete() {
			// reports the invalid transition before any stock is touched
			return t.Complete()
		}
		_, _, err := s.ledger.MoveBetweenShops(ctx, actor, t.ProductID, t.FromShopID, t.ToShopID, t.Quantity,
			inventory.RefTo(inventory.ReferenceTransfer, t.ID))
		if err != nil {
			if errors.Is(err, shared.ErrInsufficientStock) {
				return t.CompletionFailed(err)
			}
			return err
		}
		return t.Complete()
	})
}

// Reject closes a pending transfer
func (s *Service) Reject(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*TransferResponse, error) {
	if err := actor.Require(identity.CapTransferApprove); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, "reject", id, func(_ context.Context, _ appinv.TransactionalRepositories, t *inventory.StockTransfer) error {
		return t.Reject(reason)
	})
}

// Cancel closes a pending or approved transfer. The initiator may always
// cancel; anyone else needs the approving capability.
func (s *Service) Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*TransferResponse, error) {
	return s.transition(ctx, actor, "cancel", id, func(_ context.Context, _ appinv.TransactionalRepositories, t *inventory.StockTransfer) error {
		if !t.CanBeCancelledBy(actor.UserID, actor.Can(identity.CapTransferApprove)) {
			return actor.Require(identity.CapTransferApprove)
		}
		return t.Cancel(reason)
	})
}

// BulkApprove approves each transfer in its own transaction. One failure
// does not stop the others; the combined error lists every failure.
func (s *Service) BulkApprove(ctx context.Context, actor identity.Actor, ids []uuid.UUID) (BulkApproveResult, error) {
	result := BulkApproveResult{Errors: make(map[uuid.UUID]string)}
	if err := actor.Require(identity.CapTransferApprove); err != nil {
		return result, err
	}
	var errs error
	for _, id := range ids {
		if _, err := s.Approve(ctx, actor, id); err != nil {
			result.Failed++
			result.Errors[id] = err.Error()
			errs = multierr.Append(errs, err)
			continue
		}
		result.Approved++
	}
	s.logger.Info("bulk approval finished",
		zap.Int("approved", result.Approved),
		zap.Int("failed", result.Failed),
	)
	return result, errs
}

// Get returns one transfer with its summary
func (s *Service) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*TransferResponse, error) {
	if err := actor.Require(identity.CapTransferView); err != nil {
		return nil, err
	}
	var resp TransferResponse
	err := s.scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		t, err := s.load(ctx, repos, actor, id, false)
		if err != nil {
			return err
		}
		if !actor.Role.SpansAllShops() && !t.Involves(*actor.ShopID) {
			return shared.NewNotFoundError("transfer")
		}
		items, err := s.withSummaries(ctx, repos, []inventory.StockTransfer{*t})
		if err != nil {
			return err
		}
		resp = items[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns transfers of the actor's business. Shop workers only see
// transfers involving their shop.
func (s *Service) List(ctx context.Context, actor identity.Actor, filter TransferListFilter) (shared.Paginated[TransferResponse], error) {
	if err := actor.Require(identity.CapTransferView); err != nil {
		return shared.Paginated[TransferResponse]{}, err
	}
	df := inventory.StockTransferFilter{
		Filter:     shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize(),
		BusinessID: actor.BusinessID,
		ShopID:     filter.ShopID,
		ProductID:  filter.ProductID,
		Status:     inventory.TransferStatus(filter.Status),
	}
	if df.Status != "" && !df.Status.IsValid() {
		return shared.Paginated[TransferResponse]{}, shared.NewDomainError("INVALID_STATUS", "Unknown transfer status: "+filter.Status)
	}
	if filter.SinceDays > 0 {
		since := time.Now().AddDate(0, 0, -filter.SinceDays)
		df.Since = &since
	}
	if !actor.Role.SpansAllShops() {
		df.ShopID = actor.ShopID
	}

	var page shared.Paginated[TransferResponse]
	err := s.scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		rows, total, err := repos.Transfers().List(ctx, df)
		if err != nil {
			return err
		}
		items, err := s.withSummaries(ctx, repos, rows)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(items, total, df.Page, df.PageSize)
		return nil
	})
	return page, err
}

// ListPending returns transfers awaiting approval
func (s *Service) ListPending(ctx context.Context, actor identity.Actor, filter TransferListFilter) (shared.Paginated[TransferResponse], error) {
	filter.Status = string(inventory.TransferStatusPending)
	return s.List(ctx, actor, filter)
}

type transitionFunc func(ctx context.Context, repos appinv.TransactionalRepositories, t *inventory.StockTransfer) error

// transition loads the transfer under a row lock, applies fn and saves it
// with an optimistic version check
func (s *Service) transition(ctx context.Context, actor identity.Actor, operation string, id uuid.UUID, fn transitionFunc) (*TransferResponse, error) {
	var resp TransferResponse
	err := s.run(ctx, operation, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		t, err := s.load(ctx, repos, actor, id, true)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, t); err != nil {
			return err
		}
		if err := repos.Transfers().SaveWithLock(ctx, t); err != nil {
			return err
		}
		repos.AddEvents(t.PullDomainEvents()...)
		resp = ToTransferResponse(t)
		return nil
	})
	if err != nil {
		s.logFailure(operation, id, err)
		return nil, err
	}
	s.logger.Info("stock transfer "+operation,
		zap.String("transfer_id", id.String()),
		zap.String("status", string(resp.Status)),
		zap.String("actor_id", actor.UserID.String()),
	)
	return &resp, nil
}

func (s *Service) load(ctx context.Context, repos appinv.TransactionalRepositories, actor identity.Actor, id uuid.UUID, forUpdate bool) (*inventory.StockTransfer, error) {
	var (
		t   *inventory.StockTransfer
		err error
	)
	if forUpdate {
		t, err = repos.Transfers().FindByIDForUpdate(ctx, id)
	} else {
		t, err = repos.Transfers().FindByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if !t.BelongsTo(actor.BusinessID) {
		return nil, shared.NewNotFoundError("transfer")
	}
	return t, nil
}

func (s *Service) withSummaries(ctx context.Context, repos appinv.TransactionalRepositories, rows []inventory.StockTransfer) ([]TransferResponse, error) {
	productIDs := make([]uuid.UUID, 0, len(rows))
	shopIDs := make([]uuid.UUID, 0, 2*len(rows))
	for _, t := range rows {
		productIDs = append(productIDs, t.ProductID)
		shopIDs = append(shopIDs, t.FromShopID, t.ToShopID)
	}
	products, err := repos.Products().FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	shops, err := repos.Shops().FindByIDs(ctx, shopIDs)
	if err != nil {
		return nil, err
	}
	items := make([]TransferResponse, 0, len(rows))
	for i := range rows {
		t := &rows[i]
		resp := ToTransferResponse(t)
		if p, from, to := products[t.ProductID], shops[t.FromShopID], shops[t.ToShopID]; p != nil && from != nil && to != nil {
			resp.Summary = t.Summary(p.Name, from.Name, to.Name)
		}
		items = append(items, resp)
	}
	return items, nil
}

func (s *Service) run(ctx context.Context, operation string, fn func(ctx context.Context, repos appinv.TransactionalRepositories) error) error {
	start := time.Now()
	err := s.scope.Execute(ctx, fn)
	s.recorder.ObserveOperation(component, operation, appinv.Outcome(err), time.Since(start))
	return err
}

func (s *Service) logFailure(operation string, id uuid.UUID, err error) {
	fields := []zap.Field{zap.String("operation", operation), zap.String("transfer_id", id.String()), zap.Error(err)}
	switch shared.KindOf(err) {
	case shared.KindPersistence, "":
		s.logger.Error("stock transfer operation failed", fields...)
	case shared.KindApprovalFailed, shared.KindCompletionFailed:
		s.logger.Warn("stock transfer operation failed", fields...)
	default:
		s.logger.Info("stock transfer operation rejected", fields...)
	}
}
