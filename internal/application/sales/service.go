// Package sales records sales, either directly against shop stock or as
// the settlement of a bill.
package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appinv "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
)

const component = "sales"

// Service appends sales. There is no update: a direct sale is undone by a
// return, which puts the stock back and keeps the sale row.
type Service struct {
	scope    appinv.TransactionScope
	ledger   *appinv.StockLedger
	logger   *zap.Logger
	recorder appinv.OperationRecorder
}

// NewService creates a new sales Service
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

// Create appends a sale. The total is always derived from quantity and price.
func (s *Service) Create(ctx context.Context, actor identity.Actor, req CreateSaleRequest) (*SaleResponse, error) {
	if err := actor.Require(identity.CapSaleRecord); err != nil {
		return nil, err
	}
	if err := actor.RequireShop(req.ShopID); err != nil {
		return nil, err
	}
	var resp SaleResponse
	err := s.run(ctx, "create", func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		if err := s.checkShopAndProduct(ctx, repos, actor, req.ShopID, req.ProductID); err != nil {
			return err
		}
		in := sales.NewSaleInput{
			BusinessID: actor.BusinessID,
			ShopID:     req.ShopID,
			ProductID:  req.ProductID,
			UserID:     actor.UserID,
			BillID:     req.BillID,
			BillItemID: req.BillItemID,
			Quantity:   req.Quantity,
			UnitPrice:  req.UnitPrice,
		}
		if req.SaleDate != nil {
			in.SaleDate = *req.SaleDate
		}
		sale, err := sales.NewSale(in)
		if err != nil {
			return err
		}
		if err := repos.Sales().Create(ctx, sale); err != nil {
			return err
		}
		repos.AddEvents(sales.NewSaleRecordedEvent(sale))
		resp = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordDirectSale reserves stock and appends the sale in one transaction
func (s *Service) RecordDirectSale(ctx context.Context, actor identity.Actor, req DirectSaleRequest) (*SaleResponse, error) {
	if err := actor.Require(identity.CapSaleRecord); err != nil {
		return nil, err
	}
	if err := actor.RequireShop(req.ShopID); err != nil {
		return nil, err
	}
	var resp SaleResponse
	err := s.run(ctx, "direct_sale", func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		product, err := repos.Products().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if !product.BelongsTo(actor.BusinessID) {
			return shared.NewNotFoundError("product")
		}
		price := product.SellingPrice
		if req.UnitPrice != nil && !req.UnitPrice.IsZero() {
			price = *req.UnitPrice
		}
		sale, err := sales.NewSale(sales.NewSaleInput{
			BusinessID: actor.BusinessID,
			ShopID:     req.ShopID,
			ProductID:  product.ID,
			UserID:     actor.UserID,
			Quantity:   req.Quantity,
			UnitPrice:  price,
		})
		if err != nil {
			return err
		}
		if _, err := s.ledger.Reserve(ctx, actor, req.ShopID, product.ID, req.Quantity,
			inventory.RefTo(inventory.ReferenceSale, sale.ID)); err != nil {
			return err
		}
		if err := repos.Sales().Create(ctx, sale); err != nil {
			return err
		}
		repos.AddEvents(sales.NewSaleRecordedEvent(sale))
		resp = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		s.logger.Warn("direct sale failed",
			zap.String("shop_id", req.ShopID.String()),
			zap.String("product_id", req.ProductID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	s.logger.Info("direct sale recorded",
		zap.String("sale_id", resp.ID.String()),
		zap.Int64("quantity", resp.Quantity),
		zap.String("total", resp.TotalAmount.StringFixed(2)),
	)
	return &resp, nil
}

// ReturnDirectSale puts a direct sale's quantity back into the shop. The
// sale row is kept; a second return of the same sale is rejected.
func (s *Service) ReturnDirectSale(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*SaleResponse, error) {
	if err := actor.Require(identity.CapSaleReturn); err != nil {
		return nil, err
	}
	var resp SaleResponse
	err := s.run(ctx, "return", func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		sale, err := s.load(ctx, repos, actor, saleID)
		if err != nil {
			return err
		}
		if err := actor.RequireShop(sale.ShopID); err != nil {
			return err
		}
		if !sale.IsDirect() {
			return shared.NewInvalidTransitionError("sale", "billed", "return").
				WithDetail("sale_id", sale.ID.String())
		}
		ref := inventory.RefTo(inventory.ReferenceSale, sale.ID)
		returned, err := repos.Movements().ExistsForReference(ctx, inventory.MovementRelease, ref)
		if err != nil {
			return err
		}
		if returned {
			return shared.NewInvalidTransitionError("sale", "returned", "return").
				WithDetail("sale_id", sale.ID.String())
		}
		if _, err := s.ledger.Release(ctx, actor, sale.ShopID, sale.ProductID, sale.Quantity, ref); err != nil {
			return err
		}
		resp = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("direct sale returned", zap.String("sale_id", saleID.String()))
	return &resp, nil
}

// Get returns one sale
func (s *Service) Get(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*SaleResponse, error) {
	if err := actor.Require(identity.CapSaleView); err != nil {
		return nil, err
	}
	var resp SaleResponse
	err := s.scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		sale, err := s.load(ctx, repos, actor, saleID)
		if err != nil {
			return err
		}
		if !actor.CanOperateShop(sale.ShopID) {
			return shared.NewNotFoundError("sale")
		}
		resp = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List lists sales by shop and date range
func (s *Service) List(ctx context.Context, actor identity.Actor, filter SaleListFilter) (shared.Paginated[SaleResponse], error) {
	if err := actor.Require(identity.CapSaleView); err != nil {
		return shared.Paginated[SaleResponse]{}, err
	}
	df := sales.SaleFilter{
		Filter:     shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderBy: "sale_date"}.Normalize(),
		BusinessID: actor.BusinessID,
		ShopID:     filter.ShopID,
		ProductID:  filter.ProductID,
		BillID:     filter.BillID,
		From:       filter.From,
		To:         filter.To,
	}
	if !actor.Role.SpansAllShops() {
		df.ShopID = actor.ShopID
	}
	var page shared.Paginated[SaleResponse]
	err := s.scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		rows, total, err := repos.Sales().List(ctx, df)
		if err != nil {
			return err
		}
		items := make([]SaleResponse, 0, len(rows))
		for i := range rows {
			items = append(items, ToSaleResponse(&rows[i]))
		}
		page = shared.NewPaginated(items, total, df.Page, df.PageSize)
		return nil
	})
	return page, err
}

func (s *Service) load(ctx context.Context, repos appinv.TransactionalRepositories, actor identity.Actor, id uuid.UUID) (*sales.Sale, error) {
	sale, err := repos.Sales().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale.BusinessID != actor.BusinessID {
		return nil, shared.NewNotFoundError("sale")
	}
	return sale, nil
}

func (s *Service) checkShopAndProduct(ctx context.Context, repos appinv.TransactionalRepositories, actor identity.Actor, shopID, productID uuid.UUID) error {
	shop, err := repos.Shops().FindByID(ctx, shopID)
	if err != nil {
		return err
	}
	if !shop.BelongsTo(actor.BusinessID) {
		return shared.NewNotFoundError("shop")
	}
	product, err := repos.Products().FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.BelongsTo(actor.BusinessID) {
		return shared.NewNotFoundError("product")
	}
	return nil
}

func (s *Service) run(ctx context.Context, operation string, fn func(ctx context.Context, repos appinv.TransactionalRepositories) error) error {
	start := time.Now()
	err := s.scope.Execute(ctx, fn)
	s.recorder.ObserveOperation(component, operation, appinv.Outcome(err), time.Since(start))
	return err
}
