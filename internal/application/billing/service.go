// Package billing implements credit and cash bills, payment reconciliation
// and the conversion of settled bills into sales.
package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appinv "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/domain/billing"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

const component = "billing"

// Service creates bills, records payments and keeps bill status, sales and
// customer totals consistent with the persisted payment history.
type Service struct {
	scope    appinv.TransactionScope
	ledger   *appinv.StockLedger
	numbers  *billing.BillNumberGenerator
	logger   *zap.Logger
	recorder appinv.OperationRecorder
}

// NewService creates a new billing Service
func NewService(scope appinv.TransactionScope, ledger *appinv.StockLedger, numbers *billing.BillNumberGenerator, logger *zap.Logger) *Service {
	if numbers == nil {
		numbers = billing.NewBillNumberGenerator(billing.DefaultBillNumberAttempts)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scope:    scope,
		ledger:   ledger,
		numbers:  numbers,
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

// CreateCreditBill creates a pending bill for a customer and reserves every
// item. Any shortage aborts the whole bill.
func (s *Service) CreateCreditBill(ctx context.Context, actor identity.Actor, req CreateCreditBillRequest) (*BillResponse, error) {
	if err := s.authorizeCreate(actor, req.ShopID); err != nil {
		return nil, err
	}
	var resp BillResponse
	err := s.run(ctx, "create_credit_bill", func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		customer, err := repos.Customers().FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if !customer.BelongsTo(actor.BusinessID) {
			return shared.NewNotFoundError("customer")
		}
		header, lines, err := s.prepare(ctx, repos, actor, req.ShopID, req.Items, req.BillDate, req.DueDate, req.Notes)
		if err != nil {
			return err
		}
		bill, err := billing.NewCreditBill(header, customer.ID, lines)
		if err != nil {
			return err
		}
		if err := s.reserveItems(ctx, actor, bill); err != nil {
			return err
		}
		if err := repos.Bills().Create(ctx, bill); err != nil {
			return err
		}
		if err := s.refreshCustomer(ctx, repos, customer.ID); err != nil {
			return err
		}
		repos.AddEvents(bill.PullDomainEvents()...)
		resp = ToBillResponse(bill, decimal.Zero)
		return nil
	})
	if err != nil {
		s.logFailure("create credit bill failed", err, zap.String("shop_id", req.ShopID.String()))
		return nil, err
	}
	s.logger.Info("credit bill created",
		zap.String("bill_id", resp.ID.String()),
		zap.String("bill_number", resp.BillNumber),
		zap.String("total", resp.TotalAmount.StringFixed(2)),
	)
	return &resp, nil
}

// CreateCashBill creates a bill settled on the spot. Items are reserved and
// one sale per item is appended, dated at the bill date.
func (s *Service) CreateCashBill(ctx context.Context, actor identity.Actor, req CreateCashBillRequest) (*BillResponse, error) {
	if err := s.authorizeCreate(actor, req.ShopID); err != nil {
		return nil, err
	}
	var resp BillResponse
	err := s.run(ctx, "create_cash_bill", func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		header, lines, err := s.prepare(ctx, repos, actor, req.ShopID, req.Items, req.BillDate, nil, req.Notes)
		if err != nil {
			return err
		}
		bill, err := billing.NewCashBill(header, lines)
		if err != nil {
			return err
		}
		if err := s.reserveItems(ctx, actor, bill); err != nil {
			return err
		}
		if err := repos.Bills().Create(ctx, bill); err != nil {
			return err
		}
		if err := s.emitSales(ctx, repos, bill, bill.BillDate); err != nil {
			return err
		}
		repos.AddEvents(bill.PullDomainEvents()...)
		resp = ToBillResponse(bill, bill.TotalAmount)
		return nil
	})
	if err != nil {
		s.logFailure("create cash bill failed", err, zap.String("shop_id", req.ShopID.String()))
		return nil, err
	}
	s.logger.Info("cash bill created",
		zap.String("bill_id", resp.ID.String()),
		zap.String("bill_number", resp.BillNumber),
		zap.String("total", resp.TotalAmount.StringFixed(2)),
	)
	return &resp, nil
}

// RecordPayment appends a payment and re-derives the bill status from the
// sum of all its payments. Overpayment is rejected.
func (s *Service) RecordPayment(ctx context.Context, actor identity.Actor, billID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	if err := actor.Require(identity.CapPaymentRecord); err != nil {
		return nil, err
	}
	method, err := billing.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	var resp PaymentResponse
	err = s.run(ctx, "record_payment", func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		bill, err := s.lockBill(ctx, repos, actor, billID)
		if err != nil {
			return err
		}
		paid, err := s.paidAmount(ctx, repos, bill.ID)
		if err != nil {
			return err
		}
		if err := bill.ValidatePayment(req.Amount, paid); err != nil {
			return err
		}
		payment, err := billing.NewPayment(bill, actor.UserID, req.Amount, method, paymentDate, req.Reference, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}
		paid, err = s.recompute(ctx, repos, bill)
		if err != nil {
			return err
		}
		repos.AddEvents(billing.NewPaymentRecordedEvent(payment, bill.OutstandingAmount(paid)))
		resp = PaymentResponse{
			ID:            payment.ID,
			BillID:        bill.ID,
			CustomerID:    payment.CustomerID,
			Amount:        payment.Amount,
			PaymentMethod: payment.PaymentMethod,
			PaymentDate:   payment.PaymentDate,
			Reference:     payment.Reference,
			Bill:          ToBillResponse(bill, paid),
		}
		return nil
	})
	if err != nil {
		s.logFailure("record payment failed", err,
			zap.String("bill_id", billID.String()),
			zap.String("amount", req.Amount.String()),
		)
		return nil, err
	}
	s.logger.Info("payment recorded",
		zap.String("bill_id", billID.String()),
		zap.String("amount", resp.Amount.StringFixed(2)),
		zap.String("status", string(resp.Bill.Status)),
	)
	return &resp, nil
}

// RecomputeStatus re-derives a bill's status from its payments, emits sales
// when the bill is paid and has none, and refreshes customer totals.
// Calling it repeatedly has no further effect.
func (s *Service) RecomputeStatus(ctx context.Context, actor identity.Actor, billID uuid.UUID) (*BillResponse, error) {
	if err := actor.Require(identity.CapPaymentRecord); err != nil {
		return nil, err
	}
	var resp BillResponse
	err := s.run(ctx, "recompute", func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		bill, err := s.lockBill(ctx, repos, actor, billID)
		if err != nil {
			return err
		}
		paid, err := s.recompute(ctx, repos, bill)
		if err != nil {
			return err
		}
		resp = ToBillResponse(bill, paid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelBill voids an unsettled bill and returns every item to the shop.
// Payments already recorded on a partial bill stay on record.
func (s *Service) CancelBill(ctx context.Context, actor identity.Actor, billID uuid.UUID, reason string) (*BillResponse, error) {
	if err := actor.Require(identity.CapBillCancel); err != nil {
		return nil, err
	}
	var resp BillResponse
	err := s.run(ctx, "cancel_bill", func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		bill, err := s.lockBill(ctx, repos, actor, billID)
		if err != nil {
			return err
		}
		if err := bill.Cancel(reason); err != nil {
			return err
		}
		ref := inventory.RefTo(inventory.ReferenceBill, bill.ID)
		for _, item := range bill.Items {
			if _, err := s.ledger.Release(ctx, actor, bill.ShopID, item.ProductID, item.Quantity, ref); err != nil {
				return err
			}
		}
		if err := repos.Bills().UpdateStatus(ctx, bill); err != nil {
			return err
		}
		if bill.CustomerID != nil {
			if err := s.refreshCustomer(ctx, repos, *bill.CustomerID); err != nil {
				return err
			}
		}
		paid, err := s.paidAmount(ctx, repos, bill.ID)
		if err != nil {
			return err
		}
		repos.AddEvents(bill.PullDomainEvents()...)
		resp = ToBillResponse(bill, paid)
		return nil
	})
	if err != nil {
		s.logFailure("cancel bill failed", err, zap.String("bill_id", billID.String()))
		return nil, err
	}
	s.logger.Info("bill cancelled", zap.String("bill_id", billID.String()))
	return &resp, nil
}

// GetBill returns a bill with its paid and outstanding amounts
func (s *Service) GetBill(ctx context.Context, actor identity.Actor, billID uuid.UUID) (*BillResponse, error) {
	if err := actor.Require(identity.CapBillView); err != nil {
		return nil, err
	}
	var resp BillResponse
	err := s.scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		bill, err := repos.Bills().FindByID(ctx, billID)
		if err != nil {
			return err
		}
		if !bill.BelongsTo(actor.BusinessID) || !actor.CanOperateShop(bill.ShopID) {
			return shared.NewNotFoundError("bill")
		}
		paid, err := s.paidAmount(ctx, repos, bill.ID)
		if err != nil {
			return err
		}
		resp = ToBillResponse(bill, paid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBills lists bills of the actor's business, optionally by customer
func (s *Service) ListBills(ctx context.Context, actor identity.Actor, filter BillListFilter) (shared.Paginated[BillResponse], error) {
	if err := actor.Require(identity.CapBillView); err != nil {
		return shared.Paginated[BillResponse]{}, err
	}
	df := billing.BillFilter{
		Filter:     shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderBy: "bill_date"}.Normalize(),
		BusinessID: actor.BusinessID,
		ShopID:     filter.ShopID,
		CustomerID: filter.CustomerID,
		Status:     billing.BillStatus(filter.Status),
		From:       filter.From,
		To:         filter.To,
	}
	if df.Status != "" && !df.Status.IsValid() {
		return shared.Paginated[BillResponse]{}, shared.NewDomainError("INVALID_STATUS", "Unknown bill status: "+filter.Status)
	}
	if !actor.Role.SpansAllShops() {
		df.ShopID = actor.ShopID
	}

	var page shared.Paginated[BillResponse]
	err := s.scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		rows, total, err := repos.Bills().List(ctx, df)
		if err != nil {
			return err
		}
		items := make([]BillResponse, 0, len(rows))
		for i := range rows {
			paid, err := s.paidAmount(ctx, repos, rows[i].ID)
			if err != nil {
				return err
			}
			items = append(items, ToBillResponse(&rows[i], paid))
		}
		page = shared.NewPaginated(items, total, df.Page, df.PageSize)
		return nil
	})
	return page, err
}

// GetCustomer returns a customer with balances recomputed from history
func (s *Service) GetCustomer(ctx context.Context, actor identity.Actor, customerID uuid.UUID) (*CustomerResponse, error) {
	if err := actor.Require(identity.CapBillView); err != nil {
		return nil, err
	}
	var resp CustomerResponse
	err := s.scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		customer, err := repos.Customers().FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		if !customer.BelongsTo(actor.BusinessID) {
			return shared.NewNotFoundError("customer")
		}
		if err := s.refreshCustomer(ctx, repos, customer.ID); err != nil {
			return err
		}
		customer, err = repos.Customers().FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		resp = ToCustomerResponse(customer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) authorizeCreate(actor identity.Actor, shopID uuid.UUID) error {
	if err := actor.Require(identity.CapBillCreate); err != nil {
		return err
	}
	return actor.RequireShop(shopID)
}

// prepare loads the shop and products, resolves default prices and generates the bill number
func (s *Service) prepare(
	ctx context.Context,
	repos appinv.TransactionalRepositories,
	actor identity.Actor,
	shopID uuid.UUID,
	items []BillItemInput,
	billDate, dueDate *time.Time,
	notes string,
) (billing.BillHeader, []billing.BillLine, error) {
	shop, err := repos.Shops().FindByID(ctx, shopID)
	if err != nil {
		return billing.BillHeader{}, nil, err
	}
	if !shop.BelongsTo(actor.BusinessID) {
		return billing.BillHeader{}, nil, shared.NewNotFoundError("shop")
	}
	lines, err := s.resolveLines(ctx, repos, actor, items)
	if err != nil {
		return billing.BillHeader{}, nil, err
	}
	number, err := s.numbers.Generate(ctx, shop.Name, func(ctx context.Context, n string) (bool, error) {
		return repos.Bills().NumberExists(ctx, shop.ID, actor.UserID, n)
	})
	if err != nil {
		return billing.BillHeader{}, nil, err
	}
	header := billing.BillHeader{
		BusinessID: actor.BusinessID,
		ShopID:     shop.ID,
		UserID:     actor.UserID,
		BillNumber: number,
		DueDate:    dueDate,
		Notes:      notes,
	}
	if billDate != nil {
		header.BillDate = *billDate
	}
	return header, lines, nil
}

func (s *Service) resolveLines(ctx context.Context, repos appinv.TransactionalRepositories, actor identity.Actor, items []BillItemInput) ([]billing.BillLine, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := repos.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines := make([]billing.BillLine, 0, len(items))
	for i, it := range items {
		product := products[it.ProductID]
		if product == nil || !product.BelongsTo(actor.BusinessID) {
			return nil, shared.NewNotFoundError("product").
				WithDetail("line", i+1).
				WithDetail("product_id", it.ProductID.String())
		}
		lines = append(lines, billing.BillLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   unitPrice(it, product),
		})
	}
	return lines, nil
}

func unitPrice(it BillItemInput, product *catalog.Product) decimal.Decimal {
	if it.UnitPrice == nil || it.UnitPrice.IsZero() {
		return product.SellingPrice
	}
	return *it.UnitPrice
}

// reserveItems reserves every item and reports all shortages together
func (s *Service) reserveItems(ctx context.Context, actor identity.Actor, bill *billing.Bill) error {
	ref := inventory.RefTo(inventory.ReferenceBill, bill.ID)
	var shortages []*shared.DomainError
	for _, item := range bill.Items {
		_, err := s.ledger.Reserve(ctx, actor, bill.ShopID, item.ProductID, item.Quantity, ref)
		if err == nil {
			continue
		}
		var de *shared.DomainError
		if errors.Is(err, shared.ErrInsufficientStock) && errors.As(err, &de) {
			shortages = append(shortages, de)
			continue
		}
		return err
	}
	if len(shortages) == 0 {
		return nil
	}
	return combineShortages(shortages)
}

func combineShortages(shortages []*shared.DomainError) error {
	messages := make([]string, 0, len(shortages))
	items := make([]map[string]any, 0, len(shortages))
	for _, de := range shortages {
		messages = append(messages, de.Message)
		items = append(items, map[string]any{
			"item":       de.Details["item"],
			"product_id": de.Details["product_id"],
			"requested":  de.Details["requested"],
			"available":  de.Details["available"],
			"shortfall":  de.Details["shortfall"],
		})
	}
	first := shortages[0]
	return shared.NewKindError(shared.KindInsufficientStock, "INSUFFICIENT_STOCK", strings.Join(messages, " ")).
		WithDetail("items", items).
		WithDetail("requested", first.Details["requested"]).
		WithDetail("available", first.Details["available"]).
		WithDetail("shortfall", first.Details["shortfall"])
}

// lockBill loads the bill holding its row lock for the rest of the transaction
func (s *Service) lockBill(ctx context.Context, repos appinv.TransactionalRepositories, actor identity.Actor, billID uuid.UUID) (*billing.Bill, error) {
	bill, err := repos.Bills().FindByIDForUpdate(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !bill.BelongsTo(actor.BusinessID) {
		return nil, shared.NewNotFoundError("bill")
	}
	if err := actor.RequireShop(bill.ShopID); err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *Service) paidAmount(ctx context.Context, repos appinv.TransactionalRepositories, billID uuid.UUID) (decimal.Decimal, error) {
	amounts, err := repos.Payments().AmountsForBill(ctx, billID)
	if err != nil {
		return decimal.Zero, err
	}
	return valueobject.Sum(amounts...), nil
}

// recompute derives the status of a locked bill from its persisted payments.
// Sales are emitted at most once: only when the bill is paid and none exist.
func (s *Service) recompute(ctx context.Context, repos appinv.TransactionalRepositories, bill *billing.Bill) (decimal.Decimal, error) {
	paid, err := s.paidAmount(ctx, repos, bill.ID)
	if err != nil {
		return decimal.Zero, err
	}
	prev := bill.Status
	bill.ApplyPaidTotal(paid)
	if bill.Status != prev {
		if err := repos.Bills().UpdateStatus(ctx, bill); err != nil {
			return decimal.Zero, err
		}
	}
	if bill.Status == billing.BillStatusPaid {
		exists, err := repos.Sales().ExistsForBill(ctx, bill.ID)
		if err != nil {
			return decimal.Zero, err
		}
		if !exists {
			settledAt := time.Now()
			if bill.PaidAt != nil {
				settledAt = *bill.PaidAt
			}
			if err := s.emitSales(ctx, repos, bill, settledAt); err != nil {
				return decimal.Zero, err
			}
		}
	}
	if bill.CustomerID != nil {
		if err := s.refreshCustomer(ctx, repos, *bill.CustomerID); err != nil {
			return decimal.Zero, err
		}
	}
	repos.AddEvents(bill.PullDomainEvents()...)
	return paid, nil
}

// emitSales appends one sale per bill item
func (s *Service) emitSales(ctx context.Context, repos appinv.TransactionalRepositories, bill *billing.Bill, saleDate time.Time) error {
	rows := make([]*sales.Sale, 0, len(bill.Items))
	billID := bill.ID
	for i := range bill.Items {
		item := &bill.Items[i]
		itemID := item.ID
		sale, err := sales.NewSale(sales.NewSaleInput{
			BusinessID: bill.BusinessID,
			ShopID:     bill.ShopID,
			ProductID:  item.ProductID,
			UserID:     bill.UserID,
			BillID:     &billID,
			BillItemID: &itemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			SaleDate:   saleDate,
		})
		if err != nil {
			return err
		}
		rows = append(rows, sale)
	}
	if err := repos.Sales().Create(ctx, rows...); err != nil {
		return err
	}
	for _, sale := range rows {
		repos.AddEvents(sales.NewSaleRecordedEvent(sale))
	}
	return nil
}

// refreshCustomer recomputes the customer's totals from bill and payment history
func (s *Service) refreshCustomer(ctx context.Context, repos appinv.TransactionalRepositories, customerID uuid.UUID) error {
	customer, err := repos.Customers().FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	credits, err := repos.Bills().ActiveCreditTotals(ctx, customerID)
	if err != nil {
		return err
	}
	payments, err := repos.Payments().AmountsOnActiveBills(ctx, customerID)
	if err != nil {
		return err
	}
	if err := customer.RefreshTotals(valueobject.Sum(credits...), valueobject.Sum(payments...)); err != nil {
		return err
	}
	return repos.Customers().UpdateTotals(ctx, customer)
}

func (s *Service) run(ctx context.Context, operation string, fn func(ctx context.Context, repos appinv.TransactionalRepositories) error) error {
	start := time.Now()
	err := s.scope.Execute(ctx, fn)
	s.recorder.ObserveOperation(component, operation, appinv.Outcome(err), time.Since(start))
	return err
}

func (s *Service) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch shared.KindOf(err) {
	case shared.KindPersistence, "":
		s.logger.Error(msg, fields...)
	case shared.KindInsufficientStock:
		s.logger.Warn(msg, fields...)
	default:
		s.logger.Info(msg, fields...)
	}
}
