package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailcore/backend/internal/domain/billing"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
)

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_number ASC")
}

// Create inserts the bill together with its items
func (r *GormBillRepository) Create(ctx context.Context, bill *billing.Bill) error {
	model := models.BillModelFromDomain(bill)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "bill", "create")
}

// FindByID finds a bill by its ID with items in line order
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "bill", "find")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a bill and locks its row (SELECT ... FOR UPDATE)
func (r *GormBillRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "bill", "lock")
	}
	if err := r.db.WithContext(ctx).
		Where("bill_id = ?", model.ID).
		Order("line_number ASC").
		Find(&model.Items).Error; err != nil {
		return nil, translateError(err, "bill item", "find")
	}
	return model.ToDomain(), nil
}

// UpdateStatus persists the derived status and its timestamps with optimistic locking
func (r *GormBillRepository) UpdateStatus(ctx context.Context, bill *billing.Bill) error {
	result := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Where("id = ? AND version = ?", bill.ID, bill.Version-1).
		Updates(map[string]any{
			"status":              string(bill.Status),
			"paid_at":             bill.PaidAt,
			"cancelled_at":        bill.CancelledAt,
			"cancellation_reason": bill.CancellationReason,
			"version":             bill.Version,
			"updated_at":          bill.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "bill", "update")
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("bill")
	}
	return nil
}

// NumberExists checks whether number is taken for the (shop, user) pair
func (r *GormBillRepository) NumberExists(ctx context.Context, shopID, userID uuid.UUID, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Where("shop_id = ? AND user_id = ? AND bill_number = ?", shopID, userID, number).
		Count(&count).Error; err != nil {
		return false, translateError(err, "bill", "count")
	}
	return count > 0, nil
}

// List returns one page of bills matching filter, with items
func (r *GormBillRepository) List(ctx context.Context, filter billing.BillFilter) ([]billing.Bill, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BillModel{}).
		Scopes(BusinessScope(filter.BusinessID))
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.From != nil {
		query = query.Where("bill_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("bill_date <= ?", *filter.To)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "bill", "count")
	}
	var rows []models.BillModel
	if err := applyPaging(query, filter.Filter, billSortColumns, "bill_date").
		Preload("Items", orderedItems).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "bill", "list")
	}
	bills := make([]billing.Bill, len(rows))
	for i := range rows {
		bills[i] = *rows[i].ToDomain()
	}
	return bills, total, nil
}

// ActiveCreditTotals returns the totals of the customer's credit bills that are not cancelled
func (r *GormBillRepository) ActiveCreditTotals(ctx context.Context, customerID uuid.UUID) ([]decimal.Decimal, error) {
	var totals []decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Where("customer_id = ? AND bill_type = ? AND status <> ?",
			customerID, string(billing.BillTypeCredit), string(billing.BillStatusCancelled)).
		Pluck("total_amount", &totals).Error; err != nil {
		return nil, translateError(err, "bill", "sum")
	}
	return totals, nil
}

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "payment", "create")
}

// ListByBill returns the payments of a bill in the order they were made
func (r *GormPaymentRepository) ListByBill(ctx context.Context, billID uuid.UUID) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("payment_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "payment", "list")
	}
	payments := make([]billing.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// AmountsForBill returns every payment amount recorded against the bill.
// Amounts are summed by the caller in decimal arithmetic.
func (r *GormPaymentRepository) AmountsForBill(ctx context.Context, billID uuid.UUID) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("bill_id = ?", billID).
		Pluck("amount", &amounts).Error; err != nil {
		return nil, translateError(err, "payment", "sum")
	}
	return amounts, nil
}

// AmountsOnActiveBills returns the customer's payment amounts on bills that are not cancelled
func (r *GormPaymentRepository) AmountsOnActiveBills(ctx context.Context, customerID uuid.UUID) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Joins("JOIN bills ON bills.id = payments.bill_id").
		Where("payments.customer_id = ? AND bills.status <> ?", customerID, string(billing.BillStatusCancelled)).
		Pluck("payments.amount", &amounts).Error; err != nil {
		return nil, translateError(err, "payment", "sum")
	}
	return amounts, nil
}

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "customer", "find")
	}
	return model.ToDomain(), nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return translateError(r.db.WithContext(ctx).Save(model).Error, "customer", "save")
}

// UpdateTotals persists recomputed credit and paid totals
func (r *GormCustomerRepository) UpdateTotals(ctx context.Context, customer *billing.Customer) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"total_credit": customer.TotalCredit,
			"total_paid":   customer.TotalPaid,
			"updated_at":   customer.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "customer", "update")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "customer", "update")
	}
	return nil
}

var (
	_ billing.BillRepository     = (*GormBillRepository)(nil)
	_ billing.PaymentRepository  = (*GormPaymentRepository)(nil)
	_ billing.CustomerRepository = (*GormCustomerRepository)(nil)
)
