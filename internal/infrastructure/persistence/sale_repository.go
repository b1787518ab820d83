package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
)

// GormSaleRepository implements SaleRepository using GORM.
// Sales are append-only: there is deliberately no update or delete path.
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create appends sales in one statement. A second sale for the same bill
// item violates the unique index and is reported as a conflict.
func (r *GormSaleRepository) Create(ctx context.Context, rows ...*sales.Sale) error {
	if len(rows) == 0 {
		return nil
	}
	batch := make([]*models.SaleModel, len(rows))
	for i, s := range rows {
		batch[i] = models.SaleModelFromDomain(s)
	}
	return translateError(r.db.WithContext(ctx).Create(&batch).Error, "sale", "create")
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "sale", "find")
	}
	return model.ToDomain(), nil
}

// ExistsForBill reports whether any sale was emitted for the bill
func (r *GormSaleRepository) ExistsForBill(ctx context.Context, billID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("bill_id = ?", billID).
		Count(&count).Error; err != nil {
		return false, translateError(err, "sale", "count")
	}
	return count > 0, nil
}

// List returns one page of sales matching filter, newest sale date first by default
func (r *GormSaleRepository) List(ctx context.Context, filter sales.SaleFilter) ([]sales.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Scopes(BusinessScope(filter.BusinessID))
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.BillID != nil {
		query = query.Where("bill_id = ?", *filter.BillID)
	}
	if filter.From != nil {
		query = query.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("sale_date <= ?", *filter.To)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "sale", "count")
	}
	var rows []models.SaleModel
	if err := applyPaging(query, filter.Filter, saleSortColumns, "sale_date").
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "sale", "list")
	}
	items := make([]sales.Sale, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
