package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
)

// GormBusinessRepository implements BusinessRepository using GORM
type GormBusinessRepository struct {
	db *gorm.DB
}

// NewGormBusinessRepository creates a new GormBusinessRepository
func NewGormBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

// FindByID finds a business by its ID
func (r *GormBusinessRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Business, error) {
	var model models.BusinessModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "business", "find")
	}
	return model.ToDomain(), nil
}

// Save creates or updates a business
func (r *GormBusinessRepository) Save(ctx context.Context, business *catalog.Business) error {
	model := models.BusinessModelFromDomain(business)
	return translateError(r.db.WithContext(ctx).Save(model).Error, "business", "save")
}

// GormShopRepository implements ShopRepository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// FindByID finds a shop by its ID
func (r *GormShopRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Shop, error) {
	var model models.ShopModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "shop", "find")
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the shops found among ids, keyed by ID. Missing IDs are absent.
func (r *GormShopRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Shop, error) {
	result := make(map[uuid.UUID]*catalog.Shop, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.ShopModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err, "shop", "find")
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// FindByBusiness lists the shops of a business ordered by name
func (r *GormShopRepository) FindByBusiness(ctx context.Context, businessID uuid.UUID) ([]catalog.Shop, error) {
	var rows []models.ShopModel
	if err := r.db.WithContext(ctx).
		Scopes(BusinessScope(businessID)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "shop", "list")
	}
	shops := make([]catalog.Shop, len(rows))
	for i := range rows {
		shops[i] = *rows[i].ToDomain()
	}
	return shops, nil
}

// Save creates or updates a shop
func (r *GormShopRepository) Save(ctx context.Context, shop *catalog.Shop) error {
	model := models.ShopModelFromDomain(shop)
	return translateError(r.db.WithContext(ctx).Save(model).Error, "shop", "save")
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "product", "find")
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the products found among ids, keyed by ID. Missing IDs are absent.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	result := make(map[uuid.UUID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err, "product", "find")
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// Save inserts a product, or updates its descriptive fields. The pool
// quantity is only written on insert.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "sku", "unit", "buying_price", "selling_price",
				"min_stock_level", "max_stock_level", "reorder_point",
				"version", "updated_at",
			}),
		}).
		Create(model).Error
	return translateError(err, "product", "save")
}

// DecrementPoolIfAvailable subtracts quantity from the pool in a single
// conditional UPDATE. applied is false when the pool held less than quantity.
func (r *GormProductRepository) DecrementPoolIfAvailable(ctx context.Context, productID uuid.UUID, quantity int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND business_inventory_quantity >= ?", productID, quantity).
		Updates(map[string]any{
			"business_inventory_quantity": gorm.Expr("business_inventory_quantity - ?", quantity),
			"updated_at":                  time.Now(),
		})
	if result.Error != nil {
		return false, translateError(result.Error, "product", "decrement pool of")
	}
	return result.RowsAffected == 1, nil
}

// IncrementPool adds quantity to the pool
func (r *GormProductRepository) IncrementPool(ctx context.Context, productID uuid.UUID, quantity int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"business_inventory_quantity": gorm.Expr("business_inventory_quantity + ?", quantity),
			"updated_at":                  time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error, "product", "increment pool of")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "product", "increment pool of")
	}
	return nil
}

var (
	_ catalog.BusinessRepository = (*GormBusinessRepository)(nil)
	_ catalog.ShopRepository     = (*GormShopRepository)(nil)
	_ catalog.ProductRepository  = (*GormProductRepository)(nil)
)
