package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
)

// GormShopInventoryRepository implements ShopInventoryRepository using GORM
type GormShopInventoryRepository struct {
	db *gorm.DB
}

// NewGormShopInventoryRepository creates a new GormShopInventoryRepository
func NewGormShopInventoryRepository(db *gorm.DB) *GormShopInventoryRepository {
	return &GormShopInventoryRepository{db: db}
}

// FindByID finds a shop inventory row by its ID
func (r *GormShopInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ShopInventory, error) {
	var model models.ShopInventoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "shop inventory", "find")
	}
	return model.ToDomain(), nil
}

// FindByShopAndProduct finds the row for a shop-product combination
func (r *GormShopInventoryRepository) FindByShopAndProduct(ctx context.Context, shopID, productID uuid.UUID) (*inventory.ShopInventory, error) {
	var model models.ShopInventoryModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		First(&model).Error; err != nil {
		return nil, translateError(err, "shop inventory", "find")
	}
	return model.ToDomain(), nil
}

// List returns one page of rows matching filter and the total match count
func (r *GormShopInventoryRepository) List(ctx context.Context, filter inventory.ShopInventoryFilter) ([]inventory.ShopInventory, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ShopInventoryModel{}).
		Scopes(BusinessScope(filter.BusinessID))
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.OnlyStock {
		query = query.Where("quantity > 0")
	}
	query = applyStockStatus(query, filter.Status)

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "shop inventory", "count")
	}

	var rows []models.ShopInventoryModel
	if err := applyPaging(query, filter.Filter, shopInventorySortColumns, "created_at").
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "shop inventory", "list")
	}
	items := make([]inventory.ShopInventory, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// applyStockStatus mirrors StockStatusFor in SQL, keeping its evaluation order
func applyStockStatus(query *gorm.DB, status inventory.StockStatus) *gorm.DB {
	switch status {
	case inventory.StockStatusOutOfStock:
		return query.Where("quantity = 0")
	case inventory.StockStatusLowStock:
		return query.Where("quantity > 0 AND quantity <= reorder_point")
	case inventory.StockStatusOverstocked:
		return query.Where("quantity > 0 AND quantity > reorder_point AND quantity > max_stock_level")
	case inventory.StockStatusAdequate:
		return query.Where("quantity > 0 AND quantity > reorder_point AND quantity <= max_stock_level")
	}
	return query
}

// Create inserts inv unless (shop, product) already has a row, then returns
// the stored row
func (r *GormShopInventoryRepository) Create(ctx context.Context, inv *inventory.ShopInventory) (*inventory.ShopInventory, bool, error) {
	model := models.ShopInventoryModelFromDomain(inv)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return nil, false, translateError(result.Error, "shop inventory", "create")
	}
	stored, err := r.FindByShopAndProduct(ctx, inv.ShopID, inv.ProductID)
	if err != nil {
		return nil, false, err
	}
	return stored, result.RowsAffected == 1, nil
}

// DecrementIfAvailable subtracts quantity in a single conditional UPDATE.
// applied is false when the row held less than quantity.
func (r *GormShopInventoryRepository) DecrementIfAvailable(ctx context.Context, id uuid.UUID, quantity int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ShopInventoryModel{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, translateError(result.Error, "shop inventory", "decrement")
	}
	return result.RowsAffected == 1, nil
}

// Increment adds quantity to the row
func (r *GormShopInventoryRepository) Increment(ctx context.Context, id uuid.UUID, quantity int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.ShopInventoryModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error, "shop inventory", "increment")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "shop inventory", "increment")
	}
	return nil
}

// MarkRestocked records the restock time and notes
func (r *GormShopInventoryRepository) MarkRestocked(ctx context.Context, id uuid.UUID, at time.Time, notes string) error {
	err := r.db.WithContext(ctx).
		Model(&models.ShopInventoryModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_restocked_at": at,
			"restock_notes":     notes,
			"updated_at":        at,
		}).Error
	return translateError(err, "shop inventory", "update")
}

// UpdateThresholds persists min / max / reorder levels. Quantity is not touched.
func (r *GormShopInventoryRepository) UpdateThresholds(ctx context.Context, inv *inventory.ShopInventory) error {
	result := r.db.WithContext(ctx).
		Model(&models.ShopInventoryModel{}).
		Where("id = ?", inv.ID).
		Updates(map[string]any{
			"min_stock_level": inv.Thresholds.MinStockLevel,
			"max_stock_level": inv.Thresholds.MaxStockLevel,
			"reorder_point":   inv.Thresholds.ReorderPoint,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      inv.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "shop inventory", "update")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "shop inventory", "update")
	}
	return nil
}

// SumByProduct returns the total quantity held by all shops for a product
func (r *GormShopInventoryRepository) SumByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ShopInventoryModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ?", productID).
		Scan(&total).Error
	if err != nil {
		return 0, translateError(err, "shop inventory", "sum")
	}
	return total, nil
}

// GormStockMovementRepository implements StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append inserts movements; existing rows are never updated
func (r *GormStockMovementRepository) Append(ctx context.Context, movements ...*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([]*models.StockMovementModel, len(movements))
	for i, m := range movements {
		rows[i] = models.StockMovementModelFromDomain(m)
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error, "stock movement", "append")
}

// List returns one page of movements matching filter, newest first by default
func (r *GormStockMovementRepository) List(ctx context.Context, filter inventory.StockMovementFilter) ([]inventory.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Scopes(BusinessScope(filter.BusinessID))
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", string(filter.Kind))
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "stock movement", "count")
	}
	var rows []models.StockMovementModel
	if err := applyPaging(query, filter.Filter, stockMovementSortColumns, "created_at").
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "stock movement", "list")
	}
	items := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// ExistsForReference reports whether a movement of kind already points at ref
func (r *GormStockMovementRepository) ExistsForReference(ctx context.Context, kind inventory.MovementKind, ref inventory.Reference) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Where("kind = ? AND reference_type = ?", string(kind), ref.Type)
	if ref.ID != nil {
		query = query.Where("reference_id = ?", *ref.ID)
	} else {
		query = query.Where("reference_id IS NULL")
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err, "stock movement", "count")
	}
	return count > 0, nil
}

// GormStockTransferRepository implements StockTransferRepository using GORM
type GormStockTransferRepository struct {
	db *gorm.DB
}

// NewGormStockTransferRepository creates a new GormStockTransferRepository
func NewGormStockTransferRepository(db *gorm.DB) *GormStockTransferRepository {
	return &GormStockTransferRepository{db: db}
}

// FindByID finds a transfer by its ID
func (r *GormStockTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockTransfer, error) {
	var model models.StockTransferModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "transfer", "find")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a transfer and locks its row (SELECT ... FOR UPDATE)
func (r *GormStockTransferRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.StockTransfer, error) {
	var model models.StockTransferModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "transfer", "lock")
	}
	return model.ToDomain(), nil
}

// List returns one page of transfers matching filter
func (r *GormStockTransferRepository) List(ctx context.Context, filter inventory.StockTransferFilter) ([]inventory.StockTransfer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockTransferModel{}).
		Scopes(BusinessScope(filter.BusinessID))
	if filter.ShopID != nil {
		query = query.Where("(from_shop_id = ? OR to_shop_id = ?)", *filter.ShopID, *filter.ShopID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "transfer", "count")
	}
	var rows []models.StockTransferModel
	if err := applyPaging(query, filter.Filter, stockTransferSortColumns, "created_at").
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "transfer", "list")
	}
	items := make([]inventory.StockTransfer, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// Save creates or updates a transfer
func (r *GormStockTransferRepository) Save(ctx context.Context, t *inventory.StockTransfer) error {
	model := models.StockTransferModelFromDomain(t)
	return translateError(r.db.WithContext(ctx).Save(model).Error, "transfer", "save")
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockTransferRepository) SaveWithLock(ctx context.Context, t *inventory.StockTransfer) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockTransferModel{}).
		Where("id = ? AND version = ?", t.ID, t.Version-1).
		Updates(map[string]any{
			"status":              string(t.Status),
			"approved_by":         t.ApprovedBy,
			"approved_at":         t.ApprovedAt,
			"dispatched_at":       t.DispatchedAt,
			"completed_at":        t.CompletedAt,
			"cancelled_at":        t.CancelledAt,
			"cancellation_reason": t.CancellationReason,
			"version":             t.Version,
			"updated_at":          t.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "transfer", "save")
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("transfer")
	}
	return nil
}

var (
	_ inventory.ShopInventoryRepository = (*GormShopInventoryRepository)(nil)
	_ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
	_ inventory.StockTransferRepository = (*GormStockTransferRepository)(nil)
)
