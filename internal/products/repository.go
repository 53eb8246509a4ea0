package product

import (
	"context"
	"strings"

	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	"github.com/dmarroquin/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update updates an existing product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// List executes the filtered catalog query plus its matching count.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Product, int64, error) {
	query = query.Normalize()

	qb := r.db.WithContext(ctx).Model(&models.Product{})
	qb = applyFilters(qb, query)

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := qb.
		Order(orderClause(query)).
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DecrementStock subtracts qty from the product's stock. The UPDATE takes the
// row lock and the WHERE guard keeps stock from ever going negative, so
// concurrent order commits against the same product serialize here; the caller
// must treat zero affected rows as insufficient stock.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, qty, id, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func applyFilters(qb *gorm.DB, query ListQuery) *gorm.DB {
	if query.Category != "" {
		qb = qb.Where("category = ?", query.Category)
	}
	if query.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(query.Search)) + "%"
		qb = qb.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	}
	if query.MinPrice != nil {
		qb = qb.Where("price >= ?", *query.MinPrice)
	}
	if query.MaxPrice != nil {
		qb = qb.Where("price <= ?", *query.MaxPrice)
	}
	return qb
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards so a search term matches literally.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func orderClause(query ListQuery) string {
	column := "created_at"
	switch query.SortBy {
	case enums.CatalogSortPrice:
		column = "price"
	case enums.CatalogSortName:
		column = "name"
	}
	direction := "DESC"
	if query.SortOrder == enums.SortOrderAsc {
		direction = "ASC"
	}
	// id tiebreak keeps pages stable when the sort column has duplicates
	return column + " " + direction + ", id " + direction
}
