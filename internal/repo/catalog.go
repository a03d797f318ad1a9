package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

// ListProducts returns every product, or only those whose name contains
// search case-insensitively when search is not empty.
func (r *GormRepo) ListProducts(ctx context.Context, search string) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if search != "" {
		pattern := "%" + likeEscaper.Replace(models.FoldName(search)) + "%"
		q = q.Where(`name_folded LIKE ? ESCAPE '\'`, pattern)
	}

	items := make([]models.Product, 0)
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct overwrites name, price and description of product id and
// merges set.Attributes into the stored attributes. The row is locked for the
// read-merge-write so concurrent updates never drop each other's keys.
func (r *GormRepo) UpdateProduct(ctx context.Context, id string, set *models.Product) (*models.Product, error) {
	var current models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}

		attrs := models.CloneAttributes(current.Attributes)
		if attrs == nil && len(set.Attributes) > 0 {
			attrs = make(map[string]any, len(set.Attributes))
		}
		for k, v := range set.Attributes {
			attrs[k] = v
		}

		current.Name = set.Name
		current.NameFolded = models.FoldName(set.Name)
		current.Price = set.Price
		current.Description = set.Description
		current.Attributes = attrs

		return tx.Model(&current).
			Select("name", "name_folded", "price", "description", "attributes").
			Updates(&current).Error
	})
	if err != nil {
		return nil, err
	}
	return &current, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
