package rules

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magislabs/pricing-backend/pkg/db/models"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

// Repository persists the marketplace rule tables and pricing categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListTariffs returns the fixed-tariff table ordered by bracket start.
func (r *Repository) ListTariffs(ctx context.Context) ([]models.FixedTariffRule, error) {
	var rules []models.FixedTariffRule
	if err := r.db.WithContext(ctx).Order("min_sale_value ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// ReplaceTariffs swaps the whole fixed-tariff table in one transaction.
func (r *Repository) ReplaceTariffs(ctx context.Context, rules []models.FixedTariffRule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.FixedTariffRule{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		for i := range rules {
			if rules[i].ID == uuid.Nil {
				rules[i].ID = uuid.New()
			}
		}
		return tx.Create(&rules).Error
	})
}

// ListShipping returns the shipping table ordered by sale then weight bracket.
func (r *Repository) ListShipping(ctx context.Context) ([]models.ShippingRule, error) {
	var rules []models.ShippingRule
	if err := r.db.WithContext(ctx).Order("min_sale_value ASC, min_weight_g ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// ReplaceShipping swaps the whole shipping table in one transaction.
func (r *Repository) ReplaceShipping(ctx context.Context, rules []models.ShippingRule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ShippingRule{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		for i := range rules {
			if rules[i].ID == uuid.Nil {
				rules[i].ID = uuid.New()
			}
		}
		return tx.Create(&rules).Error
	})
}

// ListCategories returns all pricing categories by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.PricingCategory, error) {
	var categories []models.PricingCategory
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindCategoryByID loads one pricing category.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.PricingCategory, error) {
	var category models.PricingCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pricing category not found")
		}
		return nil, err
	}
	return &category, nil
}

// FindCategoryByName loads one pricing category by its unique name.
func (r *Repository) FindCategoryByName(ctx context.Context, name string) (*models.PricingCategory, error) {
	var category models.PricingCategory
	if err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pricing category not found")
		}
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a new pricing category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.PricingCategory) (*models.PricingCategory, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory saves an existing pricing category.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.PricingCategory) (*models.PricingCategory, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a pricing category by id.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PricingCategory{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pricing category not found")
	}
	return nil
}
