package stores

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magislabs/pricing-backend/pkg/db/models"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

// Repository persists seller stores and their commission rules.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new store together with its commission rules.
func (r *Repository) Create(ctx context.Context, store *models.Store) (*models.Store, error) {
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	for i := range store.CommissionRules {
		if store.CommissionRules[i].ID == uuid.Nil {
			store.CommissionRules[i].ID = uuid.New()
		}
		store.CommissionRules[i].StoreID = store.ID
	}
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// Update saves store fields without touching its commission rules.
func (r *Repository) Update(ctx context.Context, store *models.Store) (*models.Store, error) {
	if err := r.db.WithContext(ctx).Omit("CommissionRules").Save(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// FindByID loads a store with its commission rules.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).Preload("CommissionRules").First(&store, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, err
	}
	return &store, nil
}

// List returns all stores ordered by marketplace and name.
func (r *Repository) List(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Order("marketplace ASC, name ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// Delete removes a store; commission rules cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", id).Delete(&models.CommissionRule{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Store{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil
	})
}

// ReplaceCommissionRules swaps the commission rule set for one store.
func (r *Repository) ReplaceCommissionRules(ctx context.Context, storeID uuid.UUID, rules []models.CommissionRule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", storeID).Delete(&models.CommissionRule{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		for i := range rules {
			if rules[i].ID == uuid.Nil {
				rules[i].ID = uuid.New()
			}
			rules[i].StoreID = storeID
		}
		return tx.Create(&rules).Error
	})
}
