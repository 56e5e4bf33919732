package campaigns

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magislabs/pricing-backend/pkg/db/models"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
)

// Repository persists campaign definitions in the operational database.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new campaign row.
func (r *Repository) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if campaign.ID == uuid.Nil {
		campaign.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(campaign).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

// Update saves an existing campaign row.
func (r *Repository) Update(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if err := r.db.WithContext(ctx).Save(campaign).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

// FindByID loads a campaign by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.WithContext(ctx).First(&campaign, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, err
	}
	return &campaign, nil
}

// List returns all campaigns ordered by end date, most recent window first.
func (r *Repository) List(ctx context.Context) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	if err := r.db.WithContext(ctx).Order("ends_on DESC NULLS LAST").Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// ListExpiringWithin returns campaigns whose window ends inside the horizon.
func (r *Repository) ListExpiringWithin(ctx context.Context, now time.Time, horizon time.Duration) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.WithContext(ctx).
		Where("ends_on IS NOT NULL AND ends_on >= ? AND ends_on <= ?", now, now.Add(horizon)).
		Order("ends_on ASC").
		Find(&campaigns).
		Error
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

// Delete removes a campaign by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Campaign{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}
	return nil
}
