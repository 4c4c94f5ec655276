package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/erp/esl-addon/internal/domain/esl"
)

// GormTemplateRepository implements esl.TemplateRepository using GORM
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new GormTemplateRepository
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

// FindByVendorID returns the mirror for a vendor template id, nil when the
// template was never synced.
func (r *GormTemplateRepository) FindByVendorID(ctx context.Context, vendorID string) (*esl.Template, error) {
	var template esl.Template
	if err := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

// FindAll returns every mirrored template
func (r *GormTemplateRepository) FindAll(ctx context.Context) ([]*esl.Template, error) {
	var templates []*esl.Template
	if err := r.db.WithContext(ctx).Order("vendor_id").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// Save persists a mirror record, creating or updating it
func (r *GormTemplateRepository) Save(ctx context.Context, template *esl.Template) error {
	return r.db.WithContext(ctx).Save(template).Error
}

// Delete removes a mirror record
func (r *GormTemplateRepository) Delete(ctx context.Context, template *esl.Template) error {
	return r.db.WithContext(ctx).Delete(template).Error
}

// DeleteAll clears the mirror table
func (r *GormTemplateRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&esl.Template{}).Error
}
