package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/erp/esl-addon/internal/domain/esl"
)

// GormSessionRepository implements esl.SessionRepository using GORM. The
// table holds at most one row; Create enforces that.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Create persists the session, rejecting a second record
func (r *GormSessionRepository) Create(ctx context.Context, session *esl.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&esl.Session{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return esl.ErrSessionExists
		}
		return tx.Create(session).Error
	})
}

// Get returns the singleton session
func (r *GormSessionRepository) Get(ctx context.Context) (*esl.Session, error) {
	var session esl.Session
	if err := r.db.WithContext(ctx).Order("created_at").First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, esl.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Save persists changes to the session
func (r *GormSessionRepository) Save(ctx context.Context, session *esl.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// Delete removes the session
func (r *GormSessionRepository) Delete(ctx context.Context, session *esl.Session) error {
	return r.db.WithContext(ctx).Delete(session).Error
}
