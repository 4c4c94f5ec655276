package esl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/esl-addon/internal/domain/esl"
)

// TemplateService keeps the local template mirror in step with the vendor
// and exposes the selectable-store list.
type TemplateService struct {
	templates esl.TemplateRepository
	sessions  *SessionService
	vendor    esl.LabelVendor
	assetBase string
	logger    *zap.Logger
}

// NewTemplateService creates a TemplateService. assetBase is the vendor's
// asset host used to build preview image URLs.
func NewTemplateService(templates esl.TemplateRepository, sessions *SessionService, vendor esl.LabelVendor, assetBase string, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		sessions:  sessions,
		vendor:    vendor,
		assetBase: assetBase,
		logger:    logger,
	}
}

// FetchStores refreshes the selectable-store list from the vendor. The
// first store is auto-selected when none was chosen before.
func (s *TemplateService) FetchStores(ctx context.Context) ([]StoreDTO, error) {
	session, err := s.sessions.EnsureFreshToken(ctx)
	if err != nil {
		return nil, err
	}

	stores, err := s.vendor.ListStores(ctx, session.Ref())
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("%w: no stores for this account", esl.ErrEmptyResult)
	}

	if err := session.SetStores(stores); err != nil {
		return nil, err
	}
	if err := s.sessions.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("store list refreshed",
		zap.Int("stores", len(stores)),
		zap.String("selected", session.StoreID))

	dtos := make([]StoreDTO, 0, len(stores))
	for _, st := range stores {
		dtos = append(dtos, StoreDTO{ID: st.ID, Name: st.Name})
	}
	return dtos, nil
}

// Sync pulls the selected store's templates and reconciles the local
// mirror: new templates are created, known ones updated, and mirrors the
// vendor reports disabled are removed.
func (s *TemplateService) Sync(ctx context.Context) (*SyncSummary, error) {
	session, err := s.sessions.EnsureFreshToken(ctx)
	if err != nil {
		return nil, err
	}
	if session.AgencyID == "" || session.MerchantID == "" {
		return nil, fmt.Errorf("%w: agency and merchant identifiers are not set, connect first", esl.ErrValidation)
	}
	if session.StoreID == "" {
		return nil, fmt.Errorf("%w: no store selected, fetch stores first", esl.ErrValidation)
	}

	infos, err := s.vendor.ListTemplates(ctx, session.Ref())
	if err != nil {
		return nil, err
	}

	// Mirrors absent from the reply are kept untouched: the vendor pages
	// template lists, so absence is not evidence of removal. Only an
	// explicit disabled flag deletes a mirror.
	summary := &SyncSummary{}

	for _, info := range infos {
		existing, err := s.templates.FindByVendorID(ctx, info.ID)
		if err != nil {
			return nil, err
		}

		if !info.Enabled {
			if existing != nil {
				if err := s.templates.Delete(ctx, existing); err != nil {
					return nil, err
				}
				summary.Deleted++
			}
			continue
		}

		if existing == nil {
			created, err := esl.NewTemplate(info)
			if err != nil {
				return nil, err
			}
			if err := s.templates.Save(ctx, created); err != nil {
				return nil, err
			}
			summary.Created++
			continue
		}

		existing.ApplyInfo(info)
		if err := s.templates.Save(ctx, existing); err != nil {
			return nil, err
		}
		summary.Updated++
	}

	s.logger.Info("template mirror synced",
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("deleted", summary.Deleted))
	return summary, nil
}

// Reset drops the whole local mirror. The next Sync rebuilds it from the
// vendor.
func (s *TemplateService) Reset(ctx context.Context) error {
	if err := s.templates.DeleteAll(ctx); err != nil {
		return err
	}
	s.logger.Info("template mirror cleared")
	return nil
}

// List returns the mirrored templates with preview URLs and slot state
func (s *TemplateService) List(ctx context.Context) ([]TemplateResponse, error) {
	all, err := s.templates.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]TemplateResponse, 0, len(all))
	for _, t := range all {
		responses = append(responses, s.toResponse(t))
	}
	return responses, nil
}

// Notification renders a sync summary for the operator
func (s *TemplateService) Notification(summary *SyncSummary) *Notification {
	return successNotification("Template sync",
		fmt.Sprintf("%d created, %d updated, %d removed", summary.Created, summary.Updated, summary.Deleted))
}

func (s *TemplateService) toResponse(t *esl.Template) TemplateResponse {
	return TemplateResponse{
		ID:             t.ID.String(),
		VendorID:       t.VendorID,
		TemplateNumber: t.TemplateNumber,
		Name:           t.Name,
		Size:           t.Size,
		Resolution:     t.Resolution,
		Hardware:       t.Hardware,
		ItemCapacity:   t.ItemCapacity,
		PreviewURL:     t.PreviewURL(s.assetBase),
		Enabled:        t.Enabled,
		Slots:          t.SlotList(),
	}
}
