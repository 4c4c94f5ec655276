package esl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/esl-addon/internal/domain/catalog"
	"github.com/erp/esl-addon/internal/domain/esl"
)

// ExportService uploads the product catalog to the vendor in batches
type ExportService struct {
	products catalog.ProductRepository
	sessions *SessionService
	vendor   esl.LabelVendor
	logger   *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(products catalog.ProductRepository, sessions *SessionService, vendor esl.LabelVendor, logger *zap.Logger) *ExportService {
	return &ExportService{
		products: products,
		sessions: sessions,
		vendor:   vendor,
		logger:   logger,
	}
}

// BuildPayload converts the full catalog into vendor export items. Every
// product goes out; barcode falls back to the internal code.
func (s *ExportService) BuildPayload(ctx context.Context) ([]esl.ExportItem, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]esl.ExportItem, 0, len(products))
	for _, p := range products {
		items = append(items, esl.NewExportItem(
			p.ExportBarcode(), p.Name, p.Code, p.SellingPrice, p.StockQty))
	}
	return items, nil
}

// Export uploads the whole catalog in batches of the session's configured
// size. A failed chunk flags the session but does not stop the remaining
// chunks; the summary reports how many chunks failed.
func (s *ExportService) Export(ctx context.Context) (*ExportSummary, error) {
	session, err := s.sessions.EnsureFreshToken(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.BuildPayload(ctx)
	if err != nil {
		return nil, err
	}

	batchSize := session.EffectiveBatchSize()
	summary := &ExportSummary{
		TotalItems: len(items),
		BatchSize:  batchSize,
	}

	ref := session.Ref()
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]
		summary.Batches++

		resp, err := s.vendor.SendItems(ctx, ref, chunk)
		if err != nil {
			summary.FailedChunks++
			session.MarkError(s.sessions.now())
			s.logger.Error("item batch upload failed",
				zap.Int("batch", summary.Batches),
				zap.Int("items", len(chunk)),
				zap.Error(err))
			continue
		}
		summary.LastMessage = resp.Message
		s.logger.Info("item batch uploaded",
			zap.Int("batch", summary.Batches),
			zap.Int("items", len(chunk)))
	}

	if summary.FailedChunks == 0 && summary.TotalItems > 0 {
		session.RecordImport(s.sessions.now())
	}
	if err := s.sessions.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("catalog export finished",
		zap.Int("totalItems", summary.TotalItems),
		zap.Int("batches", summary.Batches),
		zap.Int("failedChunks", summary.FailedChunks))
	return summary, nil
}

// Notification renders an export summary for the operator
func (s *ExportService) Notification(summary *ExportSummary) *Notification {
	if summary.FailedChunks > 0 {
		return warningNotification("Catalog export",
			fmt.Sprintf("%d of %d batches failed; %d items total", summary.FailedChunks, summary.Batches, summary.TotalItems))
	}
	msg := fmt.Sprintf("%d items sent in %d batches", summary.TotalItems, summary.Batches)
	if summary.LastMessage != "" {
		msg = fmt.Sprintf("%s (%s)", msg, summary.LastMessage)
	}
	return successNotification("Catalog export", msg)
}
