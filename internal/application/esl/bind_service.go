package esl

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/erp/esl-addon/internal/domain/catalog"
	"github.com/erp/esl-addon/internal/domain/esl"
)

// BindService runs the scan-driven bind and unbind workflows. The single
// bind flow is a two-scan state machine held in memory: first scan resolves
// a product, second scan is taken as the label code and fires the bind.
type BindService struct {
	products  catalog.ProductRepository
	templates esl.TemplateRepository
	sessions  *SessionService
	vendor    esl.LabelVendor
	logger    *zap.Logger

	mu      sync.Mutex
	current *esl.BindRequest
}

// NewBindService creates a BindService with a blank scan session
func NewBindService(products catalog.ProductRepository, templates esl.TemplateRepository, sessions *SessionService, vendor esl.LabelVendor, logger *zap.Logger) *BindService {
	return &BindService{
		products:  products,
		templates: templates,
		sessions:  sessions,
		vendor:    vendor,
		logger:    logger,
		current:   esl.NewBindRequest(),
	}
}

// Scan feeds one barcode into the single-bind state machine. Whatever the
// vendor call returns, the machine ends up on a fresh blank request so the
// next scan starts over.
func (s *BindService) Scan(ctx context.Context, code string) (*BindStateResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: empty scan", esl.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.State == esl.BindStateIdle {
		return s.scanProduct(ctx, code)
	}
	return s.scanLabel(ctx, code)
}

// ResetScan abandons the scan in progress
func (s *BindService) ResetScan() *BindStateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = esl.NewBindRequest()
	return s.stateResponse(nil)
}

func (s *BindService) scanProduct(ctx context.Context, code string) (*BindStateResponse, error) {
	product, err := s.products.FindByBarcode(ctx, code)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return s.stateResponse(warningNotification("Bind",
			fmt.Sprintf("No product matches %q, scan a product first", code))), nil
	}

	s.current.ScanProduct(product.ExportBarcode(), product.Name)
	return s.stateResponse(successNotification("Bind",
		fmt.Sprintf("%s selected, now scan the label", product.Name))), nil
}

func (s *BindService) scanLabel(ctx context.Context, labelCode string) (*BindStateResponse, error) {
	session, err := s.sessions.EnsureFreshToken(ctx)
	if err != nil {
		return nil, err
	}

	productCode := s.current.ProductCode
	productName := s.current.ProductName
	s.current = esl.NewBindRequest()

	if err := s.vendor.BindLabel(ctx, session.Ref(), productCode, labelCode); err != nil {
		s.logger.Error("single bind failed",
			zap.String("product", productCode),
			zap.String("label", labelCode),
			zap.Error(err))
		return s.stateResponse(dangerNotification("Bind failed", err.Error())), nil
	}

	s.logger.Info("label bound",
		zap.String("product", productCode),
		zap.String("label", labelCode))
	return s.stateResponse(successNotification("Bind",
		fmt.Sprintf("%s bound to label %s", productName, labelCode))), nil
}

func (s *BindService) stateResponse(n *Notification) *BindStateResponse {
	return &BindStateResponse{
		State:        string(s.current.State),
		ProductCode:  s.current.ProductCode,
		ProductName:  s.current.ProductName,
		Notification: n,
	}
}

// MultiBindScan handles one step of the multi-product flow. A barcode scan
// fills the template's next free slot; a label code fires the group bind
// with everything collected so far. The slot list is cleared after the
// vendor call no matter how it went.
func (s *BindService) MultiBindScan(ctx context.Context, req MultiBindRequest) (*MultiBindResponse, error) {
	template, err := s.templates.FindByVendorID(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("%w: unknown template %q, sync templates first", esl.ErrValidation, req.TemplateID)
	}

	if req.LabelCode != "" {
		return s.fireGroupBind(ctx, template, req.LabelCode)
	}
	if req.Barcode == "" {
		return nil, fmt.Errorf("%w: scan a barcode or a label code", esl.ErrValidation)
	}
	return s.fillSlot(ctx, template, req.Barcode)
}

func (s *BindService) fillSlot(ctx context.Context, template *esl.Template, barcode string) (*MultiBindResponse, error) {
	product, err := s.products.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return s.multiResponse(template, warningNotification("Multi bind",
			fmt.Sprintf("No product matches %q", barcode))), nil
	}

	occupied, err := template.AssignSlot(product.ExportBarcode())
	switch {
	case err == esl.ErrSlotDuplicate:
		return s.multiResponse(template, warningNotification("Multi bind",
			fmt.Sprintf("%s is already in a slot", product.Name))), nil
	case err == esl.ErrSlotsFull:
		return s.multiResponse(template, warningNotification("Multi bind",
			"All slots are taken, scan the label to bind")), nil
	case err != nil:
		return nil, err
	}

	if err := s.templates.Save(ctx, template); err != nil {
		return nil, err
	}
	return s.multiResponse(template, successNotification("Multi bind",
		fmt.Sprintf("%s placed in slot %d of %d", product.Name, occupied, template.ItemCapacity))), nil
}

func (s *BindService) fireGroupBind(ctx context.Context, template *esl.Template, labelCode string) (*MultiBindResponse, error) {
	barcodes := template.AssignedBarcodes()
	if len(barcodes) == 0 {
		return nil, fmt.Errorf("%w: no products collected for this template", esl.ErrValidation)
	}

	session, err := s.sessions.EnsureFreshToken(ctx)
	if err != nil {
		return nil, err
	}

	bindErr := s.vendor.BindLabelGroup(ctx, session.Ref(), template.VendorID, labelCode, barcodes)

	template.ResetSlots()
	if err := s.templates.Save(ctx, template); err != nil {
		return nil, err
	}

	if bindErr != nil {
		s.logger.Error("group bind failed",
			zap.String("template", template.VendorID),
			zap.String("label", labelCode),
			zap.Error(bindErr))
		return s.multiResponse(template, dangerNotification("Multi bind failed", bindErr.Error())), nil
	}

	s.logger.Info("label group bound",
		zap.String("template", template.VendorID),
		zap.String("label", labelCode),
		zap.Int("products", len(barcodes)))
	return s.multiResponse(template, successNotification("Multi bind",
		fmt.Sprintf("%d products bound to label %s via %s", len(barcodes), labelCode, template.Name))), nil
}

func (s *BindService) multiResponse(template *esl.Template, n *Notification) *MultiBindResponse {
	slots := template.SlotList()
	occupied := 0
	for _, code := range slots {
		if code != esl.EmptySlot {
			occupied++
		}
	}
	return &MultiBindResponse{
		TemplateID:   template.VendorID,
		Occupied:     occupied,
		Capacity:     template.ItemCapacity,
		Slots:        slots,
		Notification: n,
	}
}

// Unbind detaches one label from whatever it is bound to
func (s *BindService) Unbind(ctx context.Context, labelCode string) (*Notification, error) {
	labelCode = strings.TrimSpace(labelCode)
	if labelCode == "" {
		return nil, fmt.Errorf("%w: label code is required", esl.ErrValidation)
	}

	session, err := s.sessions.EnsureFreshToken(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.vendor.UnbindLabel(ctx, session.Ref(), labelCode); err != nil {
		s.logger.Error("unbind failed", zap.String("label", labelCode), zap.Error(err))
		return dangerNotification("Unbind failed", err.Error()), nil
	}

	s.logger.Info("label unbound", zap.String("label", labelCode))
	return successNotification("Unbind", fmt.Sprintf("Label %s released", labelCode)), nil
}
