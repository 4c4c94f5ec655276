package esl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/esl-addon/internal/domain/catalog"
	"github.com/erp/esl-addon/internal/domain/esl"
)

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

type fakeVendor struct {
	authFn      func(ctx context.Context, username, password string) (*esl.AuthResult, error)
	storesFn    func(ctx context.Context, ref esl.SessionRef) ([]esl.StoreInfo, error)
	templatesFn func(ctx context.Context, ref esl.SessionRef) ([]esl.TemplateInfo, error)
	sendFn      func(ctx context.Context, ref esl.SessionRef, items []esl.ExportItem) (*esl.BatchResponse, error)
	bindFn      func(ctx context.Context, ref esl.SessionRef, productCode, labelCode string) error
	bindGroupFn func(ctx context.Context, ref esl.SessionRef, templateID, labelCode string, barcodes []string) error
	unbindFn    func(ctx context.Context, ref esl.SessionRef, labelCode string) error
}

func (f *fakeVendor) Authenticate(ctx context.Context, username, password string) (*esl.AuthResult, error) {
	if f.authFn != nil {
		return f.authFn(ctx, username, password)
	}
	return &esl.AuthResult{Token: "tok-fresh", AgencyID: "A1", MerchantID: "M1"}, nil
}

func (f *fakeVendor) ListStores(ctx context.Context, ref esl.SessionRef) ([]esl.StoreInfo, error) {
	if f.storesFn != nil {
		return f.storesFn(ctx, ref)
	}
	return []esl.StoreInfo{{ID: "7", Name: "Main"}}, nil
}

func (f *fakeVendor) ListTemplates(ctx context.Context, ref esl.SessionRef) ([]esl.TemplateInfo, error) {
	if f.templatesFn != nil {
		return f.templatesFn(ctx, ref)
	}
	return nil, esl.ErrEmptyResult
}

func (f *fakeVendor) SendItems(ctx context.Context, ref esl.SessionRef, items []esl.ExportItem) (*esl.BatchResponse, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, ref, items)
	}
	return &esl.BatchResponse{Message: "ok"}, nil
}

func (f *fakeVendor) BindLabel(ctx context.Context, ref esl.SessionRef, productCode, labelCode string) error {
	if f.bindFn != nil {
		return f.bindFn(ctx, ref, productCode, labelCode)
	}
	return nil
}

func (f *fakeVendor) BindLabelGroup(ctx context.Context, ref esl.SessionRef, templateID, labelCode string, barcodes []string) error {
	if f.bindGroupFn != nil {
		return f.bindGroupFn(ctx, ref, templateID, labelCode, barcodes)
	}
	return nil
}

func (f *fakeVendor) UnbindLabel(ctx context.Context, ref esl.SessionRef, labelCode string) error {
	if f.unbindFn != nil {
		return f.unbindFn(ctx, ref, labelCode)
	}
	return nil
}

type memSessionRepo struct {
	session *esl.Session
}

func (r *memSessionRepo) Create(ctx context.Context, session *esl.Session) error {
	if r.session != nil {
		return esl.ErrSessionExists
	}
	r.session = session
	return nil
}

func (r *memSessionRepo) Get(ctx context.Context) (*esl.Session, error) {
	if r.session == nil {
		return nil, esl.ErrSessionNotFound
	}
	return r.session, nil
}

func (r *memSessionRepo) Save(ctx context.Context, session *esl.Session) error {
	r.session = session
	return nil
}

func (r *memSessionRepo) Delete(ctx context.Context, session *esl.Session) error {
	r.session = nil
	return nil
}

type memTemplateRepo struct {
	byVendorID map[string]*esl.Template
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{byVendorID: make(map[string]*esl.Template)}
}

func (r *memTemplateRepo) FindByVendorID(ctx context.Context, vendorID string) (*esl.Template, error) {
	return r.byVendorID[vendorID], nil
}

func (r *memTemplateRepo) FindAll(ctx context.Context) ([]*esl.Template, error) {
	all := make([]*esl.Template, 0, len(r.byVendorID))
	for _, t := range r.byVendorID {
		all = append(all, t)
	}
	return all, nil
}

func (r *memTemplateRepo) Save(ctx context.Context, template *esl.Template) error {
	r.byVendorID[template.VendorID] = template
	return nil
}

func (r *memTemplateRepo) Delete(ctx context.Context, template *esl.Template) error {
	delete(r.byVendorID, template.VendorID)
	return nil
}

func (r *memTemplateRepo) DeleteAll(ctx context.Context) error {
	r.byVendorID = make(map[string]*esl.Template)
	return nil
}

type memProductRepo struct {
	products []*catalog.Product
}

func (r *memProductRepo) FindAll(ctx context.Context) ([]*catalog.Product, error) {
	return r.products, nil
}

func (r *memProductRepo) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode || p.Code == barcode {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) Save(ctx context.Context, product *catalog.Product) error {
	r.products = append(r.products, product)
	return nil
}

func (r *memProductRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.products)), nil
}

type recordingListener struct {
	interval time.Duration
	active   bool
	calls    int
}

func (l *recordingListener) ScheduleChanged(interval time.Duration, active bool) {
	l.interval = interval
	l.active = active
	l.calls++
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func connectedSession(t *testing.T) *esl.Session {
	t.Helper()
	session, err := esl.NewSession("operator", "secret", "pharmacy-01")
	require.NoError(t, err)
	session.MarkConnected(&esl.AuthResult{Token: "tok-live", AgencyID: "A1", MerchantID: "M1"}, time.Now())
	session.StoreID = "7"
	return session
}

func seedProducts(n int) *memProductRepo {
	repo := &memProductRepo{}
	for i := 0; i < n; i++ {
		p, _ := catalog.NewProduct(fmt.Sprintf("P-%03d", i), fmt.Sprintf("Product %d", i))
		p.Barcode = fmt.Sprintf("40%05d", i)
		p.SellingPrice = decimal.NewFromFloat(1.50)
		repo.products = append(repo.products, p)
	}
	return repo
}

func newServices(sessions *memSessionRepo, products *memProductRepo, templates *memTemplateRepo, vendor *fakeVendor) (*SessionService, *ExportService, *TemplateService, *BindService) {
	logger := zap.NewNop()
	sessionSvc := NewSessionService(sessions, vendor, nil, logger)
	exportSvc := NewExportService(products, sessionSvc, vendor, logger)
	templateSvc := NewTemplateService(templates, sessionSvc, vendor, "https://esl.example.com/", logger)
	bindSvc := NewBindService(products, templates, sessionSvc, vendor, logger)
	return sessionSvc, exportSvc, templateSvc, bindSvc
}

// ---------------------------------------------------------------------------
// Session service
// ---------------------------------------------------------------------------

func TestSessionService_Create_Singleton(t *testing.T) {
	sessions := &memSessionRepo{}
	svc, _, _, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), &fakeVendor{})

	req := CreateSessionRequest{Login: "operator", Password: "secret", UniqueID: "pharmacy-01"}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, esl.ErrSessionExists)
}

func TestSessionService_Connect_PersistsTokenState(t *testing.T) {
	sessions := &memSessionRepo{}
	session, err := esl.NewSession("operator", "secret", "pharmacy-01")
	require.NoError(t, err)
	sessions.session = session

	svc, _, _, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), &fakeVendor{})
	resp, err := svc.Connect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, string(esl.SessionStatusConnected), resp.Status)
	assert.Equal(t, "A1", resp.AgencyID)
	assert.Equal(t, "tok-fresh", sessions.session.Token)
	require.NotNil(t, sessions.session.TokenExpiresAt)
}

func TestSessionService_Connect_FailureFlagsSessionKeepsToken(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	vendor := &fakeVendor{authFn: func(ctx context.Context, u, p string) (*esl.AuthResult, error) {
		return nil, esl.ErrAuth
	}}

	svc, _, _, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), vendor)
	_, err := svc.Connect(context.Background())

	assert.ErrorIs(t, err, esl.ErrAuth)
	assert.Equal(t, esl.SessionStatusError, sessions.session.Status)
	assert.Equal(t, "tok-live", sessions.session.Token, "prior token survives a failed handshake")
}

func TestSessionService_EnsureFreshToken(t *testing.T) {
	t.Run("fresh token skips handshake", func(t *testing.T) {
		sessions := &memSessionRepo{session: connectedSession(t)}
		authCalls := 0
		vendor := &fakeVendor{authFn: func(ctx context.Context, u, p string) (*esl.AuthResult, error) {
			authCalls++
			return &esl.AuthResult{Token: "tok-new"}, nil
		}}

		svc, _, _, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), vendor)
		session, err := svc.EnsureFreshToken(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "tok-live", session.Token)
		assert.Zero(t, authCalls)
	})

	t.Run("stale token re-authenticates", func(t *testing.T) {
		stale := connectedSession(t)
		expired := time.Now().Add(-time.Minute)
		stale.TokenExpiresAt = &expired
		sessions := &memSessionRepo{session: stale}

		svc, _, _, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), &fakeVendor{})
		session, err := svc.EnsureFreshToken(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "tok-fresh", session.Token)
		assert.True(t, session.TokenFresh(time.Now()))
	})
}

func TestSessionService_UpdateSchedule_NotifiesListener(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	listener := &recordingListener{}
	svc := NewSessionService(sessions, &fakeVendor{}, listener, zap.NewNop())

	resp, err := svc.UpdateSchedule(context.Background(), UpdateScheduleRequest{
		IntervalNumber: 30,
		IntervalUnit:   "minutes",
		Active:         true,
	})

	require.NoError(t, err)
	assert.True(t, resp.SyncActive)
	assert.Equal(t, 1, listener.calls)
	assert.Equal(t, 30*time.Minute, listener.interval)
	assert.True(t, listener.active)
}

func TestSessionService_SetStore_RejectsUnknown(t *testing.T) {
	session := connectedSession(t)
	require.NoError(t, session.SetStores([]esl.StoreInfo{{ID: "7", Name: "Main"}}))
	sessions := &memSessionRepo{session: session}

	svc, _, _, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), &fakeVendor{})

	_, err := svc.SetStore(context.Background(), "99")
	assert.Error(t, err)

	resp, err := svc.SetStore(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", resp.StoreID)
}

// ---------------------------------------------------------------------------
// Export service
// ---------------------------------------------------------------------------

func TestExportService_Export_BatchCount(t *testing.T) {
	session := connectedSession(t)
	session.BatchSize = 10
	sessions := &memSessionRepo{session: session}

	var batchSizes []int
	vendor := &fakeVendor{sendFn: func(ctx context.Context, ref esl.SessionRef, items []esl.ExportItem) (*esl.BatchResponse, error) {
		batchSizes = append(batchSizes, len(items))
		return &esl.BatchResponse{Message: "accepted"}, nil
	}}

	_, exportSvc, _, _ := newServices(sessions, seedProducts(25), newMemTemplateRepo(), vendor)
	summary, err := exportSvc.Export(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 5}, batchSizes)
	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, 25, summary.TotalItems)
	assert.Zero(t, summary.FailedChunks)
	assert.Equal(t, "accepted", summary.LastMessage)
	assert.NotNil(t, sessions.session.LastImportAt)
}

func TestExportService_Export_ChunkFailureIsolated(t *testing.T) {
	session := connectedSession(t)
	session.BatchSize = 10
	sessions := &memSessionRepo{session: session}

	call := 0
	vendor := &fakeVendor{sendFn: func(ctx context.Context, ref esl.SessionRef, items []esl.ExportItem) (*esl.BatchResponse, error) {
		call++
		if call == 2 {
			return nil, esl.ErrVendorAPI
		}
		return &esl.BatchResponse{Message: "ok"}, nil
	}}

	_, exportSvc, _, _ := newServices(sessions, seedProducts(25), newMemTemplateRepo(), vendor)
	summary, err := exportSvc.Export(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Batches, "remaining chunks still go out")
	assert.Equal(t, 1, summary.FailedChunks)
	assert.Equal(t, esl.SessionStatusError, sessions.session.Status)
	assert.Nil(t, sessions.session.LastImportAt, "partial failure does not stamp the import")
}

func TestExportService_Export_CleanRunClearsErrorFlag(t *testing.T) {
	session := connectedSession(t)
	session.MarkError(time.Now())
	sessions := &memSessionRepo{session: session}

	_, exportSvc, _, _ := newServices(sessions, seedProducts(3), newMemTemplateRepo(), &fakeVendor{})
	summary, err := exportSvc.Export(context.Background())

	require.NoError(t, err)
	assert.Zero(t, summary.FailedChunks)
	assert.Equal(t, esl.SessionStatusConnected, sessions.session.Status,
		"clean export repairs a stale error flag")
	assert.NotNil(t, sessions.session.LastImportAt)
}

func TestExportService_Export_DefaultBatchIsSingleCall(t *testing.T) {
	session := connectedSession(t)
	session.BatchSize = 0
	sessions := &memSessionRepo{session: session}

	calls := 0
	vendor := &fakeVendor{sendFn: func(ctx context.Context, ref esl.SessionRef, items []esl.ExportItem) (*esl.BatchResponse, error) {
		calls++
		return &esl.BatchResponse{}, nil
	}}

	_, exportSvc, _, _ := newServices(sessions, seedProducts(120), newMemTemplateRepo(), vendor)
	summary, err := exportSvc.Export(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, esl.DefaultBatchSize, summary.BatchSize)
}

func TestExportService_BuildPayload_BarcodeFallback(t *testing.T) {
	products := &memProductRepo{}
	withBarcode, _ := catalog.NewProduct("P-001", "With barcode")
	withBarcode.Barcode = "4001"
	withoutBarcode, _ := catalog.NewProduct("P-002", "Without barcode")
	products.products = []*catalog.Product{withBarcode, withoutBarcode}

	_, exportSvc, _, _ := newServices(&memSessionRepo{}, products, newMemTemplateRepo(), &fakeVendor{})
	items, err := exportSvc.BuildPayload(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "4001", items[0].BarCode)
	assert.Equal(t, "P-002", items[1].BarCode, "code stands in for a missing barcode")
}

// ---------------------------------------------------------------------------
// Template service
// ---------------------------------------------------------------------------

func TestTemplateService_FetchStores_AutoSelectsFirst(t *testing.T) {
	session := connectedSession(t)
	session.StoreID = ""
	sessions := &memSessionRepo{session: session}
	vendor := &fakeVendor{storesFn: func(ctx context.Context, ref esl.SessionRef) ([]esl.StoreInfo, error) {
		return []esl.StoreInfo{{ID: "7", Name: "Main"}, {ID: "8", Name: "Annex"}}, nil
	}}

	_, _, templateSvc, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), vendor)
	stores, err := templateSvc.FetchStores(context.Background())

	require.NoError(t, err)
	assert.Len(t, stores, 2)
	assert.Equal(t, "7", sessions.session.StoreID)
}

func TestTemplateService_FetchStores_Empty(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	vendor := &fakeVendor{storesFn: func(ctx context.Context, ref esl.SessionRef) ([]esl.StoreInfo, error) {
		return nil, nil
	}}

	_, _, templateSvc, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), vendor)
	_, err := templateSvc.FetchStores(context.Background())
	assert.ErrorIs(t, err, esl.ErrEmptyResult)
}

func TestTemplateService_Sync_Reconciles(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	templates := newMemTemplateRepo()

	// Pre-existing mirrors: one updated, one turned off on the vendor
	// side, one absent from this reply
	known, err := esl.NewTemplate(esl.TemplateInfo{ID: "42", Name: "Old name", ItemCapacity: 2, Enabled: true})
	require.NoError(t, err)
	require.NoError(t, templates.Save(context.Background(), known))
	stale, err := esl.NewTemplate(esl.TemplateInfo{ID: "44", Name: "Disabled", ItemCapacity: 1, Enabled: true})
	require.NoError(t, err)
	require.NoError(t, templates.Save(context.Background(), stale))
	unlisted, err := esl.NewTemplate(esl.TemplateInfo{ID: "99", Name: "Unlisted", ItemCapacity: 1, Enabled: true})
	require.NoError(t, err)
	require.NoError(t, templates.Save(context.Background(), unlisted))

	vendor := &fakeVendor{templatesFn: func(ctx context.Context, ref esl.SessionRef) ([]esl.TemplateInfo, error) {
		return []esl.TemplateInfo{
			{ID: "42", Name: "New name", ItemCapacity: 3, Enabled: true},
			{ID: "43", Name: "Fresh", ItemCapacity: 1, Enabled: true},
			{ID: "44", Name: "Disabled", ItemCapacity: 1, Enabled: false},
		}, nil
	}}

	_, _, templateSvc, _ := newServices(sessions, &memProductRepo{}, templates, vendor)
	summary, err := templateSvc.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Deleted, "only the disabled mirror is removed")

	updated := templates.byVendorID["42"]
	require.NotNil(t, updated)
	assert.Equal(t, "New name", updated.Name)
	assert.Len(t, updated.SlotList(), 3, "slot list follows the new capacity")
	assert.Nil(t, templates.byVendorID["44"], "disabled template loses its mirror")
	require.NotNil(t, templates.byVendorID["99"], "mirror absent from a paged reply survives")
	assert.Len(t, templates.byVendorID["99"].SlotList(), 1, "its slot assignments stay intact")
}

func TestTemplateService_Sync_RequiresIdentifiers(t *testing.T) {
	session := connectedSession(t)
	session.AgencyID = ""
	sessions := &memSessionRepo{session: session}

	_, _, templateSvc, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), &fakeVendor{})
	_, err := templateSvc.Sync(context.Background())
	assert.ErrorIs(t, err, esl.ErrValidation)
}

func TestTemplateService_Sync_RequiresStore(t *testing.T) {
	session := connectedSession(t)
	session.StoreID = ""
	sessions := &memSessionRepo{session: session}

	_, _, templateSvc, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), &fakeVendor{})
	_, err := templateSvc.Sync(context.Background())
	assert.ErrorIs(t, err, esl.ErrValidation)
}

func TestTemplateService_List_IncludesPreviewURL(t *testing.T) {
	templates := newMemTemplateRepo()
	tmpl, err := esl.NewTemplate(esl.TemplateInfo{ID: "42", Name: "Strip", ItemCapacity: 3, PreviewPath: "pic/42.png", Enabled: true})
	require.NoError(t, err)
	require.NoError(t, templates.Save(context.Background(), tmpl))

	_, _, templateSvc, _ := newServices(&memSessionRepo{}, &memProductRepo{}, templates, &fakeVendor{})
	list, err := templateSvc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "https://esl.example.com/pic/42.png", list[0].PreviewURL)
	assert.Len(t, list[0].Slots, 3)
}

func TestTemplateService_Reset_ClearsMirror(t *testing.T) {
	templates := newMemTemplateRepo()
	tmpl, err := esl.NewTemplate(esl.TemplateInfo{ID: "42", Name: "Strip", ItemCapacity: 3, Enabled: true})
	require.NoError(t, err)
	require.NoError(t, templates.Save(context.Background(), tmpl))

	_, _, templateSvc, _ := newServices(&memSessionRepo{}, &memProductRepo{}, templates, &fakeVendor{})
	require.NoError(t, templateSvc.Reset(context.Background()))

	list, err := templateSvc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ---------------------------------------------------------------------------
// Bind service
// ---------------------------------------------------------------------------

func TestBindService_SingleBind_TwoScanFlow(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	products := seedProducts(1)

	var boundProduct, boundLabel string
	vendor := &fakeVendor{bindFn: func(ctx context.Context, ref esl.SessionRef, productCode, labelCode string) error {
		boundProduct, boundLabel = productCode, labelCode
		return nil
	}}

	_, _, _, bindSvc := newServices(sessions, products, newMemTemplateRepo(), vendor)
	ctx := context.Background()

	resp, err := bindSvc.Scan(ctx, "4000000")
	require.NoError(t, err)
	assert.Equal(t, string(esl.BindStateProductScanned), resp.State)
	assert.Equal(t, "Product 0", resp.ProductName)

	resp, err = bindSvc.Scan(ctx, "E-55")
	require.NoError(t, err)
	assert.Equal(t, string(esl.BindStateIdle), resp.State, "machine returns to idle after the call")
	assert.Equal(t, "4000000", boundProduct)
	assert.Equal(t, "E-55", boundLabel)
	assert.Equal(t, SeveritySuccess, resp.Notification.Severity)
}

func TestBindService_SingleBind_UnknownProductStaysIdle(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	_, _, _, bindSvc := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), &fakeVendor{})

	resp, err := bindSvc.Scan(context.Background(), "no-such-code")
	require.NoError(t, err)
	assert.Equal(t, string(esl.BindStateIdle), resp.State)
	assert.Equal(t, SeverityWarning, resp.Notification.Severity)
}

func TestBindService_SingleBind_VendorFailureResets(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	vendor := &fakeVendor{bindFn: func(ctx context.Context, ref esl.SessionRef, p, l string) error {
		return esl.ErrVendorAPI
	}}

	_, _, _, bindSvc := newServices(sessions, seedProducts(1), newMemTemplateRepo(), vendor)
	ctx := context.Background()

	_, err := bindSvc.Scan(ctx, "4000000")
	require.NoError(t, err)

	resp, err := bindSvc.Scan(ctx, "E-55")
	require.NoError(t, err)
	assert.Equal(t, string(esl.BindStateIdle), resp.State, "failure still yields a blank request")
	assert.Equal(t, SeverityDanger, resp.Notification.Severity)
}

func TestBindService_ResetScan(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	_, _, _, bindSvc := newServices(sessions, seedProducts(1), newMemTemplateRepo(), &fakeVendor{})

	_, err := bindSvc.Scan(context.Background(), "4000000")
	require.NoError(t, err)

	resp := bindSvc.ResetScan()
	assert.Equal(t, string(esl.BindStateIdle), resp.State)
	assert.Empty(t, resp.ProductCode)
}

func TestBindService_MultiBind_FillAndFire(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	products := seedProducts(3)
	templates := newMemTemplateRepo()
	tmpl, err := esl.NewTemplate(esl.TemplateInfo{ID: "42", Name: "Strip", ItemCapacity: 2, Enabled: true})
	require.NoError(t, err)
	require.NoError(t, templates.Save(context.Background(), tmpl))

	var gotBarcodes []string
	vendor := &fakeVendor{bindGroupFn: func(ctx context.Context, ref esl.SessionRef, templateID, labelCode string, barcodes []string) error {
		assert.Equal(t, "42", templateID)
		assert.Equal(t, "E-55", labelCode)
		gotBarcodes = barcodes
		return nil
	}}

	_, _, _, bindSvc := newServices(sessions, products, templates, vendor)
	ctx := context.Background()

	resp, err := bindSvc.MultiBindScan(ctx, MultiBindRequest{TemplateID: "42", Barcode: "4000000"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Occupied)

	// Duplicate scan is rejected without losing the slot
	resp, err = bindSvc.MultiBindScan(ctx, MultiBindRequest{TemplateID: "42", Barcode: "4000000"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Occupied)
	assert.Equal(t, SeverityWarning, resp.Notification.Severity)

	resp, err = bindSvc.MultiBindScan(ctx, MultiBindRequest{TemplateID: "42", Barcode: "4000001"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Occupied)

	// A third product does not fit
	resp, err = bindSvc.MultiBindScan(ctx, MultiBindRequest{TemplateID: "42", Barcode: "4000002"})
	require.NoError(t, err)
	assert.Equal(t, SeverityWarning, resp.Notification.Severity)

	resp, err = bindSvc.MultiBindScan(ctx, MultiBindRequest{TemplateID: "42", LabelCode: "E-55"})
	require.NoError(t, err)
	assert.Equal(t, []string{"4000000", "4000001"}, gotBarcodes)
	assert.Zero(t, resp.Occupied, "slots reset after the group bind")
	assert.Equal(t, SeveritySuccess, resp.Notification.Severity)
}

func TestBindService_MultiBind_SlotsResetEvenOnFailure(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	templates := newMemTemplateRepo()
	tmpl, err := esl.NewTemplate(esl.TemplateInfo{ID: "42", ItemCapacity: 2, Enabled: true})
	require.NoError(t, err)
	require.NoError(t, templates.Save(context.Background(), tmpl))

	vendor := &fakeVendor{bindGroupFn: func(ctx context.Context, ref esl.SessionRef, templateID, labelCode string, barcodes []string) error {
		return esl.ErrVendorAPI
	}}

	_, _, _, bindSvc := newServices(sessions, seedProducts(1), templates, vendor)
	ctx := context.Background()

	_, err = bindSvc.MultiBindScan(ctx, MultiBindRequest{TemplateID: "42", Barcode: "4000000"})
	require.NoError(t, err)

	resp, err := bindSvc.MultiBindScan(ctx, MultiBindRequest{TemplateID: "42", LabelCode: "E-55"})
	require.NoError(t, err)
	assert.Zero(t, resp.Occupied)
	assert.Equal(t, SeverityDanger, resp.Notification.Severity)
}

func TestBindService_MultiBind_FireWithoutProducts(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	templates := newMemTemplateRepo()
	tmpl, err := esl.NewTemplate(esl.TemplateInfo{ID: "42", ItemCapacity: 2, Enabled: true})
	require.NoError(t, err)
	require.NoError(t, templates.Save(context.Background(), tmpl))

	_, _, _, bindSvc := newServices(sessions, &memProductRepo{}, templates, &fakeVendor{})
	_, err = bindSvc.MultiBindScan(context.Background(), MultiBindRequest{TemplateID: "42", LabelCode: "E-55"})
	assert.ErrorIs(t, err, esl.ErrValidation)
}

func TestBindService_Unbind(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	var unboundLabel string
	vendor := &fakeVendor{unbindFn: func(ctx context.Context, ref esl.SessionRef, labelCode string) error {
		unboundLabel = labelCode
		return nil
	}}

	_, _, _, bindSvc := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), vendor)
	n, err := bindSvc.Unbind(context.Background(), "E-55")

	require.NoError(t, err)
	assert.Equal(t, "E-55", unboundLabel)
	assert.Equal(t, SeveritySuccess, n.Severity)
}

// ---------------------------------------------------------------------------
// Workflows
// ---------------------------------------------------------------------------

func TestWorkflowService_FirstConnection(t *testing.T) {
	sessions := &memSessionRepo{}
	session, err := esl.NewSession("operator", "secret", "pharmacy-01")
	require.NoError(t, err)
	sessions.session = session

	vendor := &fakeVendor{
		templatesFn: func(ctx context.Context, ref esl.SessionRef) ([]esl.TemplateInfo, error) {
			return []esl.TemplateInfo{{ID: "42", Name: "Strip", ItemCapacity: 2, Enabled: true}}, nil
		},
	}

	templates := newMemTemplateRepo()
	sessionSvc, exportSvc, templateSvc, _ := newServices(sessions, &memProductRepo{}, templates, vendor)
	workflow := NewWorkflowService(sessionSvc, exportSvc, templateSvc, zap.NewNop())

	resp, err := workflow.FirstConnection(context.Background())

	require.NoError(t, err)
	assert.Equal(t, string(esl.SessionStatusConnected), resp.Status)
	assert.Equal(t, "7", resp.StoreID, "first store auto-selected")
	assert.NotNil(t, templates.byVendorID["42"])
}

func TestWorkflowService_FirstConnection_AbortsOnHandshakeFailure(t *testing.T) {
	sessions := &memSessionRepo{}
	session, err := esl.NewSession("operator", "wrong", "pharmacy-01")
	require.NoError(t, err)
	sessions.session = session

	storeCalls := 0
	vendor := &fakeVendor{
		authFn: func(ctx context.Context, u, p string) (*esl.AuthResult, error) {
			return nil, esl.ErrAuth
		},
		storesFn: func(ctx context.Context, ref esl.SessionRef) ([]esl.StoreInfo, error) {
			storeCalls++
			return nil, nil
		},
	}

	sessionSvc, exportSvc, templateSvc, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), vendor)
	workflow := NewWorkflowService(sessionSvc, exportSvc, templateSvc, zap.NewNop())

	_, err = workflow.FirstConnection(context.Background())
	assert.ErrorIs(t, err, esl.ErrAuth)
	assert.Zero(t, storeCalls, "later steps do not run")
}

func TestWorkflowService_FirstConnection_FlagsErrorOnStoreFailure(t *testing.T) {
	sessions := &memSessionRepo{}
	session, err := esl.NewSession("operator", "secret", "pharmacy-01")
	require.NoError(t, err)
	sessions.session = session

	vendor := &fakeVendor{
		storesFn: func(ctx context.Context, ref esl.SessionRef) ([]esl.StoreInfo, error) {
			return nil, nil
		},
	}

	sessionSvc, exportSvc, templateSvc, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), vendor)
	workflow := NewWorkflowService(sessionSvc, exportSvc, templateSvc, zap.NewNop())

	_, err = workflow.FirstConnection(context.Background())

	assert.ErrorIs(t, err, esl.ErrEmptyResult)
	assert.Equal(t, esl.SessionStatusError, sessions.session.Status,
		"a failing step after the handshake flags the session")
	assert.NotEmpty(t, sessions.session.Token, "token from the handshake is kept")
}

func TestWorkflowService_FirstConnection_FlagsErrorOnTemplateFailure(t *testing.T) {
	sessions := &memSessionRepo{}
	session, err := esl.NewSession("operator", "secret", "pharmacy-01")
	require.NoError(t, err)
	sessions.session = session

	// Default fake vendor: stores succeed, template list is empty
	sessionSvc, exportSvc, templateSvc, _ := newServices(sessions, &memProductRepo{}, newMemTemplateRepo(), &fakeVendor{})
	workflow := NewWorkflowService(sessionSvc, exportSvc, templateSvc, zap.NewNop())

	_, err = workflow.FirstConnection(context.Background())

	assert.ErrorIs(t, err, esl.ErrEmptyResult)
	assert.Equal(t, esl.SessionStatusError, sessions.session.Status)
}

func TestWorkflowService_AutoSyncAll(t *testing.T) {
	sessions := &memSessionRepo{session: connectedSession(t)}
	sessionSvc, exportSvc, templateSvc, _ := newServices(sessions, seedProducts(5), newMemTemplateRepo(), &fakeVendor{})
	workflow := NewWorkflowService(sessionSvc, exportSvc, templateSvc, zap.NewNop())

	summary, err := workflow.AutoSyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalItems)
	assert.Equal(t, 1, summary.Batches)
}
