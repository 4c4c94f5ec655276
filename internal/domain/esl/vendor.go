package esl

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// AuthResult holds the outcome of a successful vendor authentication
type AuthResult struct {
	// Token is the bearer token for subsequent calls
	Token string
	// PublicKey is the PEM public key used to encrypt the password
	PublicKey string
	// AgencyID is the agency identifier reported by the vendor
	AgencyID string
	// MerchantID is the merchant identifier reported by the vendor
	MerchantID string
}

// SessionRef carries the identifiers an authenticated vendor call needs.
// It is derived from the stored Session right before each request.
type SessionRef struct {
	UniqueID   string
	AgencyID   string
	MerchantID string
	StoreID    string
	Token      string
}

// StoreInfo is one selectable store reported by the vendor
type StoreInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TemplateInfo is the normalized form of one label template, whatever shape
// the vendor response arrived in.
type TemplateInfo struct {
	// ID is the stable identifier: the explicit template id when present,
	// the template number otherwise.
	ID             string
	TemplateNumber string
	Name           string
	Size           string
	Resolution     string
	Hardware       string
	ItemCapacity   int
	PreviewPath    string
	Enabled        bool
	Raw            string
}

// ExportItem is the fixed vendor item schema for catalog uploads. The
// custFeature slots are reserved by the vendor and always sent empty.
type ExportItem struct {
	AttrCategory  string      `json:"attrCategory"`
	AttrName      string      `json:"attrName"`
	BarCode       string      `json:"barCode"`
	ItemTitle     string      `json:"itemTitle"`
	ShortTitle    string      `json:"shortTitle"`
	ClassLevel    string      `json:"classLevel"`
	OriginalPrice json.Number `json:"originalPrice"`
	Price         json.Number `json:"price"`
	QRCode        string      `json:"qrCode"`
	NFCURL        string      `json:"nfcUrl"`
	ProductArea   string      `json:"productArea"`
	ProductCode   string      `json:"productCode"`
	ProductSKU    string      `json:"productSku"`
	PromotionText string      `json:"promotionText"`
	Label         string      `json:"label"`
	Stock1        float64     `json:"stock1"`
	Stock2        float64     `json:"stock2"`
	Stock3        float64     `json:"stock3"`
	CustFeature1  string      `json:"custFeature1"`
	CustFeature2  string      `json:"custFeature2"`
	CustFeature3  string      `json:"custFeature3"`
	CustFeature4  string      `json:"custFeature4"`
	CustFeature5  string      `json:"custFeature5"`
	CustFeature6  string      `json:"custFeature6"`
	CustFeature7  string      `json:"custFeature7"`
	CustFeature8  string      `json:"custFeature8"`
	CustFeature9  string      `json:"custFeature9"`
	CustFeature10 string      `json:"custFeature10"`
	CustFeature11 string      `json:"custFeature11"`
	CustFeature12 string      `json:"custFeature12"`
	CustFeature13 string      `json:"custFeature13"`
	CustFeature14 string      `json:"custFeature14"`
	CustFeature15 string      `json:"custFeature15"`
	CustFeature16 string      `json:"custFeature16"`
	CustFeature17 string      `json:"custFeature17"`
	CustFeature18 string      `json:"custFeature18"`
	CustFeature19 string      `json:"custFeature19"`
	CustFeature20 string      `json:"custFeature20"`
}

// NewExportItem builds one export item from catalog fields
func NewExportItem(barcode, title, productCode string, price, stock decimal.Decimal) ExportItem {
	formatted := FormatPrice(price)
	qty, _ := stock.Float64()
	return ExportItem{
		AttrCategory:  "default",
		AttrName:      "default",
		BarCode:       barcode,
		ItemTitle:     title,
		OriginalPrice: formatted,
		Price:         formatted,
		ProductCode:   productCode,
		Stock1:        qty,
	}
}

// BatchResponse is the vendor reply to an item upload
type BatchResponse struct {
	// Message is the vendor status message, kept for the operation summary
	Message string
}

// ---------------------------------------------------------------------------
// LabelVendor Port Interface
// ---------------------------------------------------------------------------

// LabelVendor defines the port interface for the ESL cloud vendor. The
// concrete HTTP adapter lives in the infrastructure layer. Implementations
// wrap failures in the sentinel errors above: ErrKeyFetch and ErrAuth during
// authentication, ErrTransport for network failures, ErrVendorAPI for
// non-200 or malformed replies.
type LabelVendor interface {
	// Authenticate runs the fetch-key / encrypt-credential / exchange
	// handshake and returns the bearer token plus identifiers.
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)

	// ListStores returns the stores visible to the session
	ListStores(ctx context.Context, ref SessionRef) ([]StoreInfo, error)

	// ListTemplates returns the label templates of the selected store,
	// normalized from any of the vendor's observed response shapes.
	ListTemplates(ctx context.Context, ref SessionRef) ([]TemplateInfo, error)

	// SendItems uploads one batch of catalog items
	SendItems(ctx context.Context, ref SessionRef, items []ExportItem) (*BatchResponse, error)

	// BindLabel pairs one product barcode with one label
	BindLabel(ctx context.Context, ref SessionRef, productCode, labelCode string) error

	// BindLabelGroup binds a list of product barcodes to one label through
	// a template with multiple item slots.
	BindLabelGroup(ctx context.Context, ref SessionRef, templateID, labelCode string, barcodes []string) error

	// UnbindLabel detaches a label from whatever it is bound to
	UnbindLabel(ctx context.Context, ref SessionRef, labelCode string) error
}
