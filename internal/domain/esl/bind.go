package esl

// BindState tracks where a scan session stands between the two scans
type BindState string

const (
	// BindStateIdle means no product has been scanned yet
	BindStateIdle BindState = "idle"
	// BindStateProductScanned means a product was resolved and the next
	// scan is expected to be a label code.
	BindStateProductScanned BindState = "product-scanned"
)

// BindRequest is the ephemeral pairing of one product scan with one label
// scan. It lives for a single bind operation; after the vendor call returns
// a fresh blank request replaces it.
type BindRequest struct {
	ProductCode string
	LabelCode   string
	ProductName string
	State       BindState
}

// NewBindRequest returns a blank request ready for the next scan
func NewBindRequest() *BindRequest {
	return &BindRequest{State: BindStateIdle}
}

// ScanProduct records a resolved product scan
func (b *BindRequest) ScanProduct(code, displayName string) {
	b.ProductCode = code
	b.ProductName = displayName
	b.State = BindStateProductScanned
}

// Reset clears all fields and returns the request to idle
func (b *BindRequest) Reset() {
	b.ProductCode = ""
	b.LabelCode = ""
	b.ProductName = ""
	b.State = BindStateIdle
}
