package esl

import "time"

// Notification is the user-facing outcome of an operation, rendered by the
// interface layer as a toast or banner.
type Notification struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Sticky   bool   `json:"sticky"`
	Timeout  int    `json:"timeout"`
}

const (
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)

// CreateSessionRequest carries the operator's connection settings
type CreateSessionRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
	UniqueID string `json:"uniqueId" binding:"required"`
}

// UpdateScheduleRequest changes the automatic sync configuration
type UpdateScheduleRequest struct {
	IntervalNumber int    `json:"intervalNumber" binding:"required"`
	IntervalUnit   string `json:"intervalUnit" binding:"required"`
	Active         bool   `json:"active"`
}

// SessionResponse is the stored connection state without secrets
type SessionResponse struct {
	ID             string     `json:"id"`
	Login          string     `json:"login"`
	UniqueID       string     `json:"uniqueId"`
	LabelType      string     `json:"labelType"`
	Status         string     `json:"status"`
	AgencyID       string     `json:"agencyId,omitempty"`
	MerchantID     string     `json:"merchantId,omitempty"`
	StoreID        string     `json:"storeId,omitempty"`
	Stores         []StoreDTO `json:"stores"`
	BatchSize      int        `json:"batchSize"`
	IntervalNumber int        `json:"intervalNumber"`
	IntervalUnit   string     `json:"intervalUnit"`
	SyncActive     bool       `json:"syncActive"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
	LastImportAt   *time.Time `json:"lastImportAt,omitempty"`
}

// StoreDTO is one selectable store
type StoreDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TemplateResponse is one mirrored label template
type TemplateResponse struct {
	ID             string   `json:"id"`
	VendorID       string   `json:"vendorId"`
	TemplateNumber string   `json:"templateNumber"`
	Name           string   `json:"name"`
	Size           string   `json:"size"`
	Resolution     string   `json:"resolution"`
	Hardware       string   `json:"hardware"`
	ItemCapacity   int      `json:"itemCapacity"`
	PreviewURL     string   `json:"previewUrl,omitempty"`
	Enabled        bool     `json:"enabled"`
	Slots          []string `json:"slots"`
}

// ExportSummary reports the outcome of a catalog upload
type ExportSummary struct {
	TotalItems   int    `json:"totalItems"`
	BatchSize    int    `json:"batchSize"`
	Batches      int    `json:"batches"`
	FailedChunks int    `json:"failedChunks"`
	LastMessage  string `json:"lastMessage,omitempty"`
}

// SyncSummary reports the outcome of a template sync
type SyncSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// ScanRequest is one barcode scan in the single-bind flow
type ScanRequest struct {
	Code string `json:"code" binding:"required"`
}

// BindStateResponse echoes the scan session back to the operator
type BindStateResponse struct {
	State        string        `json:"state"`
	ProductCode  string        `json:"productCode,omitempty"`
	ProductName  string        `json:"productName,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// MultiBindRequest adds one product to a template's slot list or, when the
// label code is present, fires the group bind.
type MultiBindRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
	Barcode    string `json:"barcode"`
	LabelCode  string `json:"labelCode"`
}

// MultiBindResponse reports slot occupancy after a scan
type MultiBindResponse struct {
	TemplateID   string        `json:"templateId"`
	Occupied     int           `json:"occupied"`
	Capacity     int           `json:"capacity"`
	Slots        []string      `json:"slots"`
	Notification *Notification `json:"notification,omitempty"`
}

// UnbindRequest detaches one label
type UnbindRequest struct {
	LabelCode string `json:"labelCode" binding:"required"`
}

func successNotification(title, message string) *Notification {
	return &Notification{Title: title, Message: message, Severity: SeveritySuccess, Timeout: 4000}
}

func warningNotification(title, message string) *Notification {
	return &Notification{Title: title, Message: message, Severity: SeverityWarning, Sticky: true}
}

func dangerNotification(title, message string) *Notification {
	return &Notification{Title: title, Message: message, Severity: SeverityDanger, Sticky: true}
}
