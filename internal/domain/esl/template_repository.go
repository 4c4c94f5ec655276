package esl

import "context"

// TemplateRepository defines the persistence port for template mirrors
type TemplateRepository interface {
	// FindByVendorID returns the mirror for a vendor template id, or nil
	// when the template was never synced.
	FindByVendorID(ctx context.Context, vendorID string) (*Template, error)

	// FindAll returns every mirrored template
	FindAll(ctx context.Context) ([]*Template, error)

	// Save persists a mirror record, creating or updating it
	Save(ctx context.Context, template *Template) error

	// Delete removes a mirror record
	Delete(ctx context.Context, template *Template) error

	// DeleteAll clears the mirror table (install/reset path)
	DeleteAll(ctx context.Context) error
}
