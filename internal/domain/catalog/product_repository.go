package catalog

import "context"

// ProductRepository defines the persistence port for catalog products
type ProductRepository interface {
	// FindAll returns every product in the catalog. The exporter sends the
	// full set; filtering happens on the vendor side.
	FindAll(ctx context.Context) ([]*Product, error)

	// FindByBarcode resolves a scanned barcode to a product, also matching
	// the internal code for products without a barcode. Returns nil when
	// nothing matches.
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)

	// Save persists a product record
	Save(ctx context.Context, product *Product) error

	// Count returns the number of products in the catalog
	Count(ctx context.Context) (int64, error)
}
