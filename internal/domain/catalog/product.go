package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/esl-addon/internal/domain/shared"
)

// Product is the read model of a catalog product as exposed by the host
// platform. The connector never creates products; it only reads them for
// export and barcode resolution.
type Product struct {
	shared.BaseEntity
	Code         string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Barcode      string          `gorm:"type:varchar(50);index"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQty     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product read record
func NewProduct(code, name string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product code is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product name is required")
	}
	return &Product{
		BaseEntity:   shared.NewBaseEntity(),
		Code:         strings.ToUpper(code),
		Name:         name,
		SellingPrice: decimal.Zero,
		StockQty:     decimal.Zero,
	}, nil
}

// ExportBarcode returns the barcode used on the label side, falling back to
// the internal product code when no barcode is assigned.
func (p *Product) ExportBarcode() string {
	if p.Barcode != "" {
		return p.Barcode
	}
	return p.Code
}

// SetPrice sets the selling price
func (p *Product) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	p.SellingPrice = price
	p.UpdatedAt = time.Now()
	return nil
}

// SetStock sets the available stock quantity
func (p *Product) SetStock(qty decimal.Decimal) {
	p.StockQty = qty
	p.UpdatedAt = time.Now()
}
