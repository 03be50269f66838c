package commerce

import (
	"github.com/menohub/backend/internal/domain/shared"
)

// Resource is a purchasable downloadable item (guide, workbook, etc.)
type Resource struct {
	shared.BaseEntity
	Slug          string
	Title         string
	IsPaid        bool
	PriceKopecks  int64
	DownloadLimit int
	StorageKey    string
}

// Resource purchase errors
var (
	ErrResourceNotPurchasable = shared.NewDomainError("RESOURCE_NOT_PURCHASABLE", "This resource is not for sale")
	ErrResourcePriceNotSet    = shared.NewDomainError("RESOURCE_PRICE_NOT_SET", "Resource price is not set")
)

// CheckPurchasable verifies the resource can be bought right now.
func (r *Resource) CheckPurchasable() error {
	if !r.IsPaid {
		return ErrResourceNotPurchasable
	}
	if r.PriceKopecks <= 0 {
		return ErrResourcePriceNotSet
	}
	return nil
}
