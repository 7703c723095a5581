package catalog

import (
	"github.com/catalogd/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductSynced     = "ProductSynced"
	EventTypeProductSyncFailed = "ProductSyncFailed"
)

// ProductSyncedEvent is published when a product finishes synchronization
type ProductSyncedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	ImagePath string    `json:"image_path,omitempty"`
}

// NewProductSyncedEvent creates a new ProductSyncedEvent
func NewProductSyncedEvent(product *Product) *ProductSyncedEvent {
	imagePath := ""
	if product.ImagePath != nil {
		imagePath = *product.ImagePath
	}
	return &ProductSyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductSynced, AggregateTypeProduct, product.ID, product.TenantID),
		ProductID:       product.ID,
		Code:            product.Code,
		ImagePath:       imagePath,
	}
}

// ProductSyncFailedEvent is published when synchronizing a product fails
type ProductSyncFailedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Reason    string    `json:"reason"`
}

// NewProductSyncFailedEvent creates a new ProductSyncFailedEvent
func NewProductSyncFailedEvent(product *Product, reason string) *ProductSyncFailedEvent {
	return &ProductSyncFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductSyncFailed, AggregateTypeProduct, product.ID, product.TenantID),
		ProductID:       product.ID,
		Code:            product.Code,
		Reason:          reason,
	}
}
