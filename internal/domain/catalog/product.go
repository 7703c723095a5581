package catalog

import (
	"strings"
	"time"

	"github.com/catalogd/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SyncStatus represents the synchronization status of a product
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusFailed  SyncStatus = "failed"
)

// IsValid checks if the sync status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSynced, SyncStatusFailed:
		return true
	}
	return false
}

// Product represents a product/SKU in the merchant catalog.
// It is the aggregate root for catalog synchronization: rows enter with
// sync_status=pending and are advanced to synced or failed by the chunk
// worker; the reprocessor moves failed rows back to pending.
type Product struct {
	shared.TenantAggregateRoot
	Code             string          `gorm:"type:varchar(50);not null;index"`
	Name             string          `gorm:"type:varchar(200);not null"`
	SellingPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ExternalImageURL string          `gorm:"type:text"`
	ImagePath        *string         `gorm:"type:text"`
	SyncStatus       SyncStatus      `gorm:"type:varchar(20);not null;default:'pending';index"`
	SyncError        *string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new catalog product awaiting synchronization
func NewProduct(tenantID uuid.UUID, code, name string) (*Product, error) {
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	product := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Name:                name,
		SellingPrice:        decimal.Zero,
		SyncStatus:          SyncStatusPending,
	}

	return product, nil
}

// SetSellingPrice sets the selling price
func (p *Product) SetSellingPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	p.SellingPrice = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetExternalImageURL sets the externally-hosted image URL
func (p *Product) SetExternalImageURL(url string) {
	p.ExternalImageURL = url
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// NeedsImageInternalization returns true if the product references an
// external image that has not yet been copied into owned storage
func (p *Product) NeedsImageInternalization() bool {
	return p.ExternalImageURL != "" && p.ImagePath == nil
}

// MarkSynced advances the product from pending to synced. When imagePath is
// non-empty it becomes the owned storage reference for the product image.
func (p *Product) MarkSynced(imagePath string) error {
	if p.SyncStatus != SyncStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending products can be marked synced")
	}
	if p.ExternalImageURL != "" && imagePath == "" && p.ImagePath == nil {
		return shared.NewDomainError("MISSING_IMAGE_PATH", "Synced product with external image must have an owned image path")
	}

	p.SyncStatus = SyncStatusSynced
	if imagePath != "" {
		p.ImagePath = &imagePath
	}
	p.SyncError = nil
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductSyncedEvent(p))

	return nil
}

// MarkSyncFailed advances the product from pending to failed, recording the reason
func (p *Product) MarkSyncFailed(reason string) error {
	if p.SyncStatus != SyncStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending products can be marked failed")
	}
	if reason == "" {
		reason = "unknown synchronization error"
	}

	p.SyncStatus = SyncStatusFailed
	p.SyncError = &reason
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductSyncFailedEvent(p, reason))

	return nil
}

// ResetSync moves a failed product back to pending so it re-enters the pipeline
func (p *Product) ResetSync() error {
	if p.SyncStatus != SyncStatusFailed {
		return shared.NewDomainError("INVALID_STATE", "Only failed products can be reset to pending")
	}

	p.SyncStatus = SyncStatusPending
	p.SyncError = nil
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// IsPending returns true if the product is awaiting synchronization
func (p *Product) IsPending() bool {
	return p.SyncStatus == SyncStatusPending
}

// IsSynced returns true if the product has been synchronized
func (p *Product) IsSynced() bool {
	return p.SyncStatus == SyncStatusSynced
}

// validateProductCode validates the product reference code (SKU)
func validateProductCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Product code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
