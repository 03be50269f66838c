package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/menohub/backend/internal/domain/commerce"
	"github.com/menohub/backend/internal/domain/shared"
)

// GoodsOrderModel is the persistence model for goods orders.
type GoodsOrderModel struct {
	ID                     uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt              time.Time `gorm:"not null"`
	UpdatedAt              time.Time `gorm:"not null"`
	OrderNumber            string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Email                  string    `gorm:"type:varchar(320);not null;index"`
	Name                   string    `gorm:"type:varchar(200);not null"`
	Phone                  string    `gorm:"type:varchar(50)"`
	UserID                 *uuid.UUID `gorm:"type:uuid;index"`
	Title                  string    `gorm:"type:varchar(500);not null"`
	AmountKopecks          int64     `gorm:"not null"`
	Status                 commerce.OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	GatewayPaymentID       *string   `gorm:"type:varchar(100);index"`
	DownloadToken          *string   `gorm:"type:varchar(100);uniqueIndex"`
	DownloadTokenExpiresAt *time.Time
	MaxDownloads           int `gorm:"not null;default:3"`
	DownloadCount          int `gorm:"not null;default:0"`
	PaidAt                 *time.Time
	ShippedAt              *time.Time
	CancelledAt            *time.Time
	RefundedAt             *time.Time
}

// TableName returns the table name for GORM
func (GoodsOrderModel) TableName() string {
	return "goods_orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *GoodsOrderModel) ToDomain() *commerce.Order {
	order := &commerce.Order{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Kind:        commerce.OrderKindGoods,
		OrderNumber: m.OrderNumber,
		Customer: commerce.Customer{
			Email: m.Email,
			Name:  m.Name,
			Phone: m.Phone,
		},
		UserID:           m.UserID,
		Title:            m.Title,
		AmountKopecks:    m.AmountKopecks,
		Status:           m.Status,
		GatewayPaymentID: m.GatewayPaymentID,
		PaidAt:           m.PaidAt,
		ShippedAt:        m.ShippedAt,
		CancelledAt:      m.CancelledAt,
		RefundedAt:       m.RefundedAt,
	}
	if m.DownloadToken != nil {
		order.Fulfillment = &commerce.FulfillmentCredential{
			Token:         *m.DownloadToken,
			MaxDownloads:  m.MaxDownloads,
			DownloadCount: m.DownloadCount,
		}
		if m.DownloadTokenExpiresAt != nil {
			order.Fulfillment.ExpiresAt = *m.DownloadTokenExpiresAt
		}
	}
	return order
}

// FromDomain populates the persistence model from a domain Order.
func (m *GoodsOrderModel) FromDomain(o *commerce.Order) {
	m.ID = o.ID
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.OrderNumber = o.OrderNumber
	m.Email = o.Customer.Email
	m.Name = o.Customer.Name
	m.Phone = o.Customer.Phone
	m.UserID = o.UserID
	m.Title = o.Title
	m.AmountKopecks = o.AmountKopecks
	m.Status = o.Status
	m.GatewayPaymentID = o.GatewayPaymentID
	m.PaidAt = o.PaidAt
	m.ShippedAt = o.ShippedAt
	m.CancelledAt = o.CancelledAt
	m.RefundedAt = o.RefundedAt
	if o.Fulfillment != nil {
		token := o.Fulfillment.Token
		expires := o.Fulfillment.ExpiresAt
		m.DownloadToken = &token
		m.DownloadTokenExpiresAt = &expires
		m.MaxDownloads = o.Fulfillment.MaxDownloads
		m.DownloadCount = o.Fulfillment.DownloadCount
	}
}

// ResourcePurchaseModel is the persistence model for single-resource
// purchase orders. The table carries no phone column.
type ResourcePurchaseModel struct {
	ID                     uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt              time.Time `gorm:"not null"`
	UpdatedAt              time.Time `gorm:"not null"`
	OrderNumber            string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Email                  string    `gorm:"type:varchar(320);not null;index"`
	Name                   string    `gorm:"type:varchar(200);not null"`
	UserID                 *uuid.UUID `gorm:"type:uuid;index"`
	ResourceID             uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title                  string    `gorm:"type:varchar(500);not null"`
	AmountKopecks          int64     `gorm:"not null"`
	Status                 commerce.OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	GatewayPaymentID       *string   `gorm:"type:varchar(100);index"`
	DownloadToken          *string   `gorm:"type:varchar(100);uniqueIndex"`
	DownloadTokenExpiresAt *time.Time
	MaxDownloads           int `gorm:"not null;default:3"`
	DownloadCount          int `gorm:"not null;default:0"`
	PaidAt                 *time.Time
}

// TableName returns the table name for GORM
func (ResourcePurchaseModel) TableName() string {
	return "resource_purchases"
}

// ToDomain converts the persistence model to a domain Order.
func (m *ResourcePurchaseModel) ToDomain() *commerce.Order {
	resourceID := m.ResourceID
	order := &commerce.Order{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Kind:        commerce.OrderKindResource,
		OrderNumber: m.OrderNumber,
		Customer: commerce.Customer{
			Email: m.Email,
			Name:  m.Name,
		},
		UserID:           m.UserID,
		Title:            m.Title,
		AmountKopecks:    m.AmountKopecks,
		Status:           m.Status,
		GatewayPaymentID: m.GatewayPaymentID,
		ResourceID:       &resourceID,
		PaidAt:           m.PaidAt,
	}
	if m.DownloadToken != nil {
		order.Fulfillment = &commerce.FulfillmentCredential{
			Token:         *m.DownloadToken,
			MaxDownloads:  m.MaxDownloads,
			DownloadCount: m.DownloadCount,
		}
		if m.DownloadTokenExpiresAt != nil {
			order.Fulfillment.ExpiresAt = *m.DownloadTokenExpiresAt
		}
	}
	return order
}

// FromDomain populates the persistence model from a domain Order.
func (m *ResourcePurchaseModel) FromDomain(o *commerce.Order) {
	m.ID = o.ID
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.OrderNumber = o.OrderNumber
	m.Email = o.Customer.Email
	m.Name = o.Customer.Name
	m.UserID = o.UserID
	if o.ResourceID != nil {
		m.ResourceID = *o.ResourceID
	}
	m.Title = o.Title
	m.AmountKopecks = o.AmountKopecks
	m.Status = o.Status
	m.GatewayPaymentID = o.GatewayPaymentID
	m.PaidAt = o.PaidAt
	if o.Fulfillment != nil {
		token := o.Fulfillment.Token
		expires := o.Fulfillment.ExpiresAt
		m.DownloadToken = &token
		m.DownloadTokenExpiresAt = &expires
		m.MaxDownloads = o.Fulfillment.MaxDownloads
		m.DownloadCount = o.Fulfillment.DownloadCount
	}
}

// ResourceModel is the persistence model for purchasable resources.
type ResourceModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
	Slug          string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	Title         string    `gorm:"type:varchar(500);not null"`
	IsPaid        bool      `gorm:"not null;default:false"`
	PriceKopecks  int64     `gorm:"not null;default:0"`
	DownloadLimit int       `gorm:"not null;default:3"`
	StorageKey    string    `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ResourceModel) TableName() string {
	return "resources"
}

// ToDomain converts the persistence model to a domain Resource.
func (m *ResourceModel) ToDomain() *commerce.Resource {
	return &commerce.Resource{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Slug:          m.Slug,
		Title:         m.Title,
		IsPaid:        m.IsPaid,
		PriceKopecks:  m.PriceKopecks,
		DownloadLimit: m.DownloadLimit,
		StorageKey:    m.StorageKey,
	}
}

// FromDomain populates the persistence model from a domain Resource.
func (m *ResourceModel) FromDomain(r *commerce.Resource) {
	m.ID = r.ID
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
	m.Slug = r.Slug
	m.Title = r.Title
	m.IsPaid = r.IsPaid
	m.PriceKopecks = r.PriceKopecks
	m.DownloadLimit = r.DownloadLimit
	m.StorageKey = r.StorageKey
}
