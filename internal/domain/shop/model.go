package shop

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrderPending    = "pending"
	OrderPaid       = "paid"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderCancelled  = "cancelled"
)

type Product struct {
	ID          string           `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string           `gorm:"not null" json:"name"`
	Slug        string           `gorm:"not null;uniqueIndex" json:"slug"`
	Description string           `json:"description"`
	Category    string           `gorm:"index" json:"category"`
	ImageURL    *string          `json:"imageUrl,omitempty"`
	Featured    bool             `gorm:"not null;default:false" json:"featured"`
	Active      bool             `gorm:"not null;default:true" json:"active"`
	SortOrder   int              `gorm:"not null;default:0" json:"sortOrder"`
	Variants    []ProductVariant `json:"variants,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProductVariant struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID string          `gorm:"type:uuid;not null;index" json:"productId"`
	Product   *Product        `json:"product,omitempty"`
	Name      string          `gorm:"not null" json:"name"`
	Size      *string         `json:"size,omitempty"`
	Finish    *string         `json:"finish,omitempty"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	SortOrder int             `gorm:"not null;default:0" json:"sortOrder"`
}

type Order struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber     string          `gorm:"not null;uniqueIndex" json:"orderNumber"`
	UserID          uint            `gorm:"not null;index" json:"userId"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ShippingAddress datatypes.JSON  `json:"shippingAddress"`
	BillingAddress  datatypes.JSON  `json:"billingAddress,omitempty"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax"`
	Shipping        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"shipping"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Notes           *string         `json:"notes,omitempty"`
	Items           []OrderItem     `json:"items,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrderItem struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID           string          `gorm:"type:uuid;not null;index" json:"orderId"`
	PhotoID           *string         `gorm:"type:uuid" json:"photoId,omitempty"`
	ProductVariantID  string          `gorm:"type:uuid;not null" json:"productVariantId"`
	Variant           *ProductVariant `gorm:"foreignKey:ProductVariantID" json:"variant,omitempty"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
	CustomizationData datatypes.JSON  `json:"customizationData,omitempty"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
