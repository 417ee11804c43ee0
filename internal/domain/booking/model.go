package booking

import (
	"time"

	"studio-app/internal/domain/billing"
	"studio-app/internal/domain/users"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Package struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"not null" json:"name"`
	Description     string          `json:"description"`
	BasePrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"basePrice"`
	DurationMinutes int             `gorm:"not null;default:60" json:"durationMinutes"`
	MaxChildren     int             `gorm:"not null;default:1" json:"maxChildren"`
	Active          bool            `gorm:"not null;default:true" json:"active"`
	SortOrder       int             `gorm:"not null;default:0" json:"sortOrder"`
	Addons          []Addon         `json:"addons,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Addon struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	PackageID   string          `gorm:"type:uuid;index;not null" json:"packageId"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Active      bool            `gorm:"not null;default:true" json:"active"`
	SortOrder   int             `gorm:"not null;default:0" json:"sortOrder"`
}

// Child is keyed per parent by first and last name so repeat bookings reuse the row.
type Child struct {
	ID                  string          `gorm:"type:uuid;primaryKey" json:"id"`
	ParentID            uint            `gorm:"not null;uniqueIndex:idx_children_parent_name" json:"parentId"`
	FirstName           string          `gorm:"not null;uniqueIndex:idx_children_parent_name" json:"firstName"`
	LastName            string          `gorm:"not null;uniqueIndex:idx_children_parent_name" json:"lastName"`
	BirthDate           *datatypes.Date `json:"birthDate,omitempty"`
	PreferredStyle      *string         `json:"preferredStyle,omitempty"`
	MusicPreferences    *string         `json:"musicPreferences,omitempty"`
	StyleNotes          *string         `json:"styleNotes,omitempty"`
	SpecialRequirements *string         `json:"specialRequirements,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Session struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	SessionNumber     string          `gorm:"not null;uniqueIndex" json:"sessionNumber"`
	UserID            uint            `gorm:"not null;index" json:"userId"`
	User              *users.User     `json:"user,omitempty"`
	PackageID         string          `gorm:"type:uuid;not null;index" json:"packageId"`
	Package           *Package        `json:"package,omitempty"`
	SessionDate       datatypes.Date  `gorm:"not null;index" json:"sessionDate"`
	SessionTime       string          `gorm:"type:varchar(5);not null" json:"sessionTime"`
	EstimatedDuration int             `gorm:"not null" json:"estimatedDuration"`
	Status            string          `gorm:"type:varchar(20);not null;default:'booked';index" json:"status"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	DepositAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"depositAmount"`
	BalanceDue        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"balanceDue"`
	SpecialRequests   *string         `json:"specialRequests,omitempty"`

	Children     []SessionChild        `json:"children,omitempty"`
	Addons       []SessionAddon        `json:"addons,omitempty"`
	PaymentPlans []billing.PaymentPlan `gorm:"foreignKey:SessionID" json:"paymentPlans,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SessionChild struct {
	SessionID    string `gorm:"type:uuid;primaryKey" json:"sessionId"`
	ChildID      string `gorm:"type:uuid;primaryKey" json:"childId"`
	Child        *Child `json:"child,omitempty"`
	PrimaryChild bool   `gorm:"not null;default:false" json:"primaryChild"`
}

type SessionAddon struct {
	SessionID  string          `gorm:"type:uuid;primaryKey" json:"sessionId"`
	AddonID    string          `gorm:"type:uuid;primaryKey" json:"addonId"`
	Addon      *Addon          `json:"addon,omitempty"`
	Quantity   int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
}

func (p *Package) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (a *Addon) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (c *Child) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Window is the studio time the session blocks, buffer included.
func (s Session) Window() (Window, error) {
	start, err := ParseClock(s.SessionTime)
	if err != nil {
		return Window{}, err
	}
	duration := s.EstimatedDuration
	if duration <= 0 && s.Package != nil {
		duration = s.Package.DurationMinutes
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return NewWindow(start, duration), nil
}

func (s Session) Date() time.Time {
	return time.Time(s.SessionDate)
}
