package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gym represents a tenant: one gym's isolated data partition, addressed by
// slug or custom domain.
type Gym struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string  `gorm:"size:255;not null" json:"name"`
	Slug         string  `gorm:"size:63;not null;uniqueIndex" json:"slug"`
	CustomDomain *string `gorm:"size:255;uniqueIndex" json:"custom_domain,omitempty"`
	Email        string  `gorm:"size:255;not null" json:"email"`
	Phone        string  `gorm:"size:50" json:"phone"`
	Address      string  `gorm:"type:text" json:"address"`

	// The gym's own platform subscription, not a plan it sells to members.
	PlanType  string    `gorm:"size:20;not null" json:"plan_type"`
	PlanStart time.Time `gorm:"not null" json:"plan_start"`
	PlanEnd   time.Time `gorm:"not null" json:"plan_end"`

	// Payment correlation. The unique index on GatewayPaymentID is the
	// at-most-once guard for provisioning.
	GatewayOrderID   string `gorm:"size:255;index" json:"gateway_order_id"`
	GatewayPaymentID string `gorm:"size:255;uniqueIndex" json:"gateway_payment_id"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}

func (Gym) TableName() string {
	return "gyms"
}

func (g *Gym) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// GymMember links a user to a gym with a role.
type GymMember struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	GymID  string `gorm:"type:uuid;not null;index" json:"gym_id"`
	Role   string `gorm:"size:20;not null;default:'member'" json:"role"` // admin, staff, trainer, member
}

func (GymMember) TableName() string {
	return "gym_members"
}

func (m *GymMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MembershipPlan is a subscription tier a gym sells to its own members.
type MembershipPlan struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GymID        string  `gorm:"type:uuid;not null;index" json:"gym_id"`
	Name         string  `gorm:"size:255;not null" json:"name"`
	Description  string  `gorm:"type:text" json:"description"`
	DurationDays int     `gorm:"not null" json:"duration_days"`
	Price        float64 `gorm:"not null" json:"price"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`
}

func (MembershipPlan) TableName() string {
	return "membership_plans"
}

func (p *MembershipPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Member is a gym's customer record (distinct from the auth User).
type Member struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GymID            string  `gorm:"type:uuid;not null;index" json:"gym_id"`
	FullName         string  `gorm:"size:255;not null" json:"full_name"`
	Email            string  `gorm:"size:255" json:"email"`
	Phone            string  `gorm:"size:50" json:"phone"`
	MembershipPlanID *string `gorm:"type:uuid" json:"membership_plan_id,omitempty"`
	IsActive         bool    `gorm:"default:true" json:"is_active"`
}

func (Member) TableName() string {
	return "members"
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
