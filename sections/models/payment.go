package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is a historical ledger row for a completed member transaction.
// Rows are inserted only after the transaction succeeded and never mutated.
type Payment struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	GymID            string  `gorm:"type:uuid;not null;index" json:"gym_id"`
	MemberID         string  `gorm:"type:uuid;not null;index" json:"member_id"`
	MembershipPlanID *string `gorm:"type:uuid" json:"membership_plan_id,omitempty"`

	Amount           float64 `gorm:"not null" json:"amount"`
	GatewayOrderID   string  `gorm:"size:255;index" json:"gateway_order_id"`
	GatewayPaymentID string  `gorm:"size:255;uniqueIndex" json:"gateway_payment_id"`
	PaymentMethod    string  `gorm:"size:50" json:"payment_method"`
	PaymentStatus    string  `gorm:"size:50;not null;default:'completed'" json:"payment_status"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Invoice is generated for a payment with flat GST applied.
type Invoice struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	GymID         string  `gorm:"type:uuid;not null;index" json:"gym_id"`
	MemberID      string  `gorm:"type:uuid;not null;index" json:"member_id"`
	PaymentID     string  `gorm:"type:uuid;not null;uniqueIndex" json:"payment_id"`
	InvoiceNumber string  `gorm:"size:64;not null;uniqueIndex" json:"invoice_number"`
	Amount        float64 `gorm:"not null" json:"amount"`
	Tax           float64 `gorm:"not null" json:"tax"`
	Total         float64 `gorm:"not null" json:"total"`
	Status        string  `gorm:"size:20;not null;default:'paid'" json:"status"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Notification is an in-app notification row; email delivery is best-effort
// and its failure never fails notification creation.
type Notification struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	GymID    string  `gorm:"type:uuid;not null;index" json:"gym_id"`
	MemberID *string `gorm:"type:uuid;index" json:"member_id,omitempty"`
	UserID   *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Type     string  `gorm:"size:50;not null" json:"type"`
	Title    string  `gorm:"size:255;not null" json:"title"`
	Message  string  `gorm:"type:text" json:"message"`
	IsRead   bool    `gorm:"default:false" json:"is_read"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
