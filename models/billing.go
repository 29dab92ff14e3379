package models

import "gorm.io/gorm"

// Plan represents an available generation-credit package
type Plan struct {
	gorm.Model
	Name        string `gorm:"not null;uniqueIndex" json:"name"` // free, starter, clinic, enterprise
	Description string `json:"description"`

	// Generation credits
	GenerationCredits int `gorm:"not null" json:"generation_credits"`
	Price             int `gorm:"not null" json:"price"` // in cents

	// Limits
	MaxPatients     int `gorm:"default:500" json:"max_patients"`
	DailyBatchLimit int `gorm:"default:10" json:"daily_batch_limit"`

	// For display purposes
	DisplayPrice string `gorm:"-" json:"display_price"` // e.g. "$20"
	IsPopular    bool   `gorm:"default:false" json:"is_popular"`
	Recommended  bool   `gorm:"default:false" json:"recommended"`
}

// CreditTransaction records credit purchases
type CreditTransaction struct {
	gorm.Model
	UserID uint  `gorm:"not null;index" json:"user_id"`
	PlanID *uint `json:"plan_id,omitempty"`

	// Positive for purchases, negative for refunds
	GenerationCredits int `gorm:"not null" json:"generation_credits"`

	// Financial information
	Amount        int    `json:"amount"` // in cents
	Currency      string `gorm:"default:'USD'" json:"currency"`
	PaymentStatus string `gorm:"default:'pending'" json:"payment_status"` // pending, completed, failed, refunded

	Description           string `json:"description"`
	StripePaymentIntentID string `json:"stripe_payment_intent_id"`

	// Relations
	User User  `json:"-"`
	Plan *Plan `json:"plan,omitempty"`
}

// CreditUsage tracks credit consumption per batch run
type CreditUsage struct {
	gorm.Model
	UserID     uint  `gorm:"not null;index" json:"user_id"`
	CampaignID *uint `json:"campaign_id,omitempty"`
	BatchID    *uint `json:"batch_id,omitempty"`

	Amount int    `gorm:"not null" json:"amount"` // always positive
	Action string `gorm:"not null" json:"action"` // generate_batch, preview

	// Relations
	User     User           `json:"-"`
	Campaign *Campaign      `json:"campaign,omitempty"`
	Batch    *CampaignBatch `json:"batch,omitempty"`
}
