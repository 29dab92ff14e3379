package models

import (
	"gorm.io/gorm"
)

// User is a clinic staff account that owns patients and campaigns
type User struct {
	gorm.Model
	Name       string `gorm:"not null" json:"name"`
	Email      string `gorm:"not null;uniqueIndex" json:"email"`
	Password   string `gorm:"not null" json:"-"` // bcrypt hash
	ClinicName string `json:"clinic_name"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Generation credits - one credit per generated message
	GenerationCredits int   `gorm:"default:100" json:"generation_credits"`
	PlanID            *uint `json:"plan_id,omitempty"`

	StripeCustomerID string `json:"-"`

	// Relations
	Plan      *Plan            `json:"plan,omitempty"`
	Patients  []PatientProfile `gorm:"foreignKey:UserID" json:"-"`
	Campaigns []Campaign       `gorm:"foreignKey:UserID" json:"-"`
}
