package models

import (
	"time"

	"gorm.io/gorm"
)

// PatientProfile represents one marketing recipient
type PatientProfile struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name   string `gorm:"not null" json:"name"`
	Email  string `gorm:"index" json:"email"`
	Phone  string `json:"phone"`
	Age    int    `gorm:"not null" json:"age"`
	Gender string `gorm:"not null" json:"gender"` // Male, Female

	// Optional engagement/value fields - nil/empty means "unknown", never zero
	LifetimeValue   *float64   `json:"lifetime_value,omitempty"`
	LastVisit       *time.Time `json:"last_visit,omitempty"`
	EmailEngagement string     `json:"email_engagement,omitempty"` // high, medium, low, none

	// Psychographic tags stored as JSON
	Traits     []string `gorm:"type:jsonb;serializer:json" json:"traits"`
	LifeEvents []string `gorm:"type:jsonb;serializer:json" json:"life_events"`
	Lifestyle  []string `gorm:"type:jsonb;serializer:json" json:"lifestyle"`

	ReferralSource string `json:"referral_source"`
	CustomerNote   string `gorm:"type:text" json:"customer_note"`

	// Relations
	Procedures []ProcedureRecord `gorm:"foreignKey:PatientID" json:"procedures,omitempty"`
}

// ProcedureRecord is one completed procedure in a patient's history,
// ordered by PerformedAt ascending when preloaded
type ProcedureRecord struct {
	gorm.Model
	PatientID   uint      `gorm:"not null;index" json:"patient_id"`
	Procedure   string    `gorm:"not null" json:"procedure"`
	PerformedAt time.Time `gorm:"not null" json:"performed_at"`

	// Relations
	Patient PatientProfile `json:"-"`
}
