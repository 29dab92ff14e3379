package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Campaign represents one marketing campaign and its targeting configuration
type Campaign struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	// Campaign details
	Name        string `gorm:"not null" json:"name"`
	Channel     string `gorm:"not null;default:'email'" json:"channel"` // email, text
	Brief       string `gorm:"type:text" json:"brief"`
	CustomFlair string `gorm:"type:text" json:"custom_flair"`

	// Targeting configuration stored as JSON
	Criteria CampaignCriteria `gorm:"type:jsonb;serializer:json" json:"criteria"`

	// Status
	Status string `gorm:"default:'draft'" json:"status"` // draft, generating, completed, failed

	// Statistics (denormalized for dashboard queries)
	LastMatchedCount int     `gorm:"default:0" json:"last_matched_count"`
	LastAverageScore float64 `gorm:"default:0" json:"last_average_score"`

	// Relations
	Batches []CampaignBatch `gorm:"foreignKey:CampaignID" json:"batches,omitempty"`
}

// CampaignCriteria bundles the three targeting filter dimensions
type CampaignCriteria struct {
	Demographics  DemographicCriteria   `json:"demographics"`
	Behavioral    BehavioralCriteria    `json:"behavioral"`
	Psychological PsychologicalTriggers `json:"psychological_triggers"`
}

// DemographicCriteria filters by who the patient is
type DemographicCriteria struct {
	AgeRange    AgeRange         `json:"age_range"`
	Gender      []string         `json:"gender"` // accepted genders, or ["all"]
	Location    LocationCriteria `json:"location"`
	IncomeLevel string           `json:"income_level"` // "", 100k-150k, 150k-250k, 250k+
}

// AgeRange is an inclusive [min,max] age window
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// LocationCriteria is a zip-code-plus-radius geo filter
type LocationCriteria struct {
	ZipCode     string `json:"zip_code"`
	RadiusMiles int    `json:"radius_miles"`
}

// BehavioralCriteria filters by what the patient has done
type BehavioralCriteria struct {
	ProcedureHistory   []string   `json:"procedure_history"`
	ProcedureNotTried  []string   `json:"procedure_not_tried"`
	LifetimeValueRange ValueRange `json:"lifetime_value_range"`
	LastVisitRange     string     `json:"last_visit_range"` // "", 0-30, 31-90, 91-180, 180+
	EngagementLevel    string     `json:"engagement_level"` // "", high, medium, low, none
}

// ValueRange is an inclusive [min,max] dollar window
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PsychologicalTriggers filters by what moves the patient to act
type PsychologicalTriggers struct {
	LifeEvents []string `json:"life_events"`
	Seasonal   []string `json:"seasonal"`
	Cultural   []string `json:"cultural"`
}

// Validate rejects malformed criteria before any scoring runs
func (cc CampaignCriteria) Validate() error {
	if cc.Demographics.AgeRange.Min < 0 {
		return fmt.Errorf("age range min must be >= 0")
	}
	if cc.Demographics.AgeRange.Min > cc.Demographics.AgeRange.Max {
		return fmt.Errorf("age range min (%d) exceeds max (%d)",
			cc.Demographics.AgeRange.Min, cc.Demographics.AgeRange.Max)
	}
	if cc.Behavioral.LifetimeValueRange.Min > cc.Behavioral.LifetimeValueRange.Max {
		return fmt.Errorf("lifetime value range min (%.2f) exceeds max (%.2f)",
			cc.Behavioral.LifetimeValueRange.Min, cc.Behavioral.LifetimeValueRange.Max)
	}
	switch cc.Behavioral.LastVisitRange {
	case "", "0-30", "31-90", "91-180", "180+":
	default:
		return fmt.Errorf("unknown last visit range %q", cc.Behavioral.LastVisitRange)
	}
	return nil
}

// CampaignBatch is one queued or finished batch-generation run
type CampaignBatch struct {
	gorm.Model
	CampaignID uint   `gorm:"not null;index" json:"campaign_id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	BatchID    string `gorm:"not null;uniqueIndex" json:"batch_id"`

	Status string `gorm:"default:'pending'" json:"status"` // pending, running, completed, failed

	// Options snapshot taken when the batch was enqueued
	Options BatchOptions `gorm:"type:jsonb;serializer:json" json:"options"`

	// Results
	TotalGenerated int             `gorm:"default:0" json:"total_generated"`
	SkippedTargets int             `gorm:"default:0" json:"skipped_targets"`
	Statistics     BatchStatistics `gorm:"type:jsonb;serializer:json" json:"statistics"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`

	// Relations
	Campaign Campaign       `json:"-"`
	Messages []BatchMessage `gorm:"foreignKey:BatchRecordID" json:"messages,omitempty"`
}

// BatchOptions controls one batch-generation run
type BatchOptions struct {
	MaxMessages       int     `json:"max_messages" validate:"required,gte=1"`
	MinQualityScore   float64 `json:"min_quality_score" validate:"gte=0,lte=100"` // percentage
	IncludeABVariants bool    `json:"include_ab_variants"`
	IncludeScoring    bool    `json:"include_scoring"`
	ExportFormat      string  `json:"export_format" validate:"omitempty,oneof=json csv excel"`
}

// CreditCost is the worst-case number of credits a run with these options
// can consume: one per base message, plus the two A/B variants each base
// message spawns when variants are requested.
func (o BatchOptions) CreditCost() int {
	if o.IncludeABVariants {
		return o.MaxMessages * 3
	}
	return o.MaxMessages
}

// BatchStatistics summarizes a finished batch
type BatchStatistics struct {
	ByChannel    ChannelCounts `json:"by_channel"`
	ByScore      ScoreTiers    `json:"by_score"`
	AverageScore float64       `json:"average_score"`
}

// ChannelCounts counts messages per delivery channel
type ChannelCounts struct {
	Email int `json:"email"`
	Text  int `json:"text"`
}

// ScoreTiers counts messages per quality tier
type ScoreTiers struct {
	High   int `json:"high"`   // >= 0.8
	Medium int `json:"medium"` // 0.6 - 0.8
	Low    int `json:"low"`    // < 0.6
}

// BatchMessage is one generated message persisted with its score snapshot
type BatchMessage struct {
	gorm.Model
	BatchRecordID uint   `gorm:"not null;index" json:"batch_record_id"`
	MessageID     string `gorm:"not null;index" json:"message_id"`

	PatientName string `gorm:"not null" json:"patient_name"`
	Channel     string `gorm:"not null" json:"channel"`
	Subject     string `json:"subject,omitempty"`
	Content     string `gorm:"type:text" json:"content"`

	PersonalizedElements []string `gorm:"type:jsonb;serializer:json" json:"personalized_elements"`
	MatchingCriteria     []string `gorm:"type:jsonb;serializer:json" json:"matching_criteria"`
	EstimatedEngagement  int      `gorm:"default:0" json:"estimated_engagement"` // 60-100

	OverallScore float64 `gorm:"default:0" json:"overall_score"`
	IsVariant    bool    `gorm:"default:false" json:"is_variant"`
	IsOptimized  bool    `gorm:"default:false" json:"is_optimized"`

	// Relations
	Batch CampaignBatch `gorm:"foreignKey:BatchRecordID" json:"-"`
}
