package models

import "gorm.io/gorm"

// CreateDefaultPlans seeds the credit packages during migration
func CreateDefaultPlans(db *gorm.DB) error {
	defaultPlans := []Plan{
		{
			Name:              "free",
			Description:       "Free starter plan with 100 generation credits",
			GenerationCredits: 100,
			Price:             0,
			MaxPatients:       100,
			DailyBatchLimit:   3,
		},
		{
			Name:              "starter",
			Description:       "Starter plan with 2,000 generation credits",
			GenerationCredits: 2000,
			Price:             2000, // $20
			MaxPatients:       1000,
			DailyBatchLimit:   10,
			DisplayPrice:      "$20",
		},
		{
			Name:              "clinic",
			Description:       "Clinic plan with 10,000 generation credits",
			GenerationCredits: 10000,
			Price:             6000, // $60
			MaxPatients:       10000,
			DailyBatchLimit:   50,
			DisplayPrice:      "$60",
			IsPopular:         true,
			Recommended:       true,
		},
		{
			Name:              "enterprise",
			Description:       "Custom plan for multi-location practices",
			GenerationCredits: 50000,
			Price:             20000, // $200
			MaxPatients:       100000,
			DailyBatchLimit:   200,
			DisplayPrice:      "$200",
		},
	}
	for _, plan := range defaultPlans {
		if err := db.FirstOrCreate(&plan, "name = ?", plan.Name).Error; err != nil {
			return err
		}
	}
	return nil
}
