package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glowreach/models"
)

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestAnalyzeTargetingHighValueMatch(t *testing.T) {
	profiles := []models.PatientProfile{
		{
			Name:            "Jennifer",
			Age:             52,
			Gender:          "Female",
			LifetimeValue:   floatPtr(12000),
			EmailEngagement: "high",
			Procedures: []models.ProcedureRecord{
				{Procedure: "Botox", PerformedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
			},
		},
	}

	criteria := models.CampaignCriteria{
		Demographics: models.DemographicCriteria{
			AgeRange: models.AgeRange{Min: 40, Max: 60},
			Gender:   []string{"all"},
		},
		Behavioral: models.BehavioralCriteria{
			ProcedureHistory: []string{"Botox"},
		},
	}

	results := NewTargetingEngine(profiles).AnalyzeTargeting(criteria)

	require.Equal(t, 1, results.TotalPatients)
	require.Equal(t, 1, results.MatchedPatients)
	require.Len(t, results.Targets, 1)

	target := results.Targets[0]
	assert.Greater(t, target.DemographicScore, 0.7)
	assert.Greater(t, target.BehavioralScore, 0.7)
	assert.InDelta(t, 0.5, target.PsychologicalScore, 1e-9)
	assert.Greater(t, target.TotalScore, inclusionThreshold)
	assert.Equal(t, "email", target.RecommendedChannel)
	assert.Contains(t, target.MatchingReasons, "Perfect age match (52)")
	assert.Contains(t, target.MatchingReasons, "Has experience with Botox")
	assert.Contains(t, target.MatchingReasons, "High-value patient ($12000)")
	assert.Contains(t, target.PersonalizedHooks, "Jennifer Aniston (age 54) secret revealed")
	assert.Contains(t, target.PersonalizedHooks, "Your Botox results were amazing")
}

func TestAnalyzeTargetingExcludesBelowThreshold(t *testing.T) {
	profiles := []models.PatientProfile{
		{Name: "Frank", Age: 70, Gender: "Male"},
	}

	criteria := models.CampaignCriteria{
		Demographics: models.DemographicCriteria{
			AgeRange: models.AgeRange{Min: 40, Max: 60},
			Gender:   []string{"Female"},
		},
		Behavioral: models.BehavioralCriteria{
			ProcedureHistory: []string{"Laser"},
		},
		Psychological: models.PsychologicalTriggers{
			LifeEvents: []string{"Wedding"},
		},
	}

	results := NewTargetingEngine(profiles).AnalyzeTargeting(criteria)

	assert.Equal(t, 1, results.TotalPatients)
	assert.Equal(t, 0, results.MatchedPatients)
	assert.Empty(t, results.Targets)
	assert.Zero(t, results.AverageScore)
}

func TestAnalyzeTargetingRanksDescending(t *testing.T) {
	profiles := []models.PatientProfile{
		{Name: "Cold", Age: 50, Gender: "Female", EmailEngagement: "low"},
		{Name: "Hot", Age: 50, Gender: "Female", EmailEngagement: "high"},
		{Name: "Warm", Age: 50, Gender: "Female", EmailEngagement: "medium"},
	}

	criteria := models.CampaignCriteria{
		Demographics: models.DemographicCriteria{
			AgeRange: models.AgeRange{Min: 40, Max: 60},
			Gender:   []string{"Female"},
		},
		Behavioral: models.BehavioralCriteria{
			EngagementLevel: "high",
		},
	}

	results := NewTargetingEngine(profiles).AnalyzeTargeting(criteria)

	require.Len(t, results.Targets, 3)
	for i := 1; i < len(results.Targets); i++ {
		assert.GreaterOrEqual(t, results.Targets[i-1].TotalScore, results.Targets[i].TotalScore)
	}
	assert.Equal(t, "Hot", results.Targets[0].PatientName)
	assert.Equal(t, "Warm", results.Targets[1].PatientName)
	assert.Equal(t, "Cold", results.Targets[2].PatientName)
}

func TestTopTargetsCappedAtTen(t *testing.T) {
	profiles := make([]models.PatientProfile, 15)
	for i := range profiles {
		profiles[i] = models.PatientProfile{
			Name:   "Patient",
			Age:    45,
			Gender: "Female",
		}
	}

	criteria := models.CampaignCriteria{
		Demographics: models.DemographicCriteria{
			AgeRange: models.AgeRange{Min: 40, Max: 60},
			Gender:   []string{"all"},
		},
	}

	results := NewTargetingEngine(profiles).AnalyzeTargeting(criteria)

	assert.Len(t, results.Targets, 15)
	assert.Len(t, results.TopTargets, 10)
}

func TestDimensionWithoutFiltersIsNeutral(t *testing.T) {
	e := NewTargetingEngine(nil)
	p := &models.PatientProfile{Name: "Amy", Age: 40, Gender: "Female"}

	assert.InDelta(t, 0.5, e.demographicScore(p, models.DemographicCriteria{}), 1e-9)
	assert.InDelta(t, 0.5, e.behavioralScore(p, models.BehavioralCriteria{}), 1e-9)
	assert.InDelta(t, 0.5, e.psychologicalScore(p, models.PsychologicalTriggers{}), 1e-9)
}

func TestUnsetAgeRangeDoesNotPenalize(t *testing.T) {
	e := NewTargetingEngine(nil)
	p := &models.PatientProfile{Name: "Amy", Age: 40, Gender: "Female"}

	// A zero-valued age range is "no age filter", not "ages 0 through 0":
	// the only configured factor should decide the score
	genderOnly := models.DemographicCriteria{Gender: []string{"all"}}
	assert.InDelta(t, 1.0, e.demographicScore(p, genderOnly), 1e-9)
}

func TestEngagementMatchDefaults(t *testing.T) {
	assert.InDelta(t, 1.0, engagementMatch("high"), 1e-9)
	assert.InDelta(t, 0.7, engagementMatch("medium"), 1e-9)
	assert.InDelta(t, 0.4, engagementMatch("low"), 1e-9)
	assert.InDelta(t, 0.1, engagementMatch("none"), 1e-9)
	assert.InDelta(t, 0.5, engagementMatch(""), 1e-9)
}

func TestRecommendChannel(t *testing.T) {
	e := NewTargetingEngine(nil)

	young := &models.PatientProfile{Name: "Zoe", Age: 28, Gender: "Female", EmailEngagement: "low"}
	assert.Equal(t, "text", e.recommendChannel(young, models.CampaignCriteria{}))

	senior := &models.PatientProfile{
		Name: "Grace", Age: 62, Gender: "Female",
		EmailEngagement: "high",
		LifetimeValue:   floatPtr(15000),
	}
	assert.Equal(t, "email", e.recommendChannel(senior, models.CampaignCriteria{}))

	// Ties resolve to email
	neutral := &models.PatientProfile{Name: "Kim", Age: 40, Gender: "Female"}
	assert.Equal(t, "email", e.recommendChannel(neutral, models.CampaignCriteria{}))
}

func TestUrgencyLevel(t *testing.T) {
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	e := NewTargetingEngine(nil)
	e.nowFn = func() time.Time { return now }

	p := &models.PatientProfile{Name: "Amy", Age: 30, Gender: "Female"}

	assert.Equal(t, "low", e.urgencyLevel(p, models.CampaignCriteria{}))

	wedding := models.CampaignCriteria{
		Psychological: models.PsychologicalTriggers{LifeEvents: []string{"Wedding"}},
	}
	assert.Equal(t, "high", e.urgencyLevel(p, wedding))

	lapsed := &models.PatientProfile{
		Name: "Beth", Age: 45, Gender: "Female",
		LastVisit: timePtr(now.AddDate(0, 0, -200)),
	}
	assert.Equal(t, "medium", e.urgencyLevel(lapsed, models.CampaignCriteria{}))

	holiday := models.CampaignCriteria{
		Psychological: models.PsychologicalTriggers{Seasonal: []string{"Holiday parties"}},
	}
	assert.Equal(t, "high", e.urgencyLevel(lapsed, holiday))
}

func TestVisitRecencyBuckets(t *testing.T) {
	assert.InDelta(t, 1.0, visitRecency(20, "0-30"), 1e-9)
	assert.InDelta(t, 0.0, visitRecency(45, "0-30"), 1e-9)
	assert.InDelta(t, 1.0, visitRecency(60, "31-90"), 1e-9)
	assert.InDelta(t, 0.5, visitRecency(20, "31-90"), 1e-9)
	assert.InDelta(t, 1.0, visitRecency(120, "91-180"), 1e-9)
	assert.InDelta(t, 0.3, visitRecency(30, "91-180"), 1e-9)
	assert.InDelta(t, 1.0, visitRecency(365, "180+"), 1e-9)
	assert.InDelta(t, 0.2, visitRecency(30, "180+"), 1e-9)
}

func TestIncomeMatch(t *testing.T) {
	rich := &models.PatientProfile{LifetimeValue: floatPtr(20000)}
	modest := &models.PatientProfile{LifetimeValue: floatPtr(3000)}
	unknown := &models.PatientProfile{}

	assert.InDelta(t, 1.0, incomeMatch(rich, "250k+"), 1e-9)
	assert.InDelta(t, 0.5, incomeMatch(modest, "250k+"), 1e-9)
	assert.InDelta(t, 1.0, incomeMatch(rich, "150k-250k"), 1e-9)
	assert.InDelta(t, 0.7, incomeMatch(modest, "150k-250k"), 1e-9)
	assert.InDelta(t, 0.8, incomeMatch(modest, "100k-150k"), 1e-9)
	assert.InDelta(t, 0.6, incomeMatch(unknown, "50k-100k"), 1e-9)
}

func TestCelebrityHookNearestAge(t *testing.T) {
	assert.Equal(t, "Jennifer Aniston (age 54) secret revealed", CelebrityHook(52))
	assert.Equal(t, "Sandra Bullock (age 59) secret revealed", CelebrityHook(58))
	assert.Equal(t, "Reese Witherspoon (age 47) secret revealed", CelebrityHook(45))

	name, age := NearestCelebrity(45)
	assert.Equal(t, "Reese Witherspoon", name)
	assert.Equal(t, 47, age)
}

func TestProfileSignalIsStable(t *testing.T) {
	a := profileSignal("patient-1", "location")
	b := profileSignal("patient-1", "location")
	c := profileSignal("patient-2", "location")

	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 0.0)
	assert.Less(t, a, 1.0)
	// Different patients draw from the same distribution but independently
	assert.GreaterOrEqual(t, c, 0.0)
	assert.Less(t, c, 1.0)
}

func TestAnalyzeTargetingIsDeterministic(t *testing.T) {
	profiles := []models.PatientProfile{
		{Name: "Amy", Age: 30, Gender: "Female", Traits: []string{"Professional"}},
		{Name: "Beth", Age: 45, Gender: "Female"},
	}
	criteria := models.CampaignCriteria{
		Demographics: models.DemographicCriteria{
			AgeRange: models.AgeRange{Min: 25, Max: 50},
			Gender:   []string{"all"},
			Location: models.LocationCriteria{ZipCode: "32901", RadiusMiles: 25},
		},
		Psychological: models.PsychologicalTriggers{
			LifeEvents: []string{"Wedding", "New Job"},
		},
	}

	engine := NewTargetingEngine(profiles)
	first := engine.AnalyzeTargeting(criteria)
	second := engine.AnalyzeTargeting(criteria)

	assert.Equal(t, first, second)
}
