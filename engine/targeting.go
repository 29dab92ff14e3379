package engine

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"glowreach/models"
)

// Profiles scoring below this threshold are not retained as targets
const inclusionThreshold = 0.3

// topTargetLimit caps the summary's best-target list
const topTargetLimit = 10

// TargetingScore is the result of scoring one profile against one campaign
type TargetingScore struct {
	PatientID          string   `json:"patient_id"`
	PatientName        string   `json:"patient_name"`
	TotalScore         float64  `json:"total_score"`
	DemographicScore   float64  `json:"demographic_score"`
	BehavioralScore    float64  `json:"behavioral_score"`
	PsychologicalScore float64  `json:"psychological_score"`
	MatchingReasons    []string `json:"matching_reasons"`
	RecommendedChannel string   `json:"recommended_channel"` // email, text
	UrgencyLevel       string   `json:"urgency_level"`       // low, medium, high
	PersonalizedHooks  []string `json:"personalized_hooks"`
}

// TargetingResults summarizes one targeting run over all known profiles
type TargetingResults struct {
	TotalPatients   int                  `json:"total_patients"`
	MatchedPatients int                  `json:"matched_patients"`
	AverageScore    float64              `json:"average_score"`
	Targets         []TargetingScore     `json:"targets"`     // all retained, ranked
	TopTargets      []TargetingScore     `json:"top_targets"` // first 10 of Targets
	ChannelCounts   models.ChannelCounts `json:"channel_distribution"`
	UrgencyCounts   UrgencyCounts        `json:"urgency_distribution"`
}

// UrgencyCounts counts retained targets per urgency tier
type UrgencyCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// celebrityRef is one row of the fixed age-matching celebrity table
type celebrityRef struct {
	name string
	age  int
}

var celebrityTable = []celebrityRef{
	{"Jennifer Aniston", 54},
	{"Sandra Bullock", 59},
	{"Reese Witherspoon", 47},
	{"Charlize Theron", 48},
}

var engagementScores = map[string]float64{
	"high":   1.0,
	"medium": 0.7,
	"low":    0.4,
	"none":   0.1,
}

// TargetingEngine ranks patient profiles by fitness for a campaign
type TargetingEngine struct {
	profiles []models.PatientProfile
	nowFn    func() time.Time
}

// NewTargetingEngine creates an engine over a fixed, ordered profile set
func NewTargetingEngine(profiles []models.PatientProfile) *TargetingEngine {
	return &TargetingEngine{
		profiles: profiles,
		nowFn:    time.Now,
	}
}

// AnalyzeTargeting scores every profile against the criteria and returns
// the ranked targets plus distribution summaries. It never fails for
// well-formed criteria; callers validate criteria first.
func (e *TargetingEngine) AnalyzeTargeting(criteria models.CampaignCriteria) TargetingResults {
	scores := make([]TargetingScore, 0, len(e.profiles))

	for i := range e.profiles {
		score := e.scoreProfile(&e.profiles[i], criteria)
		if score.TotalScore > inclusionThreshold {
			scores = append(scores, score)
		}
	}

	// Descending by total score; stable so profile order breaks ties
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	return e.buildResults(scores)
}

func (e *TargetingEngine) scoreProfile(p *models.PatientProfile, criteria models.CampaignCriteria) TargetingScore {
	demographic := clamp01(e.demographicScore(p, criteria.Demographics))
	behavioral := clamp01(e.behavioralScore(p, criteria.Behavioral))
	psychological := clamp01(e.psychologicalScore(p, criteria.Psychological))

	total := (demographic + behavioral + psychological) / 3

	return TargetingScore{
		PatientID:          patientID(p),
		PatientName:        p.Name,
		TotalScore:         total,
		DemographicScore:   demographic,
		BehavioralScore:    behavioral,
		PsychologicalScore: psychological,
		MatchingReasons:    e.matchingReasons(p, criteria),
		RecommendedChannel: e.recommendChannel(p, criteria),
		UrgencyLevel:       e.urgencyLevel(p, criteria),
		PersonalizedHooks:  e.personalizedHooks(p),
	}
}

// demographicScore averages the configured demographic factors. Filters the
// campaign leaves unset are excluded from the denominator rather than
// counting as zero.
func (e *TargetingEngine) demographicScore(p *models.PatientProfile, d models.DemographicCriteria) float64 {
	var score float64
	var factors int

	// Age: in-range credit plus a proximity-to-midpoint bonus. A
	// zero-valued range means no age filter was configured, so it stays
	// out of the denominator like the other unset filters.
	if d.AgeRange.Max > 0 {
		if p.Age >= d.AgeRange.Min && p.Age <= d.AgeRange.Max {
			score += 1
			mid := float64(d.AgeRange.Min+d.AgeRange.Max) / 2
			span := float64(d.AgeRange.Max - d.AgeRange.Min)
			proximity := 1.0
			if span > 0 {
				proximity = 1 - math.Abs(float64(p.Age)-mid)/span
			}
			score += proximity * 0.5
		}
		factors++
	}

	if len(d.Gender) > 0 {
		if genderAccepted(d.Gender, p.Gender) {
			score += 1
		}
		factors++
	}

	if d.Location.ZipCode != "" {
		// Proximity is simulated: a stable per-patient signal stands in
		// for real geo data
		if profileSignal(patientID(p), "location") > 0.3 {
			score += 1
		} else {
			score += 0.5
		}
		factors++
	}

	if d.IncomeLevel != "" {
		score += incomeMatch(p, d.IncomeLevel)
		factors++
	}

	if factors == 0 {
		return neutralScore
	}
	return score / float64(factors)
}

// behavioralScore averages the configured behavioral factors
func (e *TargetingEngine) behavioralScore(p *models.PatientProfile, b models.BehavioralCriteria) float64 {
	var score float64
	var factors int

	if len(b.ProcedureHistory) > 0 {
		matched := 0
		for _, proc := range b.ProcedureHistory {
			if hasProcedure(p, proc) {
				matched++
			}
		}
		score += float64(matched) / float64(len(b.ProcedureHistory))
		factors++
	}

	if len(b.ProcedureNotTried) > 0 {
		notTried := 0
		for _, proc := range b.ProcedureNotTried {
			if !hasProcedure(p, proc) {
				notTried++
			}
		}
		score += float64(notTried) / float64(len(b.ProcedureNotTried))
		factors++
	}

	if b.LifetimeValueRange.Max > 0 {
		if p.LifetimeValue != nil {
			ltv := *p.LifetimeValue
			min, max := b.LifetimeValueRange.Min, b.LifetimeValueRange.Max
			if ltv >= min && ltv <= max {
				score += 1
				if max > min {
					// Position within the range earns a bonus
					score += (ltv - min) / (max - min) * 0.5
				}
			}
		}
		factors++
	}

	if b.LastVisitRange != "" {
		if p.LastVisit != nil {
			score += visitRecency(e.daysSinceVisit(*p.LastVisit), b.LastVisitRange)
		}
		factors++
	}

	if b.EngagementLevel != "" {
		score += engagementMatch(p.EmailEngagement)
		factors++
	}

	if factors == 0 {
		return neutralScore
	}
	return score / float64(factors)
}

// psychologicalScore averages the configured trigger factors
func (e *TargetingEngine) psychologicalScore(p *models.PatientProfile, t models.PsychologicalTriggers) float64 {
	var score float64
	var factors int

	if len(t.LifeEvents) > 0 {
		matched := 0
		for _, event := range t.LifeEvents {
			if containsFold(p.LifeEvents, event) || inferLifeEvent(p, event) {
				matched++
			}
		}
		score += float64(matched) / float64(len(t.LifeEvents))
		factors++
	}

	if len(t.Seasonal) > 0 {
		// Any seasonal trigger gets flat credit for every profile
		score += 0.8
		factors++
	}

	if len(t.Cultural) > 0 {
		score += culturalMatch(p, t.Cultural)
		factors++
	}

	if factors == 0 {
		return neutralScore
	}
	return score / float64(factors)
}

// recommendChannel accumulates signals for email vs text; email wins ties
func (e *TargetingEngine) recommendChannel(p *models.PatientProfile, criteria models.CampaignCriteria) string {
	email, text := 0, 0

	if p.Age > 50 {
		email++
	} else if p.Age < 35 {
		text++
	}

	switch p.EmailEngagement {
	case "high":
		email += 2
	case "low":
		text++
	}

	if containsFold(criteria.Psychological.Seasonal, "Holiday parties") {
		text++ // holiday pushes are more time-sensitive
	}

	if p.LifetimeValue != nil && *p.LifetimeValue > 10000 {
		email++
	}

	if email >= text {
		return "email"
	}
	return "text"
}

// urgencyLevel maps an integer urgency total onto three tiers
func (e *TargetingEngine) urgencyLevel(p *models.PatientProfile, criteria models.CampaignCriteria) string {
	urgency := 0

	if containsFold(criteria.Psychological.Seasonal, "Holiday parties") {
		urgency += 2
	}

	if p.LastVisit != nil {
		days := e.daysSinceVisit(*p.LastVisit)
		if days > 180 {
			urgency += 2 // lapsed patient, reactivation window
		} else if days > 90 {
			urgency++
		}
	}

	if containsFold(criteria.Psychological.LifeEvents, "Wedding") {
		urgency += 3
	}

	switch {
	case urgency >= 3:
		return "high"
	case urgency >= 2:
		return "medium"
	default:
		return "low"
	}
}

// personalizedHooks builds the ordered hook list used to steer drafting
func (e *TargetingEngine) personalizedHooks(p *models.PatientProfile) []string {
	hooks := []string{}

	if hook := CelebrityHook(p.Age); hook != "" {
		hooks = append(hooks, hook)
	}

	if last := lastProcedure(p); last != "" {
		hooks = append(hooks, fmt.Sprintf("Your %s results were amazing", last))
	}

	if containsFold(p.Traits, "Quality-focused") {
		hooks = append(hooks, "Premium results deserve premium care")
	}
	if containsFold(p.Traits, "Busy Mom") {
		hooks = append(hooks, "Quick treatments that fit your schedule")
	}

	return hooks
}

// matchingReasons assembles the human-readable transparency strings; they
// mirror the scoring signals but never feed back into the scores
func (e *TargetingEngine) matchingReasons(p *models.PatientProfile, criteria models.CampaignCriteria) []string {
	reasons := []string{}

	if p.Age >= criteria.Demographics.AgeRange.Min && p.Age <= criteria.Demographics.AgeRange.Max {
		reasons = append(reasons, fmt.Sprintf("Perfect age match (%d)", p.Age))
	}

	if len(criteria.Behavioral.ProcedureHistory) > 0 {
		matched := []string{}
		for _, proc := range criteria.Behavioral.ProcedureHistory {
			if hasProcedure(p, proc) {
				matched = append(matched, proc)
			}
		}
		if len(matched) > 0 {
			reasons = append(reasons, "Has experience with "+strings.Join(matched, ", "))
		}
	}

	if p.LifetimeValue != nil && *p.LifetimeValue > 5000 {
		reasons = append(reasons, fmt.Sprintf("High-value patient ($%.0f)", *p.LifetimeValue))
	}

	relevant := []string{}
	for _, trait := range p.Traits {
		switch trait {
		case "Quality-focused", "Trend-conscious", "Social":
			relevant = append(relevant, trait)
		}
	}
	if len(relevant) > 0 {
		reasons = append(reasons, "Personality match: "+strings.Join(relevant, ", "))
	}

	return reasons
}

func (e *TargetingEngine) buildResults(scores []TargetingScore) TargetingResults {
	results := TargetingResults{
		TotalPatients:   len(e.profiles),
		MatchedPatients: len(scores),
		Targets:         scores,
	}

	var sum float64
	for _, s := range scores {
		sum += s.TotalScore

		if s.RecommendedChannel == "email" {
			results.ChannelCounts.Email++
		} else {
			results.ChannelCounts.Text++
		}

		switch s.UrgencyLevel {
		case "high":
			results.UrgencyCounts.High++
		case "medium":
			results.UrgencyCounts.Medium++
		default:
			results.UrgencyCounts.Low++
		}
	}

	if len(scores) > 0 {
		results.AverageScore = sum / float64(len(scores))
	}

	top := len(scores)
	if top > topTargetLimit {
		top = topTargetLimit
	}
	results.TopTargets = scores[:top]

	return results
}

func (e *TargetingEngine) daysSinceVisit(lastVisit time.Time) int {
	return int(e.nowFn().Sub(lastVisit).Hours() / 24)
}

// neutralScore is the non-penalizing contribution of a dimension with no
// configured filters
const neutralScore = 0.5

// CelebrityHook returns the hook for the celebrity nearest in age, ties
// broken by table order
func CelebrityHook(age int) string {
	closest := celebrityTable[0]
	for _, c := range celebrityTable[1:] {
		if abs(c.age-age) < abs(closest.age-age) {
			closest = c
		}
	}
	return fmt.Sprintf("%s (age %d) secret revealed", closest.name, closest.age)
}

// NearestCelebrity returns the name and age of the closest-in-age celebrity
func NearestCelebrity(age int) (string, int) {
	closest := celebrityTable[0]
	for _, c := range celebrityTable[1:] {
		if abs(c.age-age) < abs(closest.age-age) {
			closest = c
		}
	}
	return closest.name, closest.age
}

// profileSignal maps a patient identifier and salt onto [0,1). It replaces
// the random draws used for soft signals with a stable per-patient value.
func profileSignal(id, salt string) float64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	h.Write([]byte{':'})
	h.Write([]byte(salt))
	return float64(h.Sum64()%10000) / 10000
}

func patientID(p *models.PatientProfile) string {
	if p.ID != 0 {
		return fmt.Sprintf("%d", p.ID)
	}
	return p.Name
}

func genderAccepted(accepted []string, gender string) bool {
	for _, g := range accepted {
		if strings.EqualFold(g, "all") || strings.EqualFold(g, gender) {
			return true
		}
	}
	return false
}

// incomeMatch infers income-bracket compatibility from lifetime value
func incomeMatch(p *models.PatientProfile, incomeLevel string) float64 {
	var ltv float64
	if p.LifetimeValue != nil {
		ltv = *p.LifetimeValue
	}

	switch incomeLevel {
	case "250k+":
		if ltv > 15000 {
			return 1
		}
		return 0.5
	case "150k-250k":
		if ltv > 10000 {
			return 1
		}
		return 0.7
	case "100k-150k":
		if ltv > 5000 {
			return 1
		}
		return 0.8
	default:
		return 0.6
	}
}

// visitRecency gives full credit for an exact bucket match, partial credit
// for adjacent buckets
func visitRecency(days int, bucket string) float64 {
	switch bucket {
	case "0-30":
		if days <= 30 {
			return 1
		}
		return 0
	case "31-90":
		if days > 30 && days <= 90 {
			return 1
		}
		return 0.5
	case "91-180":
		if days > 90 && days <= 180 {
			return 1
		}
		return 0.3
	default: // 180+
		if days > 180 {
			return 1
		}
		return 0.2
	}
}

func engagementMatch(engagement string) float64 {
	if engagement == "" {
		return neutralScore // unknown engagement, no penalty
	}
	if score, ok := engagementScores[engagement]; ok {
		return score
	}
	return neutralScore
}

// inferLifeEvent is the deterministic stand-in for the probabilistic
// life-event inference: the same profile always infers the same events
func inferLifeEvent(p *models.PatientProfile, event string) bool {
	if strings.EqualFold(event, "Wedding") && p.Age >= 25 && p.Age <= 35 {
		return profileSignal(patientID(p), "life:wedding") > 0.7
	}
	if strings.EqualFold(event, "New Job") && containsFold(p.Traits, "Professional") {
		return profileSignal(patientID(p), "life:newjob") > 0.6
	}
	return false
}

func culturalMatch(p *models.PatientProfile, cultural []string) float64 {
	var match float64

	if containsFold(cultural, "Celebrity news") {
		if p.Age < 50 {
			match += 0.8
		} else {
			match += 0.6
		}
	}

	if containsFold(cultural, "Award shows") {
		if containsFold(p.Traits, "Trend-conscious") {
			match += 0.9
		} else {
			match += 0.5
		}
	}

	return math.Min(match, 1)
}

func hasProcedure(p *models.PatientProfile, procedure string) bool {
	needle := strings.ToLower(procedure)
	for _, rec := range p.Procedures {
		if strings.Contains(strings.ToLower(rec.Procedure), needle) {
			return true
		}
	}
	return false
}

func lastProcedure(p *models.PatientProfile) string {
	if len(p.Procedures) == 0 {
		return ""
	}
	return p.Procedures[len(p.Procedures)-1].Procedure
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
