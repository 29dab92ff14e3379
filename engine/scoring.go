package engine

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"glowreach/models"
)

// GeneratedMessage is one drafted marketing message for one target
type GeneratedMessage struct {
	ID                   string   `json:"id"`
	PatientName          string   `json:"patient_name"`
	Channel              string   `json:"channel"` // email, text
	Subject              string   `json:"subject,omitempty"`
	Content              string   `json:"content"`
	PersonalizedElements []string `json:"personalized_elements"`
	MatchingCriteria     []string `json:"matching_criteria"`
	EstimatedEngagement  int      `json:"estimated_engagement"` // 60-100
}

// MessageScore is the quality assessment of one GeneratedMessage
type MessageScore struct {
	MessageID            string                      `json:"message_id"`
	OverallScore         float64                     `json:"overall_score"`
	PersonalizationScore float64                     `json:"personalization_score"`
	EngagementScore      float64                     `json:"engagement_score"`
	ActionabilityScore   float64                     `json:"actionability_score"`
	BrandAlignmentScore  float64                     `json:"brand_alignment_score"`
	DetailedFeedback     DetailedFeedback            `json:"detailed_feedback"`
	Recommendations      OptimizationRecommendations `json:"optimization_recommendations"`
}

// DetailedFeedback carries the per-axis threshold-driven commentary
type DetailedFeedback struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Suggestions  []string `json:"suggestions"`
}

// OptimizationRecommendations carries actionable rewrite guidance
type OptimizationRecommendations struct {
	SubjectLine           string   `json:"subject_line,omitempty"`
	ContentAdjustments    []string `json:"content_adjustments,omitempty"`
	TimingRecommendations []string `json:"timing_recommendations"`
	ChannelOptimization   string   `json:"channel_optimization,omitempty"`
}

// CampaignScore aggregates message scores over a whole batch
type CampaignScore struct {
	CampaignID       string                `json:"campaign_id"`
	AverageScore     float64               `json:"average_score"`
	MessageScores    []MessageScore        `json:"message_scores"`
	Optimizations    CampaignOptimizations `json:"campaign_optimizations"`
	PredictedMetrics PredictedMetrics      `json:"predicted_metrics"`
}

// CampaignOptimizations summarizes patterns across a scored batch
type CampaignOptimizations struct {
	BestPerformingPatterns  []string `json:"best_performing_patterns"`
	UnderperformingElements []string `json:"underperforming_elements"`
	GlobalRecommendations   []string `json:"global_recommendations"`
}

// PredictedMetrics are the clamped engagement forecasts, in percent
type PredictedMetrics struct {
	OpenRate         int `json:"open_rate"`          // 15-60
	ClickThroughRate int `json:"click_through_rate"` // 5-30
	ConversionRate   int `json:"conversion_rate"`    // 2-17
	ResponseRate     int `json:"response_rate"`      // 10-60
}

var (
	emotionalWords     = []string{"amazing", "beautiful", "confidence", "stunning", "glow", "radiant"}
	ctaWords           = []string{"book", "call", "schedule", "reserve", "click", "reply", "respond"}
	medicalTerms       = []string{"botox", "filler", "laser", "treatment", "procedure", "consultation"}
	inappropriateWords = []string{"cheap", "discount", "sale", "deal"}

	// Two adjacent capitalized words, the shape of a person's name
	namePattern = regexp.MustCompile(`[A-Z][a-z]+\s+[A-Z][a-z]+`)
)

// MessageScoringEngine evaluates composed messages for quality. The campaign
// criteria inform subject-line and timing recommendations only, never the
// scores themselves.
type MessageScoringEngine struct {
	criteria models.CampaignCriteria
}

// NewMessageScoringEngine creates a scoring engine for one campaign
func NewMessageScoringEngine(criteria models.CampaignCriteria) *MessageScoringEngine {
	return &MessageScoringEngine{criteria: criteria}
}

// ScoreMessage computes the four sub-scores and their derived feedback.
// Scoring is pure: the same message always yields the identical score.
func (s *MessageScoringEngine) ScoreMessage(msg GeneratedMessage) MessageScore {
	personalization := s.scorePersonalization(msg)
	engagement := s.scoreEngagement(msg)
	actionability := s.scoreActionability(msg)
	brand := s.scoreBrandAlignment(msg)

	overall := (personalization + engagement + actionability + brand) / 4

	return MessageScore{
		MessageID:            msg.ID,
		OverallScore:         overall,
		PersonalizationScore: personalization,
		EngagementScore:      engagement,
		ActionabilityScore:   actionability,
		BrandAlignmentScore:  brand,
		DetailedFeedback:     s.detailedFeedback(personalization, engagement, actionability, brand),
		Recommendations:      s.recommendations(msg, personalization, engagement, actionability, overall),
	}
}

// ScoreCampaign scores every message and derives batch-level rollups
func (s *MessageScoringEngine) ScoreCampaign(messages []GeneratedMessage) CampaignScore {
	scores := make([]MessageScore, 0, len(messages))
	var sum float64
	for _, msg := range messages {
		score := s.ScoreMessage(msg)
		scores = append(scores, score)
		sum += score.OverallScore
	}

	var average float64
	if len(scores) > 0 {
		average = sum / float64(len(scores))
	}

	return CampaignScore{
		CampaignID:       fmt.Sprintf("campaign_%d", time.Now().UnixMilli()),
		AverageScore:     average,
		MessageScores:    scores,
		Optimizations:    campaignOptimizations(scores),
		PredictedMetrics: predictMetrics(scores),
	}
}

func (s *MessageScoringEngine) scorePersonalization(msg GeneratedMessage) float64 {
	var score float64
	content := strings.ToLower(msg.Content)
	subject := strings.ToLower(msg.Subject)
	name := strings.ToLower(msg.PatientName)

	if name != "" && strings.Contains(content, name) {
		score += 0.2
	}

	// Age or any numeric reference counts as profile-specific detail
	if strings.Contains(content, "age") || strings.Contains(content, "years old") || containsDigit(content) {
		score += 0.2
	}

	switch n := len(msg.PersonalizedElements); {
	case n >= 3:
		score += 0.3
	case n >= 2:
		score += 0.2
	case n >= 1:
		score += 0.1
	}

	switch n := len(msg.MatchingCriteria); {
	case n >= 2:
		score += 0.2
	case n >= 1:
		score += 0.1
	}

	if msg.Channel == "email" && name != "" && strings.Contains(subject, name) {
		score += 0.1
	}

	return math.Min(score, 1.0)
}

func (s *MessageScoringEngine) scoreEngagement(msg GeneratedMessage) float64 {
	var score float64
	content := strings.ToLower(msg.Content)
	subject := strings.ToLower(msg.Subject)

	if containsAny(content, "urgent", "limited time", "expires") {
		score += 0.2
	}

	if containsAny(content, "other patients", "popular", "recommended") {
		score += 0.15
	}

	// Celebrity references: explicit mention or a name-shaped token
	if strings.Contains(content, "celebrity") || namePattern.MatchString(msg.Content) {
		score += 0.2
	}

	emotional := 0
	for _, word := range emotionalWords {
		if strings.Contains(content, word) {
			emotional++
		}
	}
	score += math.Min(float64(emotional)*0.05, 0.2)

	if strings.ContainsAny(content, "?!") {
		score += 0.1
	}

	if msg.Channel == "email" {
		if strings.ContainsAny(subject, "?!") || strings.Contains(subject, "urgent") {
			score += 0.1
		}
	}

	// Map the pre-existing 60-100 engagement estimate into 0-0.2
	estimated := msg.EstimatedEngagement
	if estimated == 0 {
		estimated = 60
	}
	score += float64(estimated-60) / 40 * 0.2

	return clamp01(score)
}

func (s *MessageScoringEngine) scoreActionability(msg GeneratedMessage) float64 {
	var score float64
	content := strings.ToLower(msg.Content)

	cta := 0
	for _, word := range ctaWords {
		if strings.Contains(content, word) {
			cta++
		}
	}
	score += math.Min(float64(cta)*0.15, 0.3)

	if containsAny(content, "one click", "simple", "easy") {
		score += 0.15
	}

	if containsAny(content, "today", "this week", "48 hours") {
		score += 0.2
	}

	if containsAny(content, "phone", "email", "text") {
		score += 0.1
	}

	if containsAny(content, "discount", "special", "offer") {
		score += 0.15
	}

	// SMS gets extra credit for a simple reply mechanism
	if msg.Channel == "text" {
		if containsAny(content, "y/n", "yes/no", "reply") {
			score += 0.2
		}
	}

	return math.Min(score, 1.0)
}

func (s *MessageScoringEngine) scoreBrandAlignment(msg GeneratedMessage) float64 {
	score := 0.5 // baseline
	content := strings.ToLower(msg.Content)

	if containsAny(content, "dr.", "doctor", "medical") {
		score += 0.2
	}

	terms := 0
	for _, term := range medicalTerms {
		if strings.Contains(content, term) {
			terms++
		}
	}
	score += math.Min(float64(terms)*0.05, 0.2)

	if containsAny(content, "care", "support", "journey") {
		score += 0.15
	}

	if containsAny(content, "quality", "excellence", "results") {
		score += 0.1
	}

	// Bargain language devalues a premium medical brand
	for _, word := range inappropriateWords {
		if strings.Contains(content, word) {
			score -= 0.1
		}
	}

	return clamp01(score)
}

func (s *MessageScoringEngine) detailedFeedback(personalization, engagement, actionability, brand float64) DetailedFeedback {
	fb := DetailedFeedback{
		Strengths:    []string{},
		Improvements: []string{},
		Suggestions:  []string{},
	}

	if personalization >= 0.8 {
		fb.Strengths = append(fb.Strengths, "Excellent personalization with multiple targeted elements")
	} else if personalization >= 0.6 {
		fb.Strengths = append(fb.Strengths, "Good personalization level")
	} else {
		fb.Improvements = append(fb.Improvements, "Increase personalization elements")
		fb.Suggestions = append(fb.Suggestions, "Add more patient-specific details like age, procedure history, or lifestyle factors")
	}

	if engagement >= 0.8 {
		fb.Strengths = append(fb.Strengths, "High engagement potential with emotional hooks")
	} else if engagement < 0.5 {
		fb.Improvements = append(fb.Improvements, "Enhance engagement elements")
		fb.Suggestions = append(fb.Suggestions, "Add celebrity references, social proof, or urgency elements")
	}

	if actionability >= 0.8 {
		fb.Strengths = append(fb.Strengths, "Clear and compelling call-to-action")
	} else if actionability < 0.6 {
		fb.Improvements = append(fb.Improvements, "Strengthen call-to-action")
		fb.Suggestions = append(fb.Suggestions, "Make the next steps clearer and add time-sensitive elements")
	}

	if brand >= 0.8 {
		fb.Strengths = append(fb.Strengths, "Excellent brand alignment and professional tone")
	} else if brand < 0.6 {
		fb.Improvements = append(fb.Improvements, "Better brand alignment needed")
		fb.Suggestions = append(fb.Suggestions, "Ensure professional medical aesthetic tone and terminology")
	}

	return fb
}

func (s *MessageScoringEngine) recommendations(msg GeneratedMessage, personalization, engagement, actionability, overall float64) OptimizationRecommendations {
	rec := OptimizationRecommendations{}

	if msg.Channel == "email" && engagement < 0.7 {
		rec.SubjectLine = fmt.Sprintf("%s, Your %s Beauty Transformation Awaits",
			msg.PatientName, s.generationLabel())
	}

	var adjustments []string
	if personalization < 0.6 {
		adjustments = append(adjustments, "Add more specific patient details and treatment history")
	}
	if engagement < 0.6 {
		adjustments = append(adjustments, "Include celebrity age-matching references and social proof")
	}
	if actionability < 0.6 {
		adjustments = append(adjustments, "Add clearer call-to-action with urgency elements")
	}
	rec.ContentAdjustments = adjustments

	var timing []string
	if len(s.criteria.Psychological.Seasonal) > 0 {
		timing = append(timing, "Send during optimal seasonal timing for maximum impact")
	}
	if msg.Channel == "email" {
		timing = append(timing, "Best send times: Tuesday 10AM or Thursday 2PM")
	} else {
		timing = append(timing, "Best send times: Weekdays 11AM-1PM or 5-7PM")
	}
	rec.TimingRecommendations = timing

	if overall < 0.6 {
		if msg.Channel == "email" {
			rec.ChannelOptimization = "Consider SMS for more immediate engagement"
		} else {
			rec.ChannelOptimization = "Consider email for more detailed personalization"
		}
	}

	return rec
}

// generationLabel derives a coarse generational tag from the campaign's
// configured age range midpoint, not from any individual patient
func (s *MessageScoringEngine) generationLabel() string {
	r := s.criteria.Demographics.AgeRange
	mid := float64(r.Min+r.Max) / 2

	switch {
	case mid < 35:
		return "Millennial"
	case mid < 50:
		return "Gen X"
	default:
		return "Baby Boomer"
	}
}

func campaignOptimizations(scores []MessageScore) CampaignOptimizations {
	opt := CampaignOptimizations{
		BestPerformingPatterns:  []string{},
		UnderperformingElements: []string{},
		GlobalRecommendations:   []string{},
	}

	anyHigh, anyLow := false, false
	var sumP, sumE, sumA float64
	for _, s := range scores {
		if s.OverallScore >= 0.8 {
			anyHigh = true
		}
		if s.OverallScore < 0.6 {
			anyLow = true
		}
		sumP += s.PersonalizationScore
		sumE += s.EngagementScore
		sumA += s.ActionabilityScore
	}

	if anyHigh {
		opt.BestPerformingPatterns = append(opt.BestPerformingPatterns,
			"High personalization with celebrity references",
			"Clear urgency and time-sensitive offers",
			"Professional medical aesthetic tone",
		)
	}

	if anyLow {
		opt.UnderperformingElements = append(opt.UnderperformingElements,
			"Generic messaging without personalization",
			"Weak call-to-action elements",
			"Lack of urgency or time sensitivity",
		)
	}

	if len(scores) > 0 {
		n := float64(len(scores))
		if sumP/n < 0.7 {
			opt.GlobalRecommendations = append(opt.GlobalRecommendations,
				"Increase personalization across all messages")
		}
		if sumE/n < 0.7 {
			opt.GlobalRecommendations = append(opt.GlobalRecommendations,
				"Add more engaging elements like celebrity references and social proof")
		}
		if sumA/n < 0.7 {
			opt.GlobalRecommendations = append(opt.GlobalRecommendations,
				"Strengthen call-to-action elements with clearer next steps")
		}
	}

	return opt
}

// predictMetrics converts campaign-mean scores into clamped percentage
// forecasts: open 15-60, click-through 5-30, conversion 2-17, response 10-60
func predictMetrics(scores []MessageScore) PredictedMetrics {
	var sumOverall, sumEngagement, sumActionability float64
	for _, s := range scores {
		sumOverall += s.OverallScore
		sumEngagement += s.EngagementScore
		sumActionability += s.ActionabilityScore
	}

	var avgOverall, avgEngagement, avgActionability float64
	if len(scores) > 0 {
		n := float64(len(scores))
		avgOverall = sumOverall / n
		avgEngagement = sumEngagement / n
		avgActionability = sumActionability / n
	}

	return PredictedMetrics{
		OpenRate:         int(math.Round(math.Min(avgEngagement*45+15, 60))),
		ClickThroughRate: int(math.Round(math.Min(avgActionability*25+5, 30))),
		ConversionRate:   int(math.Round(math.Min(avgOverall*15+2, 17))),
		ResponseRate:     int(math.Round(math.Min(avgOverall*50+10, 60))),
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
