package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"glowreach/models"
)

// BatchResult is the outcome of one batch generation run
type BatchResult struct {
	BatchID        string                 `json:"batch_id"`
	TotalGenerated int                    `json:"total_generated"`
	SkippedTargets int                    `json:"skipped_targets"`
	GeneratedAt    time.Time              `json:"generated_at"`
	Messages       []GeneratedMessage     `json:"messages"`
	Statistics     models.BatchStatistics `json:"statistics"`
	Export         *ExportData            `json:"export_data,omitempty"`
}

// BatchOrchestrator runs the full pipeline for one campaign: targeting,
// composition, scoring, quality rewrites, A/B variants and export.
type BatchOrchestrator struct {
	targeting *TargetingEngine
	scoring   *MessageScoringEngine
	composer  Composer
	brief     string
	nowFn     func() time.Time
}

// NewBatchOrchestrator wires the engines for one campaign over the given
// patient population
func NewBatchOrchestrator(profiles []models.PatientProfile, criteria models.CampaignCriteria, brief string, composer Composer) *BatchOrchestrator {
	return &BatchOrchestrator{
		targeting: NewTargetingEngine(profiles),
		scoring:   NewMessageScoringEngine(criteria),
		composer:  composer,
		brief:     brief,
		nowFn:     time.Now,
	}
}

// GenerateBatch produces up to opts.MaxMessages base messages for the
// highest-ranked targets. Composer failures skip the target and are counted,
// never aborting the run.
func (o *BatchOrchestrator) GenerateBatch(ctx context.Context, criteria models.CampaignCriteria, opts models.BatchOptions) (BatchResult, error) {
	if opts.MaxMessages < 1 {
		return BatchResult{}, fmt.Errorf("max_messages must be at least 1")
	}
	if opts.MinQualityScore < 0 || opts.MinQualityScore > 100 {
		return BatchResult{}, fmt.Errorf("min_quality_score must be between 0 and 100")
	}

	results := o.targeting.AnalyzeTargeting(criteria)
	threshold := opts.MinQualityScore / 100

	selected := make([]TargetingScore, 0, opts.MaxMessages)
	for _, target := range results.Targets {
		if target.TotalScore < threshold {
			continue
		}
		selected = append(selected, target)
		if len(selected) == opts.MaxMessages {
			break
		}
	}

	messages := make([]GeneratedMessage, 0, len(selected))
	skipped := 0

	for _, target := range selected {
		if err := ctx.Err(); err != nil {
			return BatchResult{}, err
		}

		msg, err := o.composeMessage(ctx, target)
		if err != nil {
			skipped++
			continue
		}

		if opts.IncludeScoring {
			msg = o.rewriteIfBelow(msg, threshold)
		}
		messages = append(messages, msg)

		if opts.IncludeABVariants {
			messages = append(messages, abVariants(msg)...)
		}
	}

	result := BatchResult{
		BatchID:        fmt.Sprintf("batch_%s", uuid.NewString()),
		TotalGenerated: len(messages),
		SkippedTargets: skipped,
		GeneratedAt:    o.nowFn(),
		Messages:       messages,
		Statistics:     o.statistics(messages, opts),
	}

	if opts.ExportFormat != "" {
		export, err := ExportMessages(messages, opts.ExportFormat, result.GeneratedAt)
		if err != nil {
			return BatchResult{}, err
		}
		result.Export = &export
	}

	return result, nil
}

func (o *BatchOrchestrator) composeMessage(ctx context.Context, target TargetingScore) (GeneratedMessage, error) {
	draft, err := o.composer.Compose(ctx, target, o.brief)
	if err != nil {
		return GeneratedMessage{}, fmt.Errorf("compose for %s: %w", target.PatientName, err)
	}

	return GeneratedMessage{
		ID:                   fmt.Sprintf("msg_%s", uuid.NewString()),
		PatientName:          target.PatientName,
		Channel:              target.RecommendedChannel,
		Subject:              draft.Subject,
		Content:              draft.Content,
		PersonalizedElements: target.PersonalizedHooks,
		MatchingCriteria:     target.MatchingReasons,
		EstimatedEngagement:  int(math.Floor(target.TotalScore*40)) + 60,
	}, nil
}

// rewriteIfBelow applies the scoring engine's rewrite guidance once. The
// rewritten message is kept regardless of its new score.
func (o *BatchOrchestrator) rewriteIfBelow(msg GeneratedMessage, threshold float64) GeneratedMessage {
	score := o.scoring.ScoreMessage(msg)
	if score.OverallScore >= threshold {
		return msg
	}

	for _, adjustment := range score.Recommendations.ContentAdjustments {
		switch {
		case strings.Contains(adjustment, "patient details"):
			msg.Content = enhancePersonalization(msg.Content, msg.PatientName)
		case strings.Contains(adjustment, "celebrity") || strings.Contains(adjustment, "social proof"):
			msg.Content = enhanceEngagement(msg.Content)
		case strings.Contains(adjustment, "call-to-action"):
			msg.Content = enhanceCallToAction(msg.Content, msg.Channel)
		}
	}

	if score.Recommendations.SubjectLine != "" {
		msg.Subject = score.Recommendations.SubjectLine
	}

	msg.PersonalizedElements = append(append([]string{}, msg.PersonalizedElements...), "AI Optimized")
	return msg
}

func enhancePersonalization(content, patientName string) string {
	if patientName != "" && !strings.Contains(strings.ToLower(content), strings.ToLower(patientName)) {
		return patientName + ", based on your unique profile, " + content
	}
	return content
}

func enhanceEngagement(content string) string {
	lower := strings.ToLower(content)
	if !strings.Contains(lower, "limited") && !strings.Contains(lower, "urgent") {
		content = "Limited time offer - " + content
	}
	if !strings.Contains(strings.ToLower(content), "patients") {
		content += "\n\nJoin 500+ satisfied patients who chose us this month!"
	}
	return content
}

func enhanceCallToAction(content, channel string) string {
	lower := strings.ToLower(content)
	if strings.Contains(lower, "book") || strings.Contains(lower, "call") {
		return content
	}
	if channel == "email" {
		return content + "\n\n[BOOK NOW - Secure Your Spot Today!]"
	}
	return content + " Reply BOOK now!"
}

// abVariants derives an urgency variant and a social-proof variant from a
// base message without mutating it
func abVariants(base GeneratedMessage) []GeneratedMessage {
	urgent := base
	urgent.ID = base.ID + "_urgent"
	if base.Subject != "" {
		urgent.Subject = "URGENT: " + base.Subject
	}
	urgent.Content = "🚨 URGENT: " + base.Content
	urgent.PersonalizedElements = append(append([]string{}, base.PersonalizedElements...), "Urgent Variant")

	social := base
	social.ID = base.ID + "_social"
	social.Content = base.Content + "\n\n⭐ Trusted by 1,000+ patients in your area!"
	social.PersonalizedElements = append(append([]string{}, base.PersonalizedElements...), "Social Proof Variant")

	return []GeneratedMessage{urgent, social}
}

func (o *BatchOrchestrator) statistics(messages []GeneratedMessage, opts models.BatchOptions) models.BatchStatistics {
	stats := models.BatchStatistics{}

	for _, msg := range messages {
		switch msg.Channel {
		case "email":
			stats.ByChannel.Email++
		case "text":
			stats.ByChannel.Text++
		}
	}

	if opts.IncludeScoring {
		campaignScore := o.scoring.ScoreCampaign(messages)
		for _, s := range campaignScore.MessageScores {
			switch {
			case s.OverallScore >= 0.8:
				stats.ByScore.High++
			case s.OverallScore >= 0.6:
				stats.ByScore.Medium++
			default:
				stats.ByScore.Low++
			}
		}
		stats.AverageScore = campaignScore.AverageScore
	}

	return stats
}
