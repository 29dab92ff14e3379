package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glowreach/models"
)

// stubComposer returns fixed copy, or fails for names in failFor
type stubComposer struct {
	content string
	failFor map[string]bool
}

func (s *stubComposer) Compose(_ context.Context, target TargetingScore, _ string) (Draft, error) {
	if s.failFor[target.PatientName] {
		return Draft{}, fmt.Errorf("composer down")
	}
	return Draft{Content: s.content}, nil
}

func broadCriteria() models.CampaignCriteria {
	return models.CampaignCriteria{
		Demographics: models.DemographicCriteria{
			AgeRange: models.AgeRange{Min: 40, Max: 60},
			Gender:   []string{"all"},
		},
	}
}

func matchingProfiles(names ...string) []models.PatientProfile {
	profiles := make([]models.PatientProfile, 0, len(names))
	for _, name := range names {
		profiles = append(profiles, models.PatientProfile{
			Name: name, Age: 50, Gender: "Female",
		})
	}
	return profiles
}

func TestGenerateBatchTruncatesToMaxMessages(t *testing.T) {
	criteria := broadCriteria()
	o := NewBatchOrchestrator(matchingProfiles("Amy", "Beth", "Cara", "Dana", "Eve"),
		criteria, "Fall specials", NewTemplateComposer(""))

	result, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalGenerated)
	assert.Len(t, result.Messages, 2)
	assert.Zero(t, result.SkippedTargets)
	assert.True(t, strings.HasPrefix(result.BatchID, "batch_"))
}

func TestGenerateBatchEstimatedEngagementBand(t *testing.T) {
	criteria := broadCriteria()
	o := NewBatchOrchestrator(matchingProfiles("Amy", "Beth"),
		criteria, "Fall specials", NewTemplateComposer(""))

	result, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages: 10,
	})

	require.NoError(t, err)
	for _, msg := range result.Messages {
		assert.GreaterOrEqual(t, msg.EstimatedEngagement, 60)
		assert.LessOrEqual(t, msg.EstimatedEngagement, 100)
		assert.True(t, strings.HasPrefix(msg.ID, "msg_"))
	}
}

func TestGenerateBatchABVariants(t *testing.T) {
	criteria := broadCriteria()
	o := NewBatchOrchestrator(matchingProfiles("Amy"),
		criteria, "Fall specials", NewTemplateComposer(""))

	result, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages:       1,
		IncludeABVariants: true,
	})

	require.NoError(t, err)
	require.Len(t, result.Messages, 3)

	base, urgent, social := result.Messages[0], result.Messages[1], result.Messages[2]

	assert.Equal(t, base.ID+"_urgent", urgent.ID)
	assert.Equal(t, base.ID+"_social", social.ID)

	assert.True(t, strings.HasPrefix(urgent.Content, "🚨 URGENT: "))
	assert.Equal(t, "URGENT: "+base.Subject, urgent.Subject)
	assert.Contains(t, urgent.PersonalizedElements, "Urgent Variant")

	assert.True(t, strings.HasSuffix(social.Content, "⭐ Trusted by 1,000+ patients in your area!"))
	assert.Contains(t, social.PersonalizedElements, "Social Proof Variant")

	// Variants never leak their tags back into the base message
	assert.NotContains(t, base.PersonalizedElements, "Urgent Variant")
	assert.NotContains(t, base.PersonalizedElements, "Social Proof Variant")
}

func TestGenerateBatchSkipsComposerFailures(t *testing.T) {
	criteria := broadCriteria()
	composer := &stubComposer{content: "Hello", failFor: map[string]bool{"Beth": true}}
	o := NewBatchOrchestrator(matchingProfiles("Amy", "Beth", "Cara"),
		criteria, "Fall specials", composer)

	result, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalGenerated)
	assert.Equal(t, 1, result.SkippedTargets)
	for _, msg := range result.Messages {
		assert.NotEqual(t, "Beth", msg.PatientName)
	}
}

func TestGenerateBatchMinQualityExcludesWeakTargets(t *testing.T) {
	criteria := broadCriteria()
	o := NewBatchOrchestrator(matchingProfiles("Amy", "Beth"),
		criteria, "Fall specials", NewTemplateComposer(""))

	result, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages:     10,
		MinQualityScore: 90,
	})

	require.NoError(t, err)
	assert.Zero(t, result.TotalGenerated)
	assert.Empty(t, result.Messages)
}

func TestGenerateBatchValidatesOptions(t *testing.T) {
	criteria := broadCriteria()
	o := NewBatchOrchestrator(nil, criteria, "Fall specials", NewTemplateComposer(""))

	_, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{MaxMessages: 0})
	assert.Error(t, err)

	_, err = o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages: 1, MinQualityScore: 150,
	})
	assert.Error(t, err)
}

func TestGenerateBatchRewritesLowScoringMessages(t *testing.T) {
	criteria := broadCriteria()
	composer := &stubComposer{content: "Greetings."}
	o := NewBatchOrchestrator(matchingProfiles("Dana"), criteria, "Fall specials", composer)

	result, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages:     1,
		MinQualityScore: 65,
		IncludeScoring:  true,
	})

	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	msg := result.Messages[0]
	assert.Contains(t, msg.PersonalizedElements, "AI Optimized")
	assert.True(t, strings.HasPrefix(msg.Content, "Limited time offer - Dana, based on your unique profile, "))
	assert.Contains(t, msg.Content, "Join 500+ satisfied patients who chose us this month!")
	assert.Contains(t, msg.Content, "[BOOK NOW - Secure Your Spot Today!]")
	assert.Equal(t, "Dana, Your Baby Boomer Beauty Transformation Awaits", msg.Subject)
}

func TestGenerateBatchKeepsStrongMessagesUntouched(t *testing.T) {
	criteria := broadCriteria()
	composer := &stubComposer{content: richMessage().Content}
	o := NewBatchOrchestrator(matchingProfiles("Dana"), criteria, "Fall specials", composer)

	result, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages:     1,
		MinQualityScore: 40,
		IncludeScoring:  true,
	})

	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.NotContains(t, result.Messages[0].PersonalizedElements, "AI Optimized")
	assert.Equal(t, richMessage().Content, result.Messages[0].Content)
}

func TestGenerateBatchStatistics(t *testing.T) {
	criteria := broadCriteria()
	o := NewBatchOrchestrator(matchingProfiles("Amy", "Beth", "Cara"),
		criteria, "Fall specials", NewTemplateComposer(""))

	result, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages:    10,
		IncludeScoring: true,
	})

	require.NoError(t, err)

	stats := result.Statistics
	assert.Equal(t, len(result.Messages), stats.ByChannel.Email+stats.ByChannel.Text)
	assert.Equal(t, len(result.Messages), stats.ByScore.High+stats.ByScore.Medium+stats.ByScore.Low)
	assert.Greater(t, stats.AverageScore, 0.0)
}

func TestGenerateBatchExport(t *testing.T) {
	criteria := broadCriteria()
	o := NewBatchOrchestrator(matchingProfiles("Amy"),
		criteria, "Fall specials", NewTemplateComposer(""))

	result, err := o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages:  1,
		ExportFormat: "csv",
	})

	require.NoError(t, err)
	require.NotNil(t, result.Export)
	assert.Equal(t, "csv", result.Export.Format)
	assert.True(t, strings.HasPrefix(result.Export.Filename, "campaign_"))
	assert.Equal(t, "text/csv", result.Export.ContentType)

	_, err = o.GenerateBatch(context.Background(), criteria, models.BatchOptions{
		MaxMessages:  1,
		ExportFormat: "pdf",
	})
	assert.Error(t, err)
}

func TestGenerateBatchHonorsContextCancellation(t *testing.T) {
	criteria := broadCriteria()
	o := NewBatchOrchestrator(matchingProfiles("Amy"),
		criteria, "Fall specials", NewTemplateComposer(""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.GenerateBatch(ctx, criteria, models.BatchOptions{MaxMessages: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
