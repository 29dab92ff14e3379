package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePreview(t *testing.T) {
	m := NewPreviewManager("Dr. Glow Team")

	preview := m.CreatePreview("Fall laser specials", "email", "Amy")

	assert.True(t, strings.HasPrefix(preview.MessageID, "preview_"))
	assert.Equal(t, "Amy", preview.PatientName)
	assert.Contains(t, preview.Content, "Fall laser specials")
	assert.Contains(t, preview.Content, "Dr. Glow Team")
	assert.Equal(t, "Amy, Your Personalized Treatment Preview", preview.Subject)
	assert.GreaterOrEqual(t, preview.Score, 60.0)
	assert.Less(t, preview.Score, 100.0)
	assert.False(t, preview.IsOptimized)

	stored, ok := m.GetPreview(preview.MessageID)
	require.True(t, ok)
	assert.Equal(t, preview, stored)
}

func TestCreatePreviewTextChannelHasNoSubject(t *testing.T) {
	m := NewPreviewManager("")

	preview := m.CreatePreview("Fall laser specials", "text", "Amy")

	assert.Empty(t, preview.Subject)
	assert.Equal(t, "text", preview.Channel)
}

func TestCreatePreviewScoreIsStablePerPatient(t *testing.T) {
	m := NewPreviewManager("")

	first := m.CreatePreview("Brief", "email", "Amy")
	second := m.CreatePreview("Brief", "email", "Amy")

	assert.NotEqual(t, first.MessageID, second.MessageID)
	assert.Equal(t, first.Score, second.Score)
}

func TestUpdatePreviewMergesPartialEdit(t *testing.T) {
	m := NewPreviewManager("")
	preview := m.CreatePreview("Brief", "email", "Amy")

	content := "Rewritten content"
	updated, ok := m.UpdatePreview(preview.MessageID, PreviewUpdate{Content: &content})

	require.True(t, ok)
	assert.Equal(t, "Rewritten content", updated.Content)
	// Untouched fields survive the merge
	assert.Equal(t, preview.Subject, updated.Subject)
	assert.Equal(t, preview.PatientName, updated.PatientName)
	assert.Equal(t, preview.Score, updated.Score)
}

func TestUpdatePreviewUnknownID(t *testing.T) {
	m := NewPreviewManager("")

	_, ok := m.UpdatePreview("preview_missing", PreviewUpdate{})
	assert.False(t, ok)
}

func TestOptimizePreview(t *testing.T) {
	m := NewPreviewManager("")
	preview := m.CreatePreview("Brief", "email", "Amy")

	optimized, ok := m.OptimizePreview(preview.MessageID)

	require.True(t, ok)
	assert.True(t, optimized.IsOptimized)
	assert.True(t, strings.HasPrefix(optimized.Content, "Amy, EXCLUSIVE OFFER: "))
	assert.Contains(t, optimized.Content, "LIMITED TIME: Book within 48 hours")
	assert.Contains(t, optimized.Content, "Join 500+ satisfied patients")
	assert.True(t, strings.HasPrefix(optimized.Subject, "OPTIMIZED: "))
	assert.LessOrEqual(t, optimized.Score, 100.0)
	assert.Greater(t, optimized.Score, preview.Score)
}

func TestOptimizePreviewIsTerminal(t *testing.T) {
	m := NewPreviewManager("")
	preview := m.CreatePreview("Brief", "email", "Amy")

	first, ok := m.OptimizePreview(preview.MessageID)
	require.True(t, ok)

	second, ok := m.OptimizePreview(preview.MessageID)
	require.True(t, ok)

	assert.Equal(t, first, second)
}

func TestOptimizePreviewCapsScoreAtHundred(t *testing.T) {
	m := NewPreviewManager("")
	preview := m.CreatePreview("Brief", "email", "Amy")

	score := 95.0
	_, ok := m.UpdatePreview(preview.MessageID, PreviewUpdate{Score: &score})
	require.True(t, ok)

	optimized, ok := m.OptimizePreview(preview.MessageID)
	require.True(t, ok)
	assert.Equal(t, 100.0, optimized.Score)
}

func TestOnUpdateNotifiesInOrder(t *testing.T) {
	m := NewPreviewManager("")

	var order []string
	m.OnUpdate(func(Preview) { order = append(order, "first") })
	m.OnUpdate(func(Preview) { order = append(order, "second") })

	m.CreatePreview("Brief", "text", "Amy")

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestOnUpdateUnsubscribe(t *testing.T) {
	m := NewPreviewManager("")

	calls := 0
	unsubscribe := m.OnUpdate(func(Preview) { calls++ })

	m.CreatePreview("Brief", "text", "Amy")
	assert.Equal(t, 1, calls)

	unsubscribe()
	m.CreatePreview("Brief", "text", "Beth")
	assert.Equal(t, 1, calls)
}

func TestOnUpdateFiresForEveryMutation(t *testing.T) {
	m := NewPreviewManager("")

	var events []Preview
	m.OnUpdate(func(p Preview) { events = append(events, p) })

	preview := m.CreatePreview("Brief", "email", "Amy")
	content := "Edited"
	m.UpdatePreview(preview.MessageID, PreviewUpdate{Content: &content})
	m.OptimizePreview(preview.MessageID)

	require.Len(t, events, 3)
	assert.False(t, events[0].IsOptimized)
	assert.Equal(t, "Edited", events[1].Content)
	assert.True(t, events[2].IsOptimized)
}
