package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Preview is a live draft of one campaign message, editable before any
// batch is generated
type Preview struct {
	MessageID   string    `json:"message_id"`
	PatientName string    `json:"patient_name"`
	Content     string    `json:"content"`
	Subject     string    `json:"subject,omitempty"`
	Channel     string    `json:"channel"` // email, text
	Score       float64   `json:"score"`   // 60-100
	LastUpdated time.Time `json:"last_updated"`
	IsOptimized bool      `json:"is_optimized"`
}

// PreviewUpdate is a partial edit: nil fields are left untouched
type PreviewUpdate struct {
	PatientName *string  `json:"patient_name,omitempty"`
	Content     *string  `json:"content,omitempty"`
	Subject     *string  `json:"subject,omitempty"`
	Channel     *string  `json:"channel,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

type previewSubscriber struct {
	id int
	fn func(Preview)
}

// PreviewManager holds live previews and fans out every change to
// subscribers. Safe for concurrent use.
type PreviewManager struct {
	mu          sync.Mutex
	previews    map[string]Preview
	subscribers []previewSubscriber
	nextSubID   int
	clinicName  string
	nowFn       func() time.Time
}

// NewPreviewManager creates an empty preview manager signing as clinicName
func NewPreviewManager(clinicName string) *PreviewManager {
	if clinicName == "" {
		clinicName = "Dr. Clevens Team"
	}
	return &PreviewManager{
		previews:   make(map[string]Preview),
		clinicName: clinicName,
		nowFn:      time.Now,
	}
}

// CreatePreview drafts a placeholder message for one patient. The initial
// score is a stable function of the patient name, in the 60-100 band.
func (m *PreviewManager) CreatePreview(brief, channel, patientName string) Preview {
	preview := Preview{
		MessageID:   fmt.Sprintf("preview_%s", uuid.NewString()),
		PatientName: patientName,
		Content:     m.previewContent(brief, patientName),
		Channel:     channel,
		Score:       profileSignal(patientName, "preview-score")*40 + 60,
		LastUpdated: m.nowFn(),
	}
	if channel == "email" {
		preview.Subject = fmt.Sprintf("%s, Your Personalized Treatment Preview", patientName)
	}

	m.mu.Lock()
	m.previews[preview.MessageID] = preview
	subs := m.snapshotSubscribers()
	m.mu.Unlock()

	notify(subs, preview)
	return preview
}

// GetPreview returns a preview by id
func (m *PreviewManager) GetPreview(messageID string) (Preview, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	preview, ok := m.previews[messageID]
	return preview, ok
}

// UpdatePreview merges a partial edit into an existing preview and bumps its
// timestamp. Returns false when the id is unknown.
func (m *PreviewManager) UpdatePreview(messageID string, update PreviewUpdate) (Preview, bool) {
	m.mu.Lock()
	preview, ok := m.previews[messageID]
	if !ok {
		m.mu.Unlock()
		return Preview{}, false
	}

	if update.PatientName != nil {
		preview.PatientName = *update.PatientName
	}
	if update.Content != nil {
		preview.Content = *update.Content
	}
	if update.Subject != nil {
		preview.Subject = *update.Subject
	}
	if update.Channel != nil {
		preview.Channel = *update.Channel
	}
	if update.Score != nil {
		preview.Score = *update.Score
	}
	preview.LastUpdated = m.nowFn()

	m.previews[messageID] = preview
	subs := m.snapshotSubscribers()
	m.mu.Unlock()

	notify(subs, preview)
	return preview, true
}

// OptimizePreview rewrites a preview with exclusivity, urgency and social
// proof, and caps the score bump at 100. Optimization is terminal: a second
// call returns the preview unchanged.
func (m *PreviewManager) OptimizePreview(messageID string) (Preview, bool) {
	m.mu.Lock()
	preview, ok := m.previews[messageID]
	if !ok {
		m.mu.Unlock()
		return Preview{}, false
	}
	if preview.IsOptimized {
		m.mu.Unlock()
		return preview, true
	}

	preview.Content = preview.PatientName + ", EXCLUSIVE OFFER: " + preview.Content +
		"\n\n🌟 LIMITED TIME: Book within 48 hours for special pricing!" +
		"\n\n✨ Join 500+ satisfied patients who chose this treatment!"
	if preview.Subject != "" {
		preview.Subject = "OPTIMIZED: " + preview.Subject
	}
	if preview.Score+15 < 100 {
		preview.Score += 15
	} else {
		preview.Score = 100
	}
	preview.IsOptimized = true
	preview.LastUpdated = m.nowFn()

	m.previews[messageID] = preview
	subs := m.snapshotSubscribers()
	m.mu.Unlock()

	notify(subs, preview)
	return preview, true
}

// OnUpdate registers a callback fired after every create, update or
// optimize. The returned function removes the subscription.
func (m *PreviewManager) OnUpdate(fn func(Preview)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers = append(m.subscribers, previewSubscriber{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subscribers {
			if sub.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

// snapshotSubscribers must be called with mu held
func (m *PreviewManager) snapshotSubscribers() []previewSubscriber {
	subs := make([]previewSubscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	return subs
}

// notify runs callbacks outside the lock, in subscription order
func notify(subs []previewSubscriber, preview Preview) {
	for _, sub := range subs {
		sub.fn(preview)
	}
}

func (m *PreviewManager) previewContent(brief, patientName string) string {
	return fmt.Sprintf(`Hi %s,

%s

This is a personalized preview of your campaign message.

The content will be dynamically generated based on your targeting criteria and optimization settings.

Best regards,
%s

[Book Now]`, patientName, brief, m.clinicName)
}
