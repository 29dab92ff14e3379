package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// Draft is a composed but not yet scored message body
type Draft struct {
	Subject string `json:"subject,omitempty"`
	Content string `json:"content"`
}

// Composer turns a ranked target plus a campaign brief into message copy.
// Implementations must be safe for concurrent use.
type Composer interface {
	Compose(ctx context.Context, target TargetingScore, brief string) (Draft, error)
}

// TemplateComposer builds copy from the target's hooks and matching reasons.
// It never fails and serves as the fallback for remote composers.
type TemplateComposer struct {
	ClinicName string
}

// NewTemplateComposer creates a template composer signing as the given clinic
func NewTemplateComposer(clinicName string) *TemplateComposer {
	if clinicName == "" {
		clinicName = "Dr. Clevens Team"
	}
	return &TemplateComposer{ClinicName: clinicName}
}

func (c *TemplateComposer) Compose(_ context.Context, target TargetingScore, brief string) (Draft, error) {
	draft := Draft{Content: c.content(target, brief)}
	if target.RecommendedChannel == "email" {
		draft.Subject = c.subject(target)
	}
	return draft, nil
}

func (c *TemplateComposer) content(target TargetingScore, brief string) string {
	var urgencyPrefix string
	if target.UrgencyLevel == "high" {
		urgencyPrefix = "URGENT: "
	}

	reasons := make([]string, 0, len(target.MatchingReasons))
	for _, reason := range target.MatchingReasons {
		reasons = append(reasons, "• "+reason)
	}

	return fmt.Sprintf(`%sHi %s,

%s

Based on your profile and preferences, we have a special opportunity for you.

%s

Why this is perfect for you:
%s

Book your consultation today for priority access!

Best regards,
%s

[Book Now - Priority Access]`,
		urgencyPrefix,
		target.PatientName,
		strings.Join(target.PersonalizedHooks, "\n"),
		brief,
		strings.Join(reasons, "\n"),
		c.ClinicName,
	)
}

func (c *TemplateComposer) subject(target TargetingScore) string {
	var urgencyPrefix string
	if target.UrgencyLevel == "high" {
		urgencyPrefix = "URGENT: "
	}
	return fmt.Sprintf("%s%s, Your %d%% Perfect Match Treatment",
		urgencyPrefix, target.PatientName, int(math.Round(target.TotalScore*100)))
}

// HTTPComposer delegates copywriting to an external generation service and
// falls back to template composition when the service is unreachable or
// returns garbage.
type HTTPComposer struct {
	URL      string
	Client   *http.Client
	Fallback *TemplateComposer
}

// NewHTTPComposer creates a composer backed by the generation service at url
func NewHTTPComposer(url string, fallback *TemplateComposer) *HTTPComposer {
	return &HTTPComposer{
		URL:      url,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Fallback: fallback,
	}
}

type composeRequest struct {
	PatientName       string   `json:"patient_name"`
	Channel           string   `json:"channel"`
	UrgencyLevel      string   `json:"urgency_level"`
	PersonalizedHooks []string `json:"personalized_hooks"`
	MatchingReasons   []string `json:"matching_reasons"`
	Brief             string   `json:"brief"`
}

func (c *HTTPComposer) Compose(ctx context.Context, target TargetingScore, brief string) (Draft, error) {
	draft, err := c.remote(ctx, target, brief)
	if err == nil {
		return draft, nil
	}
	if c.Fallback != nil {
		return c.Fallback.Compose(ctx, target, brief)
	}
	return Draft{}, err
}

func (c *HTTPComposer) remote(ctx context.Context, target TargetingScore, brief string) (Draft, error) {
	body, err := json.Marshal(composeRequest{
		PatientName:       target.PatientName,
		Channel:           target.RecommendedChannel,
		UrgencyLevel:      target.UrgencyLevel,
		PersonalizedHooks: target.PersonalizedHooks,
		MatchingReasons:   target.MatchingReasons,
		Brief:             brief,
	})
	if err != nil {
		return Draft{}, fmt.Errorf("marshal compose request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return Draft{}, fmt.Errorf("build compose request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Draft{}, fmt.Errorf("call generation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Draft{}, fmt.Errorf("generation service returned %d", resp.StatusCode)
	}

	var draft Draft
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		return Draft{}, fmt.Errorf("decode compose response: %w", err)
	}
	if draft.Content == "" {
		return Draft{}, fmt.Errorf("generation service returned empty content")
	}
	return draft, nil
}
