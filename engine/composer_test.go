package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTarget() TargetingScore {
	return TargetingScore{
		PatientID:          "7",
		PatientName:        "Jennifer",
		TotalScore:         0.83,
		RecommendedChannel: "email",
		UrgencyLevel:       "low",
		PersonalizedHooks:  []string{"Jennifer Aniston (age 54) secret revealed"},
		MatchingReasons:    []string{"Perfect age match (52)", "Has experience with Botox"},
	}
}

func TestTemplateComposerEmail(t *testing.T) {
	c := NewTemplateComposer("Dr. Glow Team")

	draft, err := c.Compose(context.Background(), sampleTarget(), "Fall Botox specials")

	require.NoError(t, err)
	assert.Equal(t, "Jennifer, Your 83% Perfect Match Treatment", draft.Subject)
	assert.Contains(t, draft.Content, "Hi Jennifer,")
	assert.Contains(t, draft.Content, "Jennifer Aniston (age 54) secret revealed")
	assert.Contains(t, draft.Content, "Fall Botox specials")
	assert.Contains(t, draft.Content, "• Perfect age match (52)")
	assert.Contains(t, draft.Content, "• Has experience with Botox")
	assert.Contains(t, draft.Content, "Dr. Glow Team")
	assert.False(t, strings.HasPrefix(draft.Content, "URGENT: "))
}

func TestTemplateComposerHighUrgency(t *testing.T) {
	c := NewTemplateComposer("")
	target := sampleTarget()
	target.UrgencyLevel = "high"

	draft, err := c.Compose(context.Background(), target, "Fall Botox specials")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(draft.Content, "URGENT: "))
	assert.True(t, strings.HasPrefix(draft.Subject, "URGENT: Jennifer"))
}

func TestTemplateComposerTextChannel(t *testing.T) {
	c := NewTemplateComposer("")
	target := sampleTarget()
	target.RecommendedChannel = "text"

	draft, err := c.Compose(context.Background(), target, "Fall Botox specials")

	require.NoError(t, err)
	assert.Empty(t, draft.Subject)
	assert.NotEmpty(t, draft.Content)
}

func TestHTTPComposerUsesRemoteDraft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"subject":"Remote subject","content":"Remote content"}`))
	}))
	defer server.Close()

	c := NewHTTPComposer(server.URL, NewTemplateComposer(""))

	draft, err := c.Compose(context.Background(), sampleTarget(), "Brief")

	require.NoError(t, err)
	assert.Equal(t, "Remote subject", draft.Subject)
	assert.Equal(t, "Remote content", draft.Content)
}

func TestHTTPComposerFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewHTTPComposer(server.URL, NewTemplateComposer("Dr. Glow Team"))

	draft, err := c.Compose(context.Background(), sampleTarget(), "Fall Botox specials")

	require.NoError(t, err)
	assert.Contains(t, draft.Content, "Hi Jennifer,")
	assert.Contains(t, draft.Content, "Dr. Glow Team")
}

func TestHTTPComposerFallsBackOnEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":""}`))
	}))
	defer server.Close()

	c := NewHTTPComposer(server.URL, NewTemplateComposer(""))

	draft, err := c.Compose(context.Background(), sampleTarget(), "Brief")

	require.NoError(t, err)
	assert.NotEmpty(t, draft.Content)
}

func TestHTTPComposerErrorsWithoutFallback(t *testing.T) {
	c := NewHTTPComposer("http://127.0.0.1:1", nil)

	_, err := c.Compose(context.Background(), sampleTarget(), "Brief")
	assert.Error(t, err)
}
