package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditCostBaseMessagesOnly(t *testing.T) {
	opts := BatchOptions{MaxMessages: 25}
	assert.Equal(t, 25, opts.CreditCost())
}

func TestCreditCostCoversVariants(t *testing.T) {
	// Every base message spawns an urgency and a social-proof variant, so
	// a full run persists up to three messages per base message
	opts := BatchOptions{MaxMessages: 25, IncludeABVariants: true}
	assert.Equal(t, 75, opts.CreditCost())
}

func TestCampaignCriteriaValidate(t *testing.T) {
	valid := CampaignCriteria{
		Demographics: DemographicCriteria{AgeRange: AgeRange{Min: 30, Max: 50}},
	}
	require.NoError(t, valid.Validate())

	inverted := CampaignCriteria{
		Demographics: DemographicCriteria{AgeRange: AgeRange{Min: 50, Max: 30}},
	}
	require.Error(t, inverted.Validate())

	badVisit := CampaignCriteria{
		Behavioral: BehavioralCriteria{LastVisitRange: "yesterday"},
	}
	require.Error(t, badVisit.Validate())
}
