package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestScoreCondition_Matches(t *testing.T) {
	tests := []struct {
		op    string
		value int
		score int
		want  bool
	}{
		{"<", 5, 4, true},
		{"<", 5, 5, false},
		{"<=", 5, 5, true},
		{">", 5, 6, true},
		{">", 5, 5, false},
		{">=", 8, 8, true},
		{"==", 7, 7, true},
		{"==", 7, 6, false},
		{"!!", 7, 7, false},
	}
	for _, tt := range tests {
		c := ScoreCondition{Op: tt.op, Value: tt.value}
		assert.Equal(t, tt.want, c.Matches(tt.score), "op=%s value=%d score=%d", tt.op, tt.value, tt.score)
	}
}

func TestRuleConditions_Validate_Empty(t *testing.T) {
	c := RuleConditions{}
	err := c.Validate()
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestRuleConditions_Validate_BadOperator(t *testing.T) {
	c := RuleConditions{ImpactScore: &ScoreCondition{Op: "~", Value: 5}}
	require.Error(t, c.Validate())
}

func TestRuleConditions_Validate_ConfidenceRange(t *testing.T) {
	c := RuleConditions{MinAIConfidence: intPtr(150)}
	require.Error(t, c.Validate())

	c = RuleConditions{MinAIConfidence: intPtr(90)}
	require.NoError(t, c.Validate())
}

func TestDerivePriority(t *testing.T) {
	critical := map[string]bool{"api_reference": true, "security_guide": true}

	assert.Equal(t, 5, DerivePriority(5, "user_guide", critical))
	assert.Equal(t, 7, DerivePriority(5, "api_reference", critical))
	// Boost is capped at the maximum score.
	assert.Equal(t, 10, DerivePriority(9, "security_guide", critical))
	assert.Equal(t, 10, DerivePriority(10, "user_guide", critical))
}

func TestRole_CanReviewImpact(t *testing.T) {
	assert.False(t, RoleViewer.CanReviewImpact(3))
	assert.True(t, RoleReviewer.CanReviewImpact(7))
	assert.False(t, RoleReviewer.CanReviewImpact(8))
	assert.True(t, RoleLeadReviewer.CanReviewImpact(9))
	assert.True(t, RoleAdmin.CanReviewImpact(10))
}

func TestReviewStatus_Terminal(t *testing.T) {
	assert.False(t, ReviewPending.Terminal())
	assert.False(t, ReviewInReview.Terminal())
	assert.True(t, ReviewApproved.Terminal())
	assert.True(t, ReviewApprovedWithChanges.Terminal())
	assert.True(t, ReviewRejected.Terminal())
	assert.True(t, ReviewAutoApproved.Terminal())
}
