package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "docflow/internal/db"
	"docflow/internal/domain"
)

func setupRuleRepo(t *testing.T) *RuleRepo {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return NewRuleRepo(writeDB)
}

func mkRule(t *testing.T, rules *RuleRepo, name string, priority int, active bool) *domain.ApprovalRule {
	t.Helper()
	r, err := rules.Create(context.Background(), &domain.ApprovalRule{
		Name:     name,
		Action:   domain.RuleActionAutoApprove,
		Priority: priority,
		Active:   active,
		Conditions: domain.RuleConditions{
			DocumentTypes: []string{"user_guide"},
		},
	})
	require.NoError(t, err)
	return r
}

func TestRuleRepo_ListActive_PriorityOrder(t *testing.T) {
	rules := setupRuleRepo(t)

	mkRule(t, rules, "low", 2, true)
	mkRule(t, rules, "high", 9, true)
	mkRule(t, rules, "disabled", 10, false)
	mkRule(t, rules, "mid", 5, true)

	active, err := rules.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "high", active[0].Name)
	assert.Equal(t, "mid", active[1].Name)
	assert.Equal(t, "low", active[2].Name)
}

func TestRuleRepo_IncrementUsage(t *testing.T) {
	rules := setupRuleRepo(t)
	r := mkRule(t, rules, "counter", 5, true)
	require.Zero(t, r.TimesApplied)
	require.Nil(t, r.LastAppliedAt)

	require.NoError(t, rules.IncrementUsage(context.Background(), r.ID))
	require.NoError(t, rules.IncrementUsage(context.Background(), r.ID))

	got, err := rules.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TimesApplied)
	assert.NotNil(t, got.LastAppliedAt)
}

func TestRuleRepo_DuplicateName(t *testing.T) {
	rules := setupRuleRepo(t)
	mkRule(t, rules, "dup", 5, true)

	_, err := rules.Create(context.Background(), &domain.ApprovalRule{
		Name:   "dup",
		Action: domain.RuleActionAutoApprove,
		Conditions: domain.RuleConditions{
			DocumentTypes: []string{"runbook"},
		},
	})
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestRuleRepo_ConditionsRoundTrip(t *testing.T) {
	rules := setupRuleRepo(t)

	minConf := 85
	created, err := rules.Create(context.Background(), &domain.ApprovalRule{
		Name:   "full-conditions",
		Action: domain.RuleActionAutoApprove,
		Conditions: domain.RuleConditions{
			DocumentTypes:   []string{"user_guide", "faq"},
			ImpactScore:     &domain.ScoreCondition{Op: "<=", Value: 3},
			MinAIConfidence: &minConf,
		},
	})
	require.NoError(t, err)

	got, err := rules.GetByName(context.Background(), "full-conditions")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []string{"user_guide", "faq"}, got.Conditions.DocumentTypes)
	require.NotNil(t, got.Conditions.ImpactScore)
	assert.Equal(t, "<=", got.Conditions.ImpactScore.Op)
	assert.Equal(t, 3, got.Conditions.ImpactScore.Value)
	require.NotNil(t, got.Conditions.MinAIConfidence)
	assert.Equal(t, 85, *got.Conditions.MinAIConfidence)
}
