package domain

import "time"

// Rule actions. Only auto-approve is evaluated by the engine today.
const (
	RuleActionAutoApprove = "auto_approve"
)

// Comparison operators accepted in impact-score conditions.
var validScoreOps = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true, "==": true,
}

// ScoreCondition compares a review's impact score against a threshold.
type ScoreCondition struct {
	Op    string `yaml:"op" json:"op"` // "<", "<=", ">", ">=", "=="
	Value int    `yaml:"value" json:"value"`
}

// Matches evaluates the comparison against the given score.
func (c ScoreCondition) Matches(score int) bool {
	switch c.Op {
	case "<":
		return score < c.Value
	case "<=":
		return score <= c.Value
	case ">":
		return score > c.Value
	case ">=":
		return score >= c.Value
	case "==":
		return score == c.Value
	}
	return false
}

// RuleConditions is the validated predicate of an approval rule. Absent
// fields are not evaluated; all present fields must hold for a match.
type RuleConditions struct {
	DocumentTypes   []string        `yaml:"document_types,omitempty" json:"document_types,omitempty"`
	ImpactScore     *ScoreCondition `yaml:"impact_score,omitempty" json:"impact_score,omitempty"`
	MinAIConfidence *int            `yaml:"min_ai_confidence,omitempty" json:"min_ai_confidence,omitempty"` // 0-100 percentage
}

// Validate checks that the conditions are well-formed. Validation happens
// at rule-creation time, never at match time.
func (c *RuleConditions) Validate() error {
	if len(c.DocumentTypes) == 0 && c.ImpactScore == nil && c.MinAIConfidence == nil {
		return ErrValidation("rule must have at least one condition")
	}
	if c.ImpactScore != nil {
		if !validScoreOps[c.ImpactScore.Op] {
			return ErrValidation("impact_score operator must be one of <, <=, >, >=, ==")
		}
		if c.ImpactScore.Value < MinScore || c.ImpactScore.Value > MaxScore {
			return ErrValidation("impact_score threshold must be between %d and %d", MinScore, MaxScore)
		}
	}
	if c.MinAIConfidence != nil && (*c.MinAIConfidence < 0 || *c.MinAIConfidence > 100) {
		return ErrValidation("min_ai_confidence must be a percentage between 0 and 100")
	}
	return nil
}

// ApprovalRule is an administrator-defined, priority-ordered predicate
// that can auto-approve a review without human action.
type ApprovalRule struct {
	ID            string
	Name          string
	Conditions    RuleConditions
	Action        string
	Priority      int // evaluation order, higher first
	Active        bool
	TimesApplied  int64
	LastAppliedAt *time.Time
	CreatedAt     time.Time
}

// CreateRuleRequest holds parameters for creating an approval rule.
type CreateRuleRequest struct {
	Name       string
	Conditions RuleConditions
	Action     string
	Priority   int
}

// Validate checks that the request is well-formed.
func (r *CreateRuleRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("rule name is required")
	}
	if r.Action == "" {
		r.Action = RuleActionAutoApprove
	}
	if r.Action != RuleActionAutoApprove {
		return ErrValidation("action must be %q", RuleActionAutoApprove)
	}
	return r.Conditions.Validate()
}
