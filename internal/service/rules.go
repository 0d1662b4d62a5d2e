package service

import "docflow/internal/domain"

// ReviewCandidate is the slice of review state the rule matcher evaluates.
type ReviewCandidate struct {
	DocType      string
	ImpactScore  int
	AIConfidence *int // 0-100 percentage, nil when the change detector supplied none
}

// MatchRule returns the first rule that authorizes automatic approval of
// the candidate, or nil when no rule matches. Rules must be supplied in
// evaluation order (priority descending, rule ID tiebreak); matching is a
// pure function and mutates nothing; usage counters are the engine's job.
func MatchRule(rules []domain.ApprovalRule, c ReviewCandidate) *domain.ApprovalRule {
	for i := range rules {
		rule := &rules[i]
		if !rule.Active || rule.Action != domain.RuleActionAutoApprove {
			continue
		}
		if ruleMatches(&rule.Conditions, c) {
			return rule
		}
	}
	return nil
}

// ruleMatches evaluates all present conditions; every one must hold.
func ruleMatches(cond *domain.RuleConditions, c ReviewCandidate) bool {
	if len(cond.DocumentTypes) > 0 && !containsString(cond.DocumentTypes, c.DocType) {
		return false
	}
	if cond.ImpactScore != nil && !cond.ImpactScore.Matches(c.ImpactScore) {
		return false
	}
	if cond.MinAIConfidence != nil {
		if c.AIConfidence == nil || *c.AIConfidence < *cond.MinAIConfidence {
			return false
		}
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
