package service

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"docflow/internal/domain"
)

// RuleService provides approval-rule administration. Conditions are
// validated at creation time, never at match time.
type RuleService struct {
	repo  domain.RuleRepository
	audit domain.AuditRepository
}

// NewRuleService creates a new RuleService.
func NewRuleService(repo domain.RuleRepository, audit domain.AuditRepository) *RuleService {
	return &RuleService{repo: repo, audit: audit}
}

// Create validates and persists a new approval rule. Requires admin
// privileges.
func (s *RuleService) Create(ctx context.Context, req domain.CreateRuleRequest) (*domain.ApprovalRule, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rule, err := s.repo.Create(ctx, &domain.ApprovalRule{
		Name:       req.Name,
		Conditions: req.Conditions,
		Action:     req.Action,
		Priority:   req.Priority,
		Active:     true,
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "rule_created", rule.ID, map[string]interface{}{
		"name":     rule.Name,
		"priority": rule.Priority,
	})
	return rule, nil
}

// GetByID returns a rule by ID.
func (s *RuleService) GetByID(ctx context.Context, id string) (*domain.ApprovalRule, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a paginated list of rules in evaluation order.
func (s *RuleService) List(ctx context.Context, page domain.PageRequest) ([]domain.ApprovalRule, int64, error) {
	return s.repo.List(ctx, page)
}

// SetActive enables or disables a rule. Requires admin privileges.
func (s *RuleService) SetActive(ctx context.Context, id string, active bool) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	action := "rule_deactivated"
	if active {
		action = "rule_activated"
	}
	s.logAudit(ctx, action, id, nil)
	return nil
}

// seedRule is the YAML shape of one rule in a seed file.
type seedRule struct {
	Name       string                `yaml:"name"`
	Priority   int                   `yaml:"priority"`
	Action     string                `yaml:"action"`
	Conditions domain.RuleConditions `yaml:"conditions"`
}

type seedFile struct {
	Rules []seedRule `yaml:"rules"`
}

// SeedFromFile loads approval rules from a YAML file, creating any rule
// whose name does not exist yet. Existing rules are left untouched, so the
// seed file can be applied on every startup.
func (s *RuleService) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rules file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse rules file: %w", err)
	}

	created := 0
	for _, sr := range file.Rules {
		if _, err := s.repo.GetByName(ctx, sr.Name); err == nil {
			continue
		} else if !isNotFound(err) {
			return created, err
		}

		req := domain.CreateRuleRequest{
			Name:       sr.Name,
			Conditions: sr.Conditions,
			Action:     sr.Action,
			Priority:   sr.Priority,
		}
		if err := req.Validate(); err != nil {
			return created, fmt.Errorf("rule %q: %w", sr.Name, err)
		}
		if _, err := s.repo.Create(ctx, &domain.ApprovalRule{
			Name:       req.Name,
			Conditions: req.Conditions,
			Action:     req.Action,
			Priority:   req.Priority,
			Active:     true,
		}); err != nil {
			return created, fmt.Errorf("rule %q: %w", sr.Name, err)
		}
		created++
	}
	return created, nil
}

func (s *RuleService) logAudit(ctx context.Context, action, ruleID string, newValues map[string]interface{}) {
	entry := &domain.AuditEntry{
		Action:       action,
		ResourceType: "approval_rule",
		ResourceID:   ruleID,
		NewValues:    newValues,
	}
	if actor, ok := domain.ActorFromContext(ctx); ok {
		entry.ActorID = &actor.UserID
	}
	_ = s.audit.Insert(ctx, entry)
}
