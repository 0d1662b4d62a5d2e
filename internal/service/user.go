package service

import (
	"context"

	"docflow/internal/domain"
)

// UserService provides user administration operations.
type UserService struct {
	repo  domain.UserRepository
	audit domain.AuditRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo domain.UserRepository, audit domain.AuditRepository) *UserService {
	return &UserService{repo: repo, audit: audit}
}

// Create validates and persists a new user. Requires admin privileges.
func (s *UserService) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	user, err := s.repo.Create(ctx, &domain.User{
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Active: true,
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "user_created", user.ID, map[string]interface{}{
		"name": user.Name,
		"role": string(user.Role),
	})
	return user, nil
}

// GetByID returns a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a paginated list of users.
func (s *UserService) List(ctx context.Context, page domain.PageRequest) ([]domain.User, int64, error) {
	return s.repo.List(ctx, page)
}

// SetActive enables or disables a user. Requires admin privileges.
// Deactivated users keep their review history but leave the assignment pool.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	action := "user_deactivated"
	if active {
		action = "user_activated"
	}
	s.logAudit(ctx, action, id, nil)
	return nil
}

func (s *UserService) logAudit(ctx context.Context, action, userID string, newValues map[string]interface{}) {
	entry := &domain.AuditEntry{
		Action:       action,
		ResourceType: "user",
		ResourceID:   userID,
		NewValues:    newValues,
	}
	if actor, ok := domain.ActorFromContext(ctx); ok {
		entry.ActorID = &actor.UserID
	}
	_ = s.audit.Insert(ctx, entry)
}
