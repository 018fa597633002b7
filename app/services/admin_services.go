package services

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
	"github.com/shashiranjanraj/meetup/pkg/logger"
)

const (
	msgRoleMissing     = "Role does not exist"
	msgUserMissing     = "User does not exist"
	msgRoleAssigned    = "User has already been assigned provided role."
	msgRoleNotAssigned = "User with provided role does not exist"
)

// AdminService manages role memberships. Callers are gated on the admin
// role before reaching it.
type AdminService struct {
	store repositories.Store
	users *UserCache
}

func NewAdminService(store repositories.Store, users *UserCache) *AdminService {
	return &AdminService{store: store, users: users}
}

func (s *AdminService) checkTarget(ctx context.Context, userID, role string) error {
	if !models.ValidRole(role) {
		return apperr.NotFoundMsg(msgRoleMissing)
	}
	if _, err := s.store.Users().FindByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFoundMsg(msgUserMissing)
		}
		return internal("admin: find user", err)
	}
	return nil
}

func (s *AdminService) AddRole(ctx context.Context, userID, role string) error {
	if err := s.checkTarget(ctx, userID, role); err != nil {
		return err
	}
	if err := s.store.Users().AddRole(ctx, userID, role); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return apperr.Conflict(msgRoleAssigned)
		}
		return internal("admin: add role", err)
	}
	s.users.Forget(ctx, userID)
	logger.WithCtx(ctx).Info("role assigned", "target", userID, "role", role)
	return nil
}

func (s *AdminService) RemoveRole(ctx context.Context, userID, role string) error {
	if err := s.checkTarget(ctx, userID, role); err != nil {
		return err
	}
	if err := s.store.Users().RemoveRole(ctx, userID, role); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.Validation(msgRoleNotAssigned)
		}
		return internal("admin: remove role", err)
	}
	s.users.Forget(ctx, userID)
	logger.WithCtx(ctx).Info("role removed", "target", userID, "role", role)
	return nil
}
