package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"littlelemon/internal/apperr"
	"littlelemon/internal/logger"
	"littlelemon/internal/models"
	"littlelemon/internal/repositories"

	"go.uber.org/zap"
)

// GroupService manages membership of the staff groups.
type GroupService struct {
	users repositories.UserRepository
}

func NewGroupService(users repositories.UserRepository) *GroupService {
	return &GroupService{users: users}
}

func (s *GroupService) ListMembers(ctx context.Context, ident models.Identity, group string) ([]models.User, error) {
	if err := checkGroupAccess(ident, group); err != nil {
		return nil, err
	}
	users, err := s.users.ListByGroup(ctx, group)
	if err != nil {
		return nil, apperr.Internal("failed to list group members", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// AddMember puts the user named username into group. A user holds at most
// one staff group.
func (s *GroupService) AddMember(ctx context.Context, ident models.Identity, group, username string) (*models.User, error) {
	if err := checkGroupAccess(ident, group); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.FieldError("username", "username is required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, lookupError(err, "Invalid username")
	}
	groups := user.GroupNames()
	if slices.Contains(groups, group) {
		return user, nil
	}
	for _, other := range models.StaffGroups {
		if other != group && slices.Contains(groups, other) {
			return nil, apperr.Conflict(fmt.Sprintf("user '%s' already belongs to %s", username, other))
		}
	}

	if err := s.users.AddToGroup(ctx, user.ID, group); err != nil {
		return nil, lookupError(err, "Invalid username")
	}
	logger.L().Info("user added to group",
		zap.String("user_id", user.ID), zap.String("group", group), zap.String("by", ident.UserID))
	return user, nil
}

func (s *GroupService) RemoveMember(ctx context.Context, ident models.Identity, group, userID string) error {
	if err := checkGroupAccess(ident, group); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return lookupError(err, "user not found")
	}
	if err := s.users.RemoveFromGroup(ctx, userID, group); err != nil {
		return lookupError(err, "user not found")
	}
	logger.L().Info("user removed from group",
		zap.String("user_id", userID), zap.String("group", group), zap.String("by", ident.UserID))
	return nil
}

func checkGroupAccess(ident models.Identity, group string) error {
	if !ident.IsManager() {
		return apperr.Forbidden(managerOnly)
	}
	if !slices.Contains(models.StaffGroups, group) {
		return apperr.NotFound(fmt.Sprintf("group '%s' not found", group))
	}
	return nil
}
