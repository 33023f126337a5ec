package service

import (
	"context"
	"errors"
	"strings"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/validation"
)

func (s *Service) ListMembers(ctx context.Context, boardID, userID string) ([]models.MemberWithUser, error) {
	if _, err := s.Authorize(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, boardID)
}

// MemberChange is a membership that was added or removed.
type MemberChange struct {
	Member models.MemberWithUser
	Email  string
}

// AddMember invites an existing user, found by email, to the board. Unknown
// addresses are rejected; accounts are never created here.
func (s *Service) AddMember(ctx context.Context, boardID, userID string, in AddMemberInput) (*MemberChange, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	board, err := s.Authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleMember
	}
	email := strings.TrimSpace(in.Email)
	invitee, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("User not found. They must sign up first.")
		}
		return nil, err
	}
	if invitee.ID == board.OwnerID {
		return nil, apperr.Conflict("User is already a member of this board")
	}
	member := &models.BoardMember{BoardID: board.ID, UserID: invitee.ID, Role: role, JoinedAt: s.now()}
	if err := s.store.AddMember(ctx, member); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("User is already a member of this board")
		}
		return nil, err
	}
	s.invalidate(ctx, board.ID)
	return &MemberChange{
		Member: models.MemberWithUser{BoardMember: *member, User: invitee.Summary()},
		Email:  email,
	}, nil
}

// RemoveMember deletes targetID's membership. Only the board owner or the
// member themself may do so, and the owner's own membership is permanent.
func (s *Service) RemoveMember(ctx context.Context, boardID, userID string, in RemoveMemberInput) (*models.BoardMember, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	board, err := s.Authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	if userID != board.OwnerID && userID != in.UserID {
		return nil, apperr.PermissionDenied("Permission denied")
	}
	if in.UserID == board.OwnerID {
		return nil, apperr.PermissionDenied("The board owner cannot be removed")
	}
	member, err := s.store.GetMember(ctx, board.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveMember(ctx, board.ID, in.UserID); err != nil {
		return nil, err
	}
	s.invalidate(ctx, board.ID)
	return member, nil
}
