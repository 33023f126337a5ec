package service

import (
	"context"
	"strings"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/ordering"
	"taskflow/internal/repository"
	"taskflow/internal/validation"
)

// CreateBoard creates a board owned by ownerID together with its owner
// membership, in one transaction.
func (s *Service) CreateBoard(ctx context.Context, ownerID string, in CreateBoardInput) (*models.Board, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	now := s.now()
	board := &models.Board{
		ID:          newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := tx.CreateBoard(ctx, board); err != nil {
			return err
		}
		return tx.AddMember(ctx, &models.BoardMember{
			BoardID:  board.ID,
			UserID:   ownerID,
			Role:     models.RoleOwner,
			JoinedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// ListBoards returns the boards userID owns or belongs to, newest first.
func (s *Service) ListBoards(ctx context.Context, userID string) ([]models.Board, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	return s.store.ListBoardsForUser(ctx, userID)
}

// GetBoard returns the full board graph.
func (s *Service) GetBoard(ctx context.Context, boardID, userID string) (*models.BoardWithDetails, error) {
	board, err := s.Authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	return s.cache.Load(ctx, board.ID, func(ctx context.Context) (*models.BoardWithDetails, error) {
		return s.loadDetails(ctx, board)
	})
}

func (s *Service) loadDetails(ctx context.Context, board *models.Board) (*models.BoardWithDetails, error) {
	lists, err := s.store.ListLists(ctx, board.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasksByBoard(ctx, board.ID)
	if err != nil {
		return nil, err
	}
	hydrated, err := s.hydrate(ctx, tasks)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, board.ID)
	if err != nil {
		return nil, err
	}

	byList := make(map[string][]models.TaskWithRelations, len(lists))
	for _, t := range hydrated {
		byList[t.ListID] = append(byList[t.ListID], t)
	}
	ordering.SortLists(lists)
	details := &models.BoardWithDetails{
		Board:   *board,
		Lists:   make([]models.ListWithTasks, 0, len(lists)),
		Members: members,
	}
	for _, l := range lists {
		tasks := nonNil(byList[l.ID])
		ordering.SortTasks(tasks)
		details.Lists = append(details.Lists, models.ListWithTasks{List: l, Tasks: tasks})
	}

	owner, err := s.store.GetUser(ctx, board.OwnerID)
	switch {
	case err == nil:
		details.Owner = owner
	case !isNotFound(err):
		return nil, err
	}
	return details, nil
}

// BoardUpdate is an updated board and the fields that changed.
type BoardUpdate struct {
	Board   *models.Board
	Changes map[string]any
}

// UpdateBoard applies in to the board. Any member may update.
func (s *Service) UpdateBoard(ctx context.Context, boardID, userID string, in UpdateBoardInput) (*BoardUpdate, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	board, err := s.Authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title is required")
		}
		board.Title = title
		changes["title"] = title
	}
	if in.Description != nil {
		board.Description = in.Description
		changes["description"] = *in.Description
	}
	board.UpdatedAt = s.now()
	if err := s.store.UpdateBoard(ctx, board); err != nil {
		return nil, err
	}
	s.invalidate(ctx, board.ID)
	return &BoardUpdate{Board: board, Changes: changes}, nil
}

// DeleteBoard removes the board and everything under it. Owner only.
func (s *Service) DeleteBoard(ctx context.Context, boardID, userID string) (*models.Board, error) {
	board, err := s.Authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	if board.OwnerID != userID {
		return nil, apperr.PermissionDenied("Only the board owner can delete the board")
	}
	if err := s.store.DeleteBoard(ctx, board.ID); err != nil {
		return nil, err
	}
	s.invalidate(ctx, board.ID)
	return board, nil
}
