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

func (s *Service) GetLists(ctx context.Context, boardID, userID string) ([]models.List, error) {
	if _, err := s.Authorize(ctx, boardID, userID); err != nil {
		return nil, err
	}
	lists, err := s.store.ListLists(ctx, boardID)
	if err != nil {
		return nil, err
	}
	ordering.SortLists(lists)
	return lists, nil
}

// CreateList appends a list to the board unless a position is given.
func (s *Service) CreateList(ctx context.Context, boardID, userID string, in CreateListInput) (*models.List, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	board, err := s.Authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	var pos int
	if in.Position != nil {
		pos = *in.Position
	} else if pos, err = s.ordering.NextListPosition(ctx, board.ID); err != nil {
		return nil, err
	}
	now := s.now()
	list := &models.List{
		ID:        newID(),
		BoardID:   board.ID,
		Title:     strings.TrimSpace(in.Title),
		Position:  pos,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateList(ctx, list); err != nil {
		return nil, err
	}
	s.invalidate(ctx, board.ID)
	return list, nil
}

func (s *Service) UpdateList(ctx context.Context, listID, userID string, in UpdateListInput) (*models.List, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	list, _, err := s.authorizeList(ctx, listID, userID)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title is required")
		}
		list.Title = title
	}
	if in.Position != nil {
		list.Position = *in.Position
	}
	list.UpdatedAt = s.now()
	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, err
	}
	s.invalidate(ctx, list.BoardID)
	return list, nil
}

// DeleteList removes the list and its tasks and returns the deleted list.
func (s *Service) DeleteList(ctx context.Context, listID, userID string) (*models.List, error) {
	list, _, err := s.authorizeList(ctx, listID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteList(ctx, list.ID); err != nil {
		return nil, err
	}
	s.invalidate(ctx, list.BoardID)
	return list, nil
}

// ReorderLists sets each listed list's position to its index, atomically.
// Every ID must name a list on the board. Lists not named keep their position.
func (s *Service) ReorderLists(ctx context.Context, boardID, userID string, in ReorderListsInput) ([]models.List, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	board, err := s.Authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(in.ListIDs))
	for _, id := range in.ListIDs {
		if _, dup := seen[id]; dup {
			return nil, apperr.Validation("listIds must not repeat")
		}
		seen[id] = struct{}{}
	}

	now := s.now()
	var updated []models.List
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		current, err := tx.ListLists(ctx, board.ID)
		if err != nil {
			return err
		}
		byID := make(map[string]models.List, len(current))
		for _, l := range current {
			byID[l.ID] = l
		}
		updated = make([]models.List, 0, len(in.ListIDs))
		for i, id := range in.ListIDs {
			l, ok := byID[id]
			if !ok {
				return apperr.NotFound("List not found")
			}
			if err := tx.SetListPosition(ctx, board.ID, id, i, now); err != nil {
				return err
			}
			l.Position, l.UpdatedAt = i, now
			updated = append(updated, l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, board.ID)
	return updated, nil
}
