package service

import (
	"context"
	"strings"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/validation"
)

func (s *Service) ListLabels(ctx context.Context, boardID, userID string) ([]models.Label, error) {
	if _, err := s.Authorize(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.store.ListLabels(ctx, boardID)
}

func (s *Service) CreateLabel(ctx context.Context, boardID, userID string, in CreateLabelInput) (*models.Label, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	board, err := s.Authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	label := &models.Label{
		ID:        newID(),
		BoardID:   board.ID,
		Name:      strings.TrimSpace(in.Name),
		Color:     in.Color,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateLabel(ctx, label); err != nil {
		return nil, err
	}
	s.invalidate(ctx, board.ID)
	return label, nil
}

// labelForTask resolves a label and checks it belongs to the task's board.
func (s *Service) labelForTask(ctx context.Context, taskID, userID, labelID string) (*models.Task, *models.List, error) {
	task, list, err := s.authorizeTask(ctx, taskID, userID)
	if err != nil {
		return nil, nil, err
	}
	label, err := s.store.GetLabel(ctx, labelID)
	if err != nil {
		return nil, nil, err
	}
	if label.BoardID != list.BoardID {
		return nil, nil, apperr.NotFound("Label not found")
	}
	return task, list, nil
}

// AttachLabel links a board label to a task. Attaching twice is not an error.
func (s *Service) AttachLabel(ctx context.Context, taskID, userID string, in LabelRefInput) (*TaskChange, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	task, list, err := s.labelForTask(ctx, taskID, userID, in.LabelID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.AttachLabel(ctx, task.ID, in.LabelID); err != nil {
		return nil, err
	}
	return s.labelChange(ctx, task, list)
}

// DetachLabel unlinks a label; detaching an absent label is not an error.
func (s *Service) DetachLabel(ctx context.Context, taskID, userID string, in LabelRefInput) (*TaskChange, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	task, list, err := s.labelForTask(ctx, taskID, userID, in.LabelID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DetachLabel(ctx, task.ID, in.LabelID); err != nil {
		return nil, err
	}
	return s.labelChange(ctx, task, list)
}

func (s *Service) labelChange(ctx context.Context, task *models.Task, list *models.List) (*TaskChange, error) {
	s.invalidate(ctx, list.BoardID)
	hydrated, err := s.hydrateOne(ctx, task)
	if err != nil {
		return nil, err
	}
	return &TaskChange{Task: hydrated, List: list}, nil
}
