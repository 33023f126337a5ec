package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/activity"
	"taskflow/internal/models"
	"taskflow/internal/realtime"
	"taskflow/internal/service"
)

func (h *Handler) GetTask(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	task, err := h.svc.GetTask(c.Request.Context(), c.Param("taskId"), uid)
	if err != nil {
		writeError(c, err, "Failed to fetch task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) CreateTask(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.CreateTaskInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	tc, err := h.svc.CreateTask(ctx, uid, in)
	if err != nil {
		writeError(c, err, "Failed to create task")
		return
	}
	h.record(ctx, activity.Entry{
		BoardID: tc.BoardID(), UserID: uid,
		Action: models.ActionCreated, Entity: models.EntityTask, EntityID: tc.Task.ID,
		Metadata: activity.TaskCreated(tc.Task.Title, tc.List.Title),
	})
	h.publish(ctx, tc.BoardID(), uid, realtime.TaskCreated{TaskWithRelations: *tc.Task})
	c.JSON(http.StatusCreated, tc.Task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.UpdateTaskInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	tc, err := h.svc.UpdateTask(ctx, c.Param("taskId"), uid, in)
	if err != nil {
		writeError(c, err, "Failed to update task")
		return
	}
	h.record(ctx, activity.Entry{
		BoardID: tc.BoardID(), UserID: uid,
		Action: models.ActionUpdated, Entity: models.EntityTask, EntityID: tc.Task.ID,
		Metadata: activity.Changed(tc.Task.Title, tc.Changes),
	})
	h.publish(ctx, tc.BoardID(), uid, realtime.TaskUpdated{TaskWithRelations: *tc.Task})
	c.JSON(http.StatusOK, tc.Task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tc, err := h.svc.DeleteTask(ctx, c.Param("taskId"), uid)
	if err != nil {
		writeError(c, err, "Failed to delete task")
		return
	}
	h.record(ctx, activity.Entry{
		BoardID: tc.BoardID(), UserID: uid,
		Action: models.ActionDeleted, Entity: models.EntityTask, EntityID: tc.Task.ID,
		Metadata: activity.Titled(tc.Task.Title),
	})
	h.publish(ctx, tc.BoardID(), uid, realtime.TaskDeleted{TaskID: tc.Task.ID, ListID: tc.List.ID})
	success(c)
}

// MoveTask logs and broadcasts only when the task actually moved.
func (h *Handler) MoveTask(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.MoveTaskInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	mv, err := h.svc.MoveTask(ctx, c.Param("taskId"), uid, in)
	if err != nil {
		writeError(c, err, "Failed to move task")
		return
	}
	if !mv.NoOp {
		boardID := mv.ToList.BoardID
		h.record(ctx, activity.Entry{
			BoardID: boardID, UserID: uid,
			Action: models.ActionMoved, Entity: models.EntityTask, EntityID: mv.Task.ID,
			Metadata: mv.MoveMetadata(),
		})
		h.publish(ctx, boardID, uid, realtime.TaskMoved{
			Task:       *mv.Hydrated,
			FromListID: mv.FromList.ID,
			ToListID:   mv.ToList.ID,
			Position:   mv.ToPosition,
		})
	}
	c.JSON(http.StatusOK, mv.Hydrated)
}

func (h *Handler) AssignUser(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.AssignInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	tc, err := h.svc.AssignUser(ctx, c.Param("taskId"), uid, in)
	if err != nil {
		writeError(c, err, "Failed to assign user")
		return
	}
	h.publish(ctx, tc.BoardID(), uid, realtime.TaskUpdated{TaskWithRelations: *tc.Task})
	c.JSON(http.StatusOK, tc.Task)
}

func (h *Handler) UnassignUser(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	in := service.AssignInput{UserID: c.Query("userId")}
	if !bind(c, &in) {
		return
	}
	if _, err := h.svc.UnassignUser(c.Request.Context(), c.Param("taskId"), uid, in); err != nil {
		writeError(c, err, "Failed to unassign user")
		return
	}
	success(c)
}

func (h *Handler) AttachLabel(c *gin.Context) {
	h.changeLabel(c, h.svc.AttachLabel, "Failed to attach label")
}

func (h *Handler) DetachLabel(c *gin.Context) {
	h.changeLabel(c, h.svc.DetachLabel, "Failed to detach label")
}

type labelOp func(ctx context.Context, taskID, userID string, in service.LabelRefInput) (*service.TaskChange, error)

func (h *Handler) changeLabel(c *gin.Context, op labelOp, fallback string) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	in := service.LabelRefInput{LabelID: c.Query("labelId")}
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	tc, err := op(ctx, c.Param("taskId"), uid, in)
	if err != nil {
		writeError(c, err, fallback)
		return
	}
	h.publish(ctx, tc.BoardID(), uid, realtime.TaskUpdated{TaskWithRelations: *tc.Task})
	c.JSON(http.StatusOK, tc.Task)
}
