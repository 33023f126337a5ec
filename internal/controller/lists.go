package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/activity"
	"taskflow/internal/models"
	"taskflow/internal/realtime"
	"taskflow/internal/service"
)

// UpdateList broadcasts the change but does not log activity.
func (h *Handler) UpdateList(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.UpdateListInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	list, err := h.svc.UpdateList(ctx, c.Param("listId"), uid, in)
	if err != nil {
		writeError(c, err, "Failed to update list")
		return
	}
	h.publish(ctx, list.BoardID, uid, realtime.ListUpdated{List: *list})
	c.JSON(http.StatusOK, list)
}

func (h *Handler) DeleteList(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	list, err := h.svc.DeleteList(ctx, c.Param("listId"), uid)
	if err != nil {
		writeError(c, err, "Failed to delete list")
		return
	}
	h.record(ctx, activity.Entry{
		BoardID: list.BoardID, UserID: uid,
		Action: models.ActionDeleted, Entity: models.EntityList, EntityID: list.ID,
		Metadata: activity.Titled(list.Title),
	})
	h.publish(ctx, list.BoardID, uid, realtime.ListDeleted{ListID: list.ID})
	success(c)
}
