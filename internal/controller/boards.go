package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/activity"
	"taskflow/internal/models"
	"taskflow/internal/realtime"
	"taskflow/internal/service"
)

func (h *Handler) ListBoards(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	boards, err := h.svc.ListBoards(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err, "Failed to fetch boards")
		return
	}
	c.JSON(http.StatusOK, boards)
}

func (h *Handler) CreateBoard(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.CreateBoardInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	board, err := h.svc.CreateBoard(ctx, uid, in)
	if err != nil {
		writeError(c, err, "Failed to create board")
		return
	}
	h.record(ctx, activity.Entry{
		BoardID: board.ID, UserID: uid,
		Action: models.ActionCreated, Entity: models.EntityBoard, EntityID: board.ID,
		Metadata: activity.Titled(board.Title),
	})
	c.JSON(http.StatusCreated, board)
}

func (h *Handler) GetBoard(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	board, err := h.svc.GetBoard(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		writeError(c, err, "Failed to fetch board")
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *Handler) UpdateBoard(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.UpdateBoardInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	up, err := h.svc.UpdateBoard(ctx, c.Param("id"), uid, in)
	if err != nil {
		writeError(c, err, "Failed to update board")
		return
	}
	h.record(ctx, activity.Entry{
		BoardID: up.Board.ID, UserID: uid,
		Action: models.ActionUpdated, Entity: models.EntityBoard, EntityID: up.Board.ID,
		Metadata: activity.Changed(up.Board.Title, up.Changes),
	})
	h.publish(ctx, up.Board.ID, uid, realtime.BoardUpdated{Board: *up.Board})
	c.JSON(http.StatusOK, up.Board)
}

func (h *Handler) DeleteBoard(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	if _, err := h.svc.DeleteBoard(c.Request.Context(), c.Param("id"), uid); err != nil {
		writeError(c, err, "Failed to delete board")
		return
	}
	success(c)
}

func (h *Handler) GetLists(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	lists, err := h.svc.GetLists(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		writeError(c, err, "Failed to fetch lists")
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (h *Handler) CreateList(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.CreateListInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	list, err := h.svc.CreateList(ctx, c.Param("id"), uid, in)
	if err != nil {
		writeError(c, err, "Failed to create list")
		return
	}
	h.record(ctx, activity.Entry{
		BoardID: list.BoardID, UserID: uid,
		Action: models.ActionCreated, Entity: models.EntityList, EntityID: list.ID,
		Metadata: activity.Titled(list.Title),
	})
	h.publish(ctx, list.BoardID, uid, realtime.ListCreated{List: *list})
	c.JSON(http.StatusCreated, list)
}

// ReorderLists broadcasts one list_updated per repositioned list.
func (h *Handler) ReorderLists(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.ReorderListsInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	lists, err := h.svc.ReorderLists(ctx, c.Param("id"), uid, in)
	if err != nil {
		writeError(c, err, "Failed to reorder lists")
		return
	}
	for _, l := range lists {
		h.publish(ctx, l.BoardID, uid, realtime.ListUpdated{List: l})
	}
	c.JSON(http.StatusOK, lists)
}

func (h *Handler) ListMembers(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	members, err := h.svc.ListMembers(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		writeError(c, err, "Failed to fetch members")
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *Handler) AddMember(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.AddMemberInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	boardID := c.Param("id")
	mc, err := h.svc.AddMember(ctx, boardID, uid, in)
	if err != nil {
		writeError(c, err, "Failed to add member")
		return
	}
	h.record(ctx, activity.Entry{
		BoardID: boardID, UserID: uid,
		Action: models.ActionAdded, Entity: models.EntityMember, EntityID: mc.Member.UserID,
		Metadata: activity.MemberAdded(mc.Email, mc.Member.Role),
	})
	h.publish(ctx, boardID, uid, realtime.MemberAdded{UserID: mc.Member.UserID, Role: mc.Member.Role})
	c.JSON(http.StatusCreated, mc.Member)
}

// RemoveMember takes the target from the JSON body, or from ?userId= for
// clients that cannot send a DELETE body.
func (h *Handler) RemoveMember(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	in := service.RemoveMemberInput{UserID: c.Query("userId")}
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	boardID := c.Param("id")
	member, err := h.svc.RemoveMember(ctx, boardID, uid, in)
	if err != nil {
		writeError(c, err, "Failed to remove member")
		return
	}
	h.record(ctx, activity.Entry{
		BoardID: boardID, UserID: uid,
		Action: models.ActionDeleted, Entity: models.EntityMember, EntityID: member.UserID,
		Metadata: models.Metadata{"userId": member.UserID, "role": string(member.Role)},
	})
	h.publish(ctx, boardID, uid, realtime.MemberRemoved{UserID: member.UserID})
	success(c)
}

// GetActivity serves ?page= (1-based) and ?limit= of the board's activity.
func (h *Handler) GetActivity(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	board, err := h.svc.Authorize(ctx, c.Param("id"), uid)
	if err != nil {
		writeError(c, err, "Failed to fetch activity")
		return
	}
	page, err := h.activity.List(ctx, board.ID, queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		writeError(c, err, "Failed to fetch activity")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) SearchTasks(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	res, err := h.svc.SearchTasks(c.Request.Context(), c.Param("id"), uid, service.SearchInput{
		Query:      c.Query("query"),
		Priority:   c.Query("priority"),
		AssigneeID: c.Query("assignee"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 20),
	})
	if err != nil {
		writeError(c, err, "Failed to search tasks")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListLabels(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	labels, err := h.svc.ListLabels(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		writeError(c, err, "Failed to fetch labels")
		return
	}
	c.JSON(http.StatusOK, labels)
}

// CreateLabel announces the new label as a board_updated event.
func (h *Handler) CreateLabel(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var in service.CreateLabelInput
	if !bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	label, err := h.svc.CreateLabel(ctx, c.Param("id"), uid, in)
	if err != nil {
		writeError(c, err, "Failed to create label")
		return
	}
	if board, err := h.svc.Authorize(ctx, label.BoardID, uid); err == nil {
		h.publish(ctx, board.ID, uid, realtime.BoardUpdated{Board: *board})
	}
	c.JSON(http.StatusCreated, label)
}
