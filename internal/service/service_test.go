package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/repository"
	"taskflow/internal/testinfra"
)

func newTestService(t *testing.T) (*Service, *sqlx.DB) {
	t.Helper()
	db := testinfra.OpenSQLite(t)
	testinfra.InsertUser(t, db, "u1", "u1@example.com", "Owner")
	testinfra.InsertUser(t, db, "u2", "u2@example.com", "Member")
	testinfra.InsertUser(t, db, "u3", "u3@example.com", "Other")
	testinfra.InsertUser(t, db, "u4", "u4@example.com", "Stranger")
	return New(repository.New(db), nil, 100), db
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func mustBoard(t *testing.T, s *Service, owner string) *models.Board {
	t.Helper()
	b, err := s.CreateBoard(context.Background(), owner, CreateBoardInput{Title: "Sprint"})
	require.NoError(t, err)
	return b
}

func addMember(t *testing.T, s *Service, boardID, email string) {
	t.Helper()
	_, err := s.AddMember(context.Background(), boardID, "u1", AddMemberInput{Email: email})
	require.NoError(t, err)
}

func TestCreateBoardAddsExactlyOneOwner(t *testing.T) {
	s, db := newTestService(t)
	b := mustBoard(t, s, "u1")

	assert.Equal(t, "u1", b.OwnerID)
	assert.Equal(t, 1, testinfra.CountRows(t, db, "board_members", "board_id = $1", b.ID))
	assert.Equal(t, 1, testinfra.CountRows(t, db, "board_members", "board_id = $1 AND user_id = $2 AND role = 'owner'", b.ID, "u1"))

	_, err := s.CreateBoard(context.Background(), "u1", CreateBoardInput{Title: "  "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.CreateBoard(context.Background(), "", CreateBoardInput{Title: "x"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestAccessRequiresOwnershipOrMembership(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")
	addMember(t, s, b.ID, "u2@example.com")
	_, err := s.AddMember(ctx, b.ID, "u1", AddMemberInput{Email: "u3@example.com", Role: models.RoleViewer})
	require.NoError(t, err)

	for user, want := range map[string]bool{"u1": true, "u2": true, "u3": true, "u4": false} {
		_, err := s.GetBoard(ctx, b.ID, user)
		if want {
			assert.NoError(t, err, user)
		} else {
			assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err), user)
		}
	}

	_, err = s.GetBoard(ctx, "missing", "u1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = s.CreateList(ctx, b.ID, "u4", CreateListInput{Title: "Nope"})
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
}

func TestPositionsIncreaseWithoutExplicitPosition(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")

	var listPositions []int
	var first *models.List
	for _, title := range []string{"Todo", "Doing", "Done"} {
		l, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: title})
		require.NoError(t, err)
		if first == nil {
			first = l
		}
		listPositions = append(listPositions, l.Position)
	}
	assert.Equal(t, []int{0, 1, 2}, listPositions)

	var taskPositions []int
	for _, title := range []string{"a", "b", "c"} {
		tc, err := s.CreateTask(ctx, "u1", CreateTaskInput{ListID: first.ID, Title: title})
		require.NoError(t, err)
		assert.Equal(t, models.PriorityNone, tc.Task.Priority)
		taskPositions = append(taskPositions, tc.Task.Position)
	}
	assert.Equal(t, []int{0, 1, 2}, taskPositions)

	l, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: "Pinned", Position: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, l.Position)
	l, err = s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: "After"})
	require.NoError(t, err)
	assert.Equal(t, 11, l.Position)
}

func TestGetBoardReturnsOrderedGraph(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")
	addMember(t, s, b.ID, "u2@example.com")

	doing, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: "Doing", Position: intPtr(1)})
	require.NoError(t, err)
	todo, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: "Todo", Position: intPtr(0)})
	require.NoError(t, err)
	second, err := s.CreateTask(ctx, "u1", CreateTaskInput{ListID: todo.ID, Title: "second", Position: intPtr(5)})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, "u1", CreateTaskInput{ListID: todo.ID, Title: "first", Position: intPtr(1)})
	require.NoError(t, err)
	_, err = s.AssignUser(ctx, second.Task.ID, "u1", AssignInput{UserID: "u2"})
	require.NoError(t, err)

	details, err := s.GetBoard(ctx, b.ID, "u2")
	require.NoError(t, err)
	require.Len(t, details.Lists, 2)
	assert.Equal(t, todo.ID, details.Lists[0].ID)
	assert.Equal(t, doing.ID, details.Lists[1].ID)
	assert.Empty(t, details.Lists[1].Tasks)
	assert.NotNil(t, details.Lists[1].Tasks)
	require.Len(t, details.Lists[0].Tasks, 2)
	assert.Equal(t, "first", details.Lists[0].Tasks[0].Title)
	require.Len(t, details.Lists[0].Tasks[1].Assignees, 1)
	assert.Equal(t, "Member", *details.Lists[0].Tasks[1].Assignees[0].Name)
	assert.Len(t, details.Members, 2)
	require.NotNil(t, details.Owner)
	assert.Equal(t, "u1", details.Owner.ID)
}

func TestAssignIsIdempotentAndRequiresAccess(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")
	addMember(t, s, b.ID, "u2@example.com")
	l, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: "Todo"})
	require.NoError(t, err)
	tc, err := s.CreateTask(ctx, "u1", CreateTaskInput{ListID: l.ID, Title: "Write docs"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := s.AssignUser(ctx, tc.Task.ID, "u1", AssignInput{UserID: "u2"})
		require.NoError(t, err)
		assert.Len(t, got.Task.Assignees, 1)
	}
	assert.Equal(t, 1, testinfra.CountRows(t, db, "task_assignees", "task_id = $1", tc.Task.ID))

	_, err = s.UnassignUser(ctx, tc.Task.ID, "u1", AssignInput{UserID: "u3"})
	assert.NoError(t, err)

	_, err = s.AssignUser(ctx, tc.Task.ID, "u1", AssignInput{UserID: "u4"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMoveTaskRecordsPriorList(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")
	todo, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: "Todo"})
	require.NoError(t, err)
	doing, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: "Doing"})
	require.NoError(t, err)
	tc, err := s.CreateTask(ctx, "u1", CreateTaskInput{ListID: todo.ID, Title: "Write spec"})
	require.NoError(t, err)

	mv, err := s.MoveTask(ctx, tc.Task.ID, "u1", MoveTaskInput{ListID: doing.ID, Position: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, doing.ID, mv.Hydrated.ListID)
	meta := mv.MoveMetadata()
	assert.Equal(t, "Todo", meta["fromList"])
	assert.Equal(t, "Doing", meta["toList"])

	got, err := s.GetTask(ctx, tc.Task.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, doing.ID, got.ListID)

	_, err = s.MoveTask(ctx, tc.Task.ID, "u1", MoveTaskInput{ListID: "missing"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	other := mustBoard(t, s, "u1")
	foreign, err := s.CreateList(ctx, other.ID, "u1", CreateListInput{Title: "Elsewhere"})
	require.NoError(t, err)
	_, err = s.MoveTask(ctx, tc.Task.ID, "u1", MoveTaskInput{ListID: foreign.ID})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRemoveMemberPermissions(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")
	addMember(t, s, b.ID, "u2@example.com")
	addMember(t, s, b.ID, "u3@example.com")

	_, err := s.RemoveMember(ctx, b.ID, "u2", RemoveMemberInput{UserID: "u3"})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	_, err = s.RemoveMember(ctx, b.ID, "u2", RemoveMemberInput{UserID: "u2"})
	require.NoError(t, err)
	assert.Zero(t, testinfra.CountRows(t, db, "board_members", "board_id = $1 AND user_id = $2", b.ID, "u2"))

	_, err = s.RemoveMember(ctx, b.ID, "u1", RemoveMemberInput{UserID: "u3"})
	require.NoError(t, err)

	_, err = s.RemoveMember(ctx, b.ID, "u1", RemoveMemberInput{UserID: "u1"})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	_, err = s.RemoveMember(ctx, b.ID, "u4", RemoveMemberInput{UserID: "u4"})
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
}

func TestAddMemberRules(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")

	_, err := s.AddMember(ctx, b.ID, "u1", AddMemberInput{Email: "nobody@example.com"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "User not found. They must sign up first.", apperr.Message(err, ""))

	mc, err := s.AddMember(ctx, b.ID, "u1", AddMemberInput{Email: "U2@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, mc.Member.Role)
	assert.Equal(t, "u2", mc.Member.UserID)

	_, err = s.AddMember(ctx, b.ID, "u1", AddMemberInput{Email: "u2@example.com"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	_, err = s.AddMember(ctx, b.ID, "u1", AddMemberInput{Email: "u1@example.com"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	_, err = s.AddMember(ctx, b.ID, "u1", AddMemberInput{Email: "u3@example.com", Role: models.RoleOwner})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestEnsureUserSurvivesEmailTakenByAnotherAccount(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.EnsureUser(ctx, &models.User{ID: "u5", Email: strPtr("U1@EXAMPLE.COM"), Name: strPtr("Late"), CreatedAt: now, UpdatedAt: now}))
	u5, err := s.store.GetUser(ctx, "u5")
	require.NoError(t, err)
	assert.Nil(t, u5.Email)
	require.NotNil(t, u5.Name)
	assert.Equal(t, "Late", *u5.Name)

	// An existing account moving onto a taken address keeps its own.
	require.NoError(t, s.EnsureUser(ctx, &models.User{ID: "u2", Email: strPtr("u1@example.com"), Name: strPtr("Renamed"), CreatedAt: now, UpdatedAt: now}))
	u2, err := s.store.GetUser(ctx, "u2")
	require.NoError(t, err)
	require.NotNil(t, u2.Email)
	assert.Equal(t, "u2@example.com", *u2.Email)
	assert.Equal(t, "Renamed", *u2.Name)

	owner, err := s.store.FindUserByEmail(ctx, "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner.ID)
}

func TestDeleteBoardIsOwnerOnly(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")
	addMember(t, s, b.ID, "u2@example.com")

	_, err := s.DeleteBoard(ctx, b.ID, "u2")
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	_, err = s.DeleteBoard(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.Zero(t, testinfra.CountRows(t, db, "board_members", ""))
}

func TestReorderLists(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		l, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: title})
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	updated, err := s.ReorderLists(ctx, b.ID, "u1", ReorderListsInput{ListIDs: []string{ids[2], ids[0], ids[1]}})
	require.NoError(t, err)
	assert.Len(t, updated, 3)

	lists, err := s.GetLists(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, []string{lists[0].Title, lists[1].Title, lists[2].Title})

	_, err = s.ReorderLists(ctx, b.ID, "u1", ReorderListsInput{ListIDs: []string{ids[0], "missing"}})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	lists, err = s.GetLists(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c", lists[0].Title, "failed reorder leaves positions untouched")

	_, err = s.ReorderLists(ctx, b.ID, "u1", ReorderListsInput{ListIDs: []string{ids[0], ids[0]}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLabelsAndSearch(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")
	l, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: "Todo"})
	require.NoError(t, err)
	tc, err := s.CreateTask(ctx, "u1", CreateTaskInput{ListID: l.ID, Title: "Fix login", Priority: models.PriorityUrgent})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, "u1", CreateTaskInput{ListID: l.ID, Title: "Docs", Description: strPtr("login page copy")})
	require.NoError(t, err)

	label, err := s.CreateLabel(ctx, b.ID, "u1", CreateLabelInput{Name: "bug", Color: "#ff0000"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		got, err := s.AttachLabel(ctx, tc.Task.ID, "u1", LabelRefInput{LabelID: label.ID})
		require.NoError(t, err)
		assert.Len(t, got.Task.Labels, 1)
	}
	got, err := s.DetachLabel(ctx, tc.Task.ID, "u1", LabelRefInput{LabelID: label.ID})
	require.NoError(t, err)
	assert.Empty(t, got.Task.Labels)

	other := mustBoard(t, s, "u1")
	foreign, err := s.CreateLabel(ctx, other.ID, "u1", CreateLabelInput{Name: "x", Color: "#000"})
	require.NoError(t, err)
	_, err = s.AttachLabel(ctx, tc.Task.ID, "u1", LabelRefInput{LabelID: foreign.ID})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	page, err := s.SearchTasks(ctx, b.ID, "u1", SearchInput{Query: "LOGIN", Priority: "all", Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Tasks, 1)

	page, err = s.SearchTasks(ctx, b.ID, "u1", SearchInput{Query: "login", Priority: "urgent"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 20, page.Limit)

	_, err = s.SearchTasks(ctx, b.ID, "u1", SearchInput{Priority: "critical"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = s.SearchTasks(ctx, b.ID, "u4", SearchInput{})
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
}

func TestUpdateTaskReportsChanges(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	b := mustBoard(t, s, "u1")
	l, err := s.CreateList(ctx, b.ID, "u1", CreateListInput{Title: "Todo"})
	require.NoError(t, err)
	tc, err := s.CreateTask(ctx, "u1", CreateTaskInput{ListID: l.ID, Title: "Draft"})
	require.NoError(t, err)

	high := models.PriorityHigh
	up, err := s.UpdateTask(ctx, tc.Task.ID, "u1", UpdateTaskInput{Title: strPtr("Final"), Priority: &high, ProgressTotal: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, "Final", up.Task.Title)
	assert.Equal(t, map[string]any{"title": "Final", "priority": "high", "progressTotal": 3}, up.Changes)

	bad := models.Priority("critical")
	_, err = s.UpdateTask(ctx, tc.Task.ID, "u1", UpdateTaskInput{Priority: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
