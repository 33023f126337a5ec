package activity_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/activity"
	"taskflow/internal/models"
	"taskflow/internal/repository"
	"taskflow/internal/testinfra"
)

func TestListPaginatesNewestFirst(t *testing.T) {
	db := testinfra.OpenSQLite(t)
	testinfra.InsertUser(t, db, "u1", "u1@example.com", "One")
	store := repository.New(db)
	ctx := context.Background()
	now := time.Now().UTC()
	boardID := "b1"
	require.NoError(t, store.CreateBoard(ctx, &models.Board{ID: boardID, Title: "Sprint", OwnerID: "u1", CreatedAt: now, UpdatedAt: now}))

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 45; i++ {
		require.NoError(t, store.InsertActivity(ctx, &models.ActivityLogEntry{
			ID: fmt.Sprintf("e%02d", i), BoardID: &boardID, ActionType: models.ActionUpdated,
			EntityType: models.EntityBoard, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec := activity.NewRecorder(store, nil, 20, 100)
	page, err := rec.List(ctx, boardID, 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 45, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Activities, 20)
	assert.Equal(t, "e25", page.Activities[0].ID)
	assert.Equal(t, "e06", page.Activities[19].ID)

	page, err = rec.List(ctx, boardID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, "e45", page.Activities[0].ID)

	page, err = rec.List(ctx, boardID, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
	assert.Len(t, page.Activities, 45)
}

func TestLogFailureDoesNotSurface(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	store := repository.New(sqlx.NewDb(mockDB, "postgres"))

	mock.ExpectExec("INSERT INTO activity_log").WillReturnError(errors.New("connection reset"))

	rec := activity.NewRecorder(store, nil, 20, 100)
	assert.NotPanics(t, func() {
		rec.Log(context.Background(), activity.Entry{
			BoardID: "b1", UserID: "u1", Action: models.ActionCreated, Entity: models.EntityTask,
			EntityID: "t1", Metadata: activity.Titled("Write docs"),
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) PublishActivity(context.Context, *models.ActivityLogEntry) error {
	p.calls++
	return errors.New("broker unavailable")
}

func TestLogFallsBackToDirectInsert(t *testing.T) {
	db := testinfra.OpenSQLite(t)
	testinfra.InsertUser(t, db, "u1", "u1@example.com", "One")
	store := repository.New(db)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, store.CreateBoard(ctx, &models.Board{ID: "b1", Title: "Sprint", OwnerID: "u1", CreatedAt: now, UpdatedAt: now}))

	pub := &failingPublisher{}
	rec := activity.NewRecorder(store, pub, 20, 100)
	rec.Log(ctx, activity.Entry{
		BoardID: "b1", UserID: "u1", Action: models.ActionMoved, Entity: models.EntityTask, EntityID: "t1",
		Metadata: activity.Moved("Write docs", "Todo", "Doing", 0, 0),
	})

	assert.Equal(t, 1, pub.calls)
	page, err := rec.List(ctx, "b1", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Activities, 1)
	got := page.Activities[0]
	assert.Equal(t, models.ActionMoved, got.ActionType)
	assert.Equal(t, "Todo", got.Metadata["fromList"])
	assert.Equal(t, "Doing", got.Metadata["toList"])
	require.NotNil(t, got.User)
	assert.Equal(t, "One", *got.User.Name)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, activity.TotalPages(0, 20))
	assert.Equal(t, 1, activity.TotalPages(20, 20))
	assert.Equal(t, 3, activity.TotalPages(45, 20))
}
