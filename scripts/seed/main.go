// Seed creates demo users and a board with lists and tasks through the
// service layer. Run from project root: go run ./scripts/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/models"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

type demoUser struct{ id, email, name string }

var users = []demoUser{
	{"seed-owner", "owner@example.com", "Olivia Owner"},
	{"seed-member", "member@example.com", "Max Member"},
	{"seed-viewer", "viewer@example.com", "Vera Viewer"},
}

func main() {
	_ = godotenv.Load()
	tasksPerList := flag.Int("tasks", 5, "tasks to create in each list")
	flag.Parse()

	ctx := context.Background()
	if err := seed(ctx, config.Load(), *tasksPerList); err != nil {
		fmt.Fprintln(os.Stderr, "seed failed:", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *config.Config, tasksPerList int) error {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	svc := service.New(repository.New(db), nil, cfg.MaxPageLimit)

	now := time.Now().UTC()
	for _, u := range users {
		email, name := u.email, u.name
		if err := svc.EnsureUser(ctx, &models.User{ID: u.id, Email: &email, Name: &name, CreatedAt: now, UpdatedAt: now}); err != nil {
			return fmt.Errorf("user %s: %w", u.id, err)
		}
	}
	owner := users[0].id

	board, err := svc.CreateBoard(ctx, owner, service.CreateBoardInput{Title: "Demo board"})
	if err != nil {
		return err
	}
	if _, err := svc.AddMember(ctx, board.ID, owner, service.AddMemberInput{Email: users[1].email}); err != nil {
		return err
	}
	if _, err := svc.AddMember(ctx, board.ID, owner, service.AddMemberInput{Email: users[2].email, Role: models.RoleViewer}); err != nil {
		return err
	}

	priorities := []models.Priority{models.PriorityNone, models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent}
	start := time.Now()
	created := 0
	for _, title := range []string{"Backlog", "Todo", "In Progress", "Done"} {
		list, err := svc.CreateList(ctx, board.ID, owner, service.CreateListInput{Title: title})
		if err != nil {
			return err
		}
		for i := 0; i < tasksPerList; i++ {
			_, err := svc.CreateTask(ctx, owner, service.CreateTaskInput{
				ListID:   list.ID,
				Title:    fmt.Sprintf("%s task %d", title, i+1),
				Priority: priorities[created%len(priorities)],
			})
			if err != nil {
				return err
			}
			created++
		}
	}
	fmt.Printf("Seeded board %s with %d tasks in %v\n", board.ID, created, time.Since(start))
	return nil
}
