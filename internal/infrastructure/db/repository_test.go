package db

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/solarops/dispatch/internal/config"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"gorm.io/gorm"
)

var testDispatch = config.DispatchConfig{
	HomeBase:     "Base Operativa",
	FreeNowLabel: "Libera ora",
	BusyLabel:    "In corso fino a",
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := NewConnection(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "dispatch.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { Close(database) })
	if err := RunMigrations(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Seed(context.Background(), database, testDispatch, logger.NewNop()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return database
}

func newAvailableTask(t *testing.T, repo ports.TaskRepository) *domain.Task {
	t.Helper()
	task := &domain.Task{
		Activity:       domain.ActivityMonitoring,
		Description:    "Controllo inverter",
		Location:       "Via Roma 123",
		Plant:          "Impianto Solare Nord",
		Priority:       domain.PriorityHigh,
		EstimatedHours: 2,
		Status:         domain.TaskStatusAvailable,
		CreatedAt:      time.Now(),
	}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func assignParams(taskID, teamID uint) ports.AssignParams {
	return ports.AssignParams{
		TaskID:        taskID,
		TeamID:        teamID,
		StartedAt:     time.Now(),
		NextAvailable: func(*domain.Task) string { return "In corso fino a 12:00:00" },
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	database := newTestDB(t)
	log := logger.NewNop()
	if err := Seed(context.Background(), database, testDispatch, log); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	teams, err := NewTeamRepository(database, log).GetAll(context.Background())
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("expected 3 teams, got %d", len(teams))
	}
	for _, team := range teams {
		if team.Status != domain.TeamStatusAvailable || team.CurrentLocation != "Base Operativa" || team.NextAvailable != "Libera ora" {
			t.Errorf("unexpected seeded team %+v", team)
		}
	}

	user, err := NewUserRepository(database, log).GetByUsername(context.Background(), "mario.bianchi")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Role != domain.RoleOperator || user.TeamID == nil || *user.TeamID != teams[0].ID {
		t.Errorf("unexpected operator %+v", user)
	}
	if user.Password == "squadra123" {
		t.Error("password stored in clear text")
	}
}

func TestAssignAndComplete(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(database, logger.NewNop())
	task := newAvailableTask(t, repo)

	assigned, team, err := repo.Assign(ctx, assignParams(task.ID, 1))
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.Status != domain.TaskStatusInProgress || assigned.AssignedTeamID == nil || *assigned.AssignedTeamID != 1 || assigned.StartedAt == nil {
		t.Errorf("unexpected assigned task %+v", assigned)
	}
	if team.Status != domain.TeamStatusBusy || team.CurrentLocation != "Impianto Solare Nord" {
		t.Errorf("unexpected busy team %+v", team)
	}

	stored, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.TaskStatusInProgress {
		t.Errorf("assignment not persisted: %+v", stored)
	}

	completed, released, err := repo.Complete(ctx, ports.CompleteParams{
		TaskID:        task.ID,
		CompletedAt:   time.Now(),
		HomeBase:      "Base Operativa",
		NextAvailable: "Libera ora",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != domain.TaskStatusCompleted || completed.CompletedAt == nil {
		t.Errorf("unexpected completed task %+v", completed)
	}
	if released == nil || released.Status != domain.TeamStatusAvailable || released.CurrentLocation != "Base Operativa" || released.NextAvailable != "Libera ora" {
		t.Errorf("unexpected released team %+v", released)
	}
	if completed.StartedAt.After(*completed.CompletedAt) {
		t.Error("startedAt after completedAt")
	}
}

func TestAssignRejectsOutOfOrder(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	log := logger.NewNop()
	repo := NewTaskRepository(database, log)
	teams := NewTeamRepository(database, log)
	task := newAvailableTask(t, repo)

	if _, _, err := repo.Assign(ctx, assignParams(task.ID, 1)); err != nil {
		t.Fatalf("first Assign: %v", err)
	}
	if _, _, err := repo.Assign(ctx, assignParams(task.ID, 2)); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	team2, err := teams.GetByID(ctx, 2)
	if err != nil {
		t.Fatalf("get team 2: %v", err)
	}
	if team2.Status != domain.TeamStatusAvailable || team2.CurrentLocation != "Base Operativa" {
		t.Errorf("team 2 changed: %+v", team2)
	}

	other := newAvailableTask(t, repo)
	if _, _, err := repo.Assign(ctx, assignParams(other.ID, 1)); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("busy team accepted a second task: %v", err)
	}
	stillAvailable, _ := repo.GetByID(ctx, other.ID)
	if stillAvailable.Status != domain.TaskStatusAvailable || stillAvailable.AssignedTeamID != nil {
		t.Errorf("rejected assign left a partial write: %+v", stillAvailable)
	}

	if _, _, err := repo.Complete(ctx, ports.CompleteParams{TaskID: other.ID, CompletedAt: time.Now()}); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState completing an available task, got %v", err)
	}
}

func TestAssignNotFound(t *testing.T) {
	database := newTestDB(t)
	repo := NewTaskRepository(database, logger.NewNop())
	task := newAvailableTask(t, repo)

	if _, _, err := repo.Assign(context.Background(), assignParams(9999, 1)); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
	if _, _, err := repo.Assign(context.Background(), assignParams(task.ID, 9999)); !errors.Is(err, domain.ErrTeamNotFound) {
		t.Errorf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestConcurrentAssignHasSingleWinner(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	log := logger.NewNop()
	repo := NewTaskRepository(database, log)
	task := newAvailableTask(t, repo)

	var wg sync.WaitGroup
	results := make(chan error, 3)
	for teamID := uint(1); teamID <= 3; teamID++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, _, err := repo.Assign(ctx, assignParams(task.ID, id))
			results <- err
		}(teamID)
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrInvalidState):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}

	counts, err := NewTeamRepository(database, log).CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domain.TeamStatusBusy] != 1 || counts[domain.TeamStatusAvailable] != 2 {
		t.Errorf("unexpected team counts %v", counts)
	}
}

func TestUpdateAndDeleteOnlyWhileAvailable(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(database, logger.NewNop())
	task := newAvailableTask(t, repo)

	updated, err := repo.UpdateAvailable(ctx, task.ID, map[string]interface{}{"description": "Pulizia pannelli"})
	if err != nil {
		t.Fatalf("UpdateAvailable: %v", err)
	}
	if updated.Description != "Pulizia pannelli" {
		t.Errorf("description not updated: %+v", updated)
	}

	if _, _, err := repo.Assign(ctx, assignParams(task.ID, 1)); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := repo.UpdateAvailable(ctx, task.ID, map[string]interface{}{"description": "x"}); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on update, got %v", err)
	}
	if err := repo.DeleteAvailable(ctx, task.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on delete, got %v", err)
	}

	other := newAvailableTask(t, repo)
	if err := repo.DeleteAvailable(ctx, other.ID); err != nil {
		t.Fatalf("DeleteAvailable: %v", err)
	}
	if _, err := repo.GetByID(ctx, other.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected hard delete, got %v", err)
	}
	if err := repo.DeleteAvailable(ctx, other.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTeamStatusPatchRefusedWhileBusy(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	log := logger.NewNop()
	tasks := NewTaskRepository(database, log)
	teams := NewTeamRepository(database, log)

	offline, err := teams.Update(ctx, 2, map[string]interface{}{"status": domain.TeamStatusOffline})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if offline.Status != domain.TeamStatusOffline {
		t.Errorf("expected offline, got %s", offline.Status)
	}

	task := newAvailableTask(t, tasks)
	if _, _, err := tasks.Assign(ctx, assignParams(task.ID, 1)); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := teams.Update(ctx, 1, map[string]interface{}{"status": domain.TeamStatusOffline}); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	renamed, err := teams.Update(ctx, 1, map[string]interface{}{"name": "Squadra Alfa"})
	if err != nil {
		t.Fatalf("rename busy team: %v", err)
	}
	if renamed.Name != "Squadra Alfa" || renamed.Status != domain.TeamStatusBusy {
		t.Errorf("unexpected renamed team %+v", renamed)
	}
}

func TestPlantSearch(t *testing.T) {
	database := newTestDB(t)
	repo := NewPlantRepository(database, logger.NewNop())

	cases := []struct {
		query string
		want  int
	}{
		{"solare", 3},
		{"MILANO", 1},
		{"fotovoltaic", 2},
		{"nessuno", 0},
		{"%", 0},
	}
	for _, tc := range cases {
		plants, err := repo.Search(context.Background(), tc.query)
		if err != nil {
			t.Fatalf("Search(%q): %v", tc.query, err)
		}
		if len(plants) != tc.want {
			t.Errorf("Search(%q): expected %d plants, got %d", tc.query, tc.want, len(plants))
		}
	}
}

func TestSettingCreateIfAbsentKeepsFirstValue(t *testing.T) {
	repo := NewSystemSettingRepository(newTestDB(t), logger.NewNop())
	ctx := context.Background()

	if got, err := repo.Get(ctx, "auth.jwt_secret"); err != nil || got != nil {
		t.Fatalf("get before create = %v, %v", got, err)
	}

	first, created, err := repo.CreateIfAbsent(ctx, &domain.SystemSetting{Key: "auth.jwt_secret", Value: "one", Type: "string"})
	if err != nil || !created || first.Value != "one" {
		t.Fatalf("first create = %+v created=%v err=%v", first, created, err)
	}

	second, created, err := repo.CreateIfAbsent(ctx, &domain.SystemSetting{Key: "auth.jwt_secret", Value: "two", Type: "string"})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created || second.Value != "one" {
		t.Fatalf("second create = %+v created=%v, want the stored value", second, created)
	}
}
