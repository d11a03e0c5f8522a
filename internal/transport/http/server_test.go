package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/config"
	"github.com/solarops/dispatch/internal/core/services"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/db"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/internal/infrastructure/realtime"
	"github.com/solarops/dispatch/internal/transport/http/dto"
)

func newTestApp(t *testing.T) (*fiber.App, *realtime.Hub) {
	t.Helper()
	return newTestAppWith(t, nil)
}

func newTestAppWith(t *testing.T, tweak func(*config.Config)) (*fiber.App, *realtime.Hub) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Features.EnableRequestLogging = false
	if tweak != nil {
		tweak(cfg)
	}

	database, err := db.NewConnection(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "dispatch.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close(database) })
	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log := logger.NewNop()
	if err := db.Seed(context.Background(), database, cfg.Dispatch, log); err != nil {
		t.Fatalf("seed: %v", err)
	}

	auth, err := services.NewAuthService(services.AuthServiceConfig{
		UserRepo: db.NewUserRepository(database, log),
		Secret:   "test-secret",
		TokenTTL: time.Hour,
		Logger:   log,
	})
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	hub := realtime.NewHub(16, log, realtime.WithPingInterval(cfg.Realtime.PingInterval))
	t.Cleanup(hub.Shutdown)
	app := NewApp(RouterConfig{DB: database, Logger: log, Config: cfg, Hub: hub, Auth: auth})
	return app, hub
}

func do(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func login(t *testing.T, app *fiber.App, username, password string) dto.LoginResponse {
	t.Helper()
	status, body := do(t, app, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	if status != fiber.StatusOK {
		t.Fatalf("login %s: %d %s", username, status, body)
	}
	var resp dto.LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp
}

var scenarioTask = map[string]interface{}{
	"activity":       "monitoraggio",
	"description":    "Controllo pannelli",
	"plant":          "Impianto Solare Nord",
	"location":       "Via Roma 123",
	"priority":       "alta",
	"estimatedHours": 2,
}

func createTask(t *testing.T, app *fiber.App, token string) domain.Task {
	t.Helper()
	status, body := do(t, app, fiber.MethodPost, "/api/tasks", token, scenarioTask)
	if status != fiber.StatusCreated {
		t.Fatalf("create task: %d %s", status, body)
	}
	var task domain.Task
	if err := json.Unmarshal(body, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return task
}

func TestLogin(t *testing.T) {
	app, _ := newTestApp(t)

	resp := login(t, app, "gestore", "admin123")
	if resp.Role != domain.RoleManager || resp.Token == "" {
		t.Fatalf("login response = %+v", resp)
	}
	status, body := do(t, app, fiber.MethodPost, "/api/auth/login", "", map[string]string{"username": "gestore", "password": "admin123"})
	if status != fiber.StatusOK || bytes.Contains(body, []byte("$2a$")) {
		t.Fatalf("password hash leaked: %s", body)
	}

	status, body = do(t, app, fiber.MethodPost, "/api/auth/login", "", map[string]string{"username": "gestore", "password": "nope"})
	if status != fiber.StatusUnauthorized {
		t.Fatalf("bad password: %d %s", status, body)
	}

	status, _ = do(t, app, fiber.MethodPost, "/api/auth/login", "", map[string]string{"username": "gestore"})
	if status != fiber.StatusBadRequest {
		t.Fatalf("missing password: %d", status)
	}
}

func TestMutationsRequireRole(t *testing.T) {
	app, _ := newTestApp(t)
	operator := login(t, app, "mario.bianchi", "squadra123")

	if status, _ := do(t, app, fiber.MethodPost, "/api/tasks", "", scenarioTask); status != fiber.StatusUnauthorized {
		t.Fatalf("anonymous create: %d", status)
	}
	if status, _ := do(t, app, fiber.MethodPost, "/api/tasks", "garbage", scenarioTask); status != fiber.StatusUnauthorized {
		t.Fatalf("bad token create: %d", status)
	}
	if status, _ := do(t, app, fiber.MethodPost, "/api/tasks", operator.Token, scenarioTask); status != fiber.StatusForbidden {
		t.Fatalf("operator create: %d", status)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	manager := login(t, app, "gestore", "admin123").Token
	task := createTask(t, app, manager)
	if task.Status != domain.TaskStatusAvailable {
		t.Fatalf("status = %s", task.Status)
	}
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	status, body := do(t, app, fiber.MethodPatch, path, manager, map[string]string{"status": "completed"})
	if status != fiber.StatusBadRequest {
		t.Fatalf("patch status: %d %s", status, body)
	}

	status, body = do(t, app, fiber.MethodPost, path+"/assign", manager, map[string]int{"teamId": 1})
	if status != fiber.StatusOK {
		t.Fatalf("assign: %d %s", status, body)
	}
	var assigned dto.AssignResponse
	if err := json.Unmarshal(body, &assigned); err != nil {
		t.Fatalf("decode assign: %v", err)
	}
	if assigned.Task.Status != domain.TaskStatusInProgress || assigned.Team.Status != domain.TeamStatusBusy ||
		assigned.Team.CurrentLocation != "Impianto Solare Nord" {
		t.Fatalf("assign response = %+v %+v", assigned.Task, assigned.Team)
	}

	status, _ = do(t, app, fiber.MethodPost, path+"/assign", manager, map[string]int{"teamId": 2})
	if status != fiber.StatusConflict {
		t.Fatalf("reassign: %d", status)
	}
	status, body = do(t, app, fiber.MethodGet, "/api/teams/2", "", nil)
	if status != fiber.StatusOK || !bytes.Contains(body, []byte(`"status":"available"`)) {
		t.Fatalf("team 2 after rejected assign: %d %s", status, body)
	}

	if status, _ := do(t, app, fiber.MethodDelete, path, manager, nil); status != fiber.StatusConflict {
		t.Fatalf("delete in progress: %d", status)
	}

	status, body = do(t, app, fiber.MethodPost, path+"/complete", manager, nil)
	if status != fiber.StatusOK || !bytes.Contains(body, []byte(`"status":"completed"`)) {
		t.Fatalf("complete: %d %s", status, body)
	}
	status, body = do(t, app, fiber.MethodGet, "/api/teams/1", "", nil)
	if status != fiber.StatusOK || !bytes.Contains(body, []byte(`"currentLocation":"Base Operativa"`)) {
		t.Fatalf("team 1 after complete: %d %s", status, body)
	}

	if status, _ := do(t, app, fiber.MethodPost, path+"/complete", manager, nil); status != fiber.StatusConflict {
		t.Fatalf("complete twice: %d", status)
	}

	status, body = do(t, app, fiber.MethodGet, "/api/timeline?resourceType=task&resourceId="+fmt.Sprint(task.ID), "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("timeline: %d %s", status, body)
	}
	var events []domain.TimelineEvent
	if err := json.Unmarshal(body, &events); err != nil || len(events) != 3 {
		t.Fatalf("timeline events = %s (%v)", body, err)
	}
}

func TestErrorMapping(t *testing.T) {
	app, _ := newTestApp(t)
	manager := login(t, app, "gestore", "admin123").Token

	cases := []struct {
		method, path string
		body         interface{}
		want         int
	}{
		{fiber.MethodGet, "/api/tasks/999", nil, fiber.StatusNotFound},
		{fiber.MethodGet, "/api/tasks/abc", nil, fiber.StatusBadRequest},
		{fiber.MethodGet, "/api/teams/42", nil, fiber.StatusNotFound},
		{fiber.MethodPost, "/api/tasks/999/assign", map[string]int{"teamId": 1}, fiber.StatusNotFound},
		{fiber.MethodPost, "/api/tasks/999/complete", nil, fiber.StatusNotFound},
		{fiber.MethodDelete, "/api/tasks/999", nil, fiber.StatusNotFound},
		{fiber.MethodPatch, "/api/teams/1", map[string]string{"status": "busy"}, fiber.StatusBadRequest},
		{fiber.MethodPatch, "/api/teams/1", map[string]string{"currentLocation": "x"}, fiber.StatusBadRequest},
		{fiber.MethodPatch, "/api/teams/1", "{}", fiber.StatusBadRequest},
		{fiber.MethodPatch, "/api/tasks/999", "{}", fiber.StatusBadRequest},
		{fiber.MethodGet, "/api/plants/search", nil, fiber.StatusBadRequest},
		{fiber.MethodGet, "/api/timeline?limit=-1", nil, fiber.StatusBadRequest},
		{fiber.MethodGet, "/api/timeline?resourceType=plant&resourceId=1", nil, fiber.StatusBadRequest},
		{fiber.MethodPost, "/api/plants", map[string]string{"name": "x"}, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		status, body := do(t, app, tc.method, tc.path, manager, tc.body)
		if status != tc.want {
			t.Errorf("%s %s: got %d want %d (%s)", tc.method, tc.path, status, tc.want, body)
		}
	}
}

func TestCreateTaskValidationDetails(t *testing.T) {
	app, _ := newTestApp(t)
	manager := login(t, app, "gestore", "admin123").Token

	cases := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"bad enums and hours", map[string]interface{}{
			"activity": "pulizia", "description": "x", "plant": "p", "location": "l",
			"priority": "massima", "estimatedHours": 0,
		}, 3},
		{"missing and invalid together", map[string]interface{}{
			"activity": "pulizia", "description": "", "plant": "p", "location": "l",
			"priority": "massima", "estimatedHours": 0,
		}, 4},
		{"fractional hours", map[string]interface{}{
			"activity": "impianto", "description": "x", "plant": "p", "location": "l",
			"priority": "alta", "estimatedHours": 1.5,
		}, 1},
	}
	for _, tc := range cases {
		status, body := do(t, app, fiber.MethodPost, "/api/tasks", manager, tc.body)
		if status != fiber.StatusBadRequest {
			t.Fatalf("%s: status = %d", tc.name, status)
		}
		var resp dto.ErrorResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if len(resp.Details) != tc.want {
			t.Errorf("%s: details = %v", tc.name, resp.Details)
		}
	}

	status, body := do(t, app, fiber.MethodGet, "/api/tasks", "", nil)
	var tasks []domain.Task
	if err := json.Unmarshal(body, &tasks); status != fiber.StatusOK || err != nil || len(tasks) != 0 {
		t.Fatalf("rejected creates stored tasks: %d %s", status, body)
	}
}

func TestReadEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, fiber.MethodGet, "/api/plants/search?q=solare", "", nil)
	var plants []domain.Plant
	if status != fiber.StatusOK || json.Unmarshal(body, &plants) != nil || len(plants) != 3 {
		t.Fatalf("search: %d %s", status, body)
	}

	status, body = do(t, app, fiber.MethodGet, "/api/stats", "", nil)
	var stats domain.Stats
	if status != fiber.StatusOK || json.Unmarshal(body, &stats) != nil {
		t.Fatalf("stats: %d %s", status, body)
	}
	if stats.TotalTasks != 0 || stats.ActiveTeams != 3 || stats.BusyTeams != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	if status, _ := do(t, app, fiber.MethodGet, "/health", "", nil); status != fiber.StatusOK {
		t.Fatalf("health: %d", status)
	}
	if status, _ := do(t, app, fiber.MethodGet, "/ws", "", nil); status != fiber.StatusUpgradeRequired {
		t.Fatalf("plain GET /ws: %d", status)
	}
}

func TestOperatorAssignsOwnTeam(t *testing.T) {
	app, _ := newTestApp(t)
	manager := login(t, app, "gestore", "admin123").Token
	operator := login(t, app, "luca.verdi", "squadra123")
	task := createTask(t, app, manager)
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	if status, _ := do(t, app, fiber.MethodPost, path+"/assign", operator.Token, map[string]int{"teamId": 1}); status != fiber.StatusForbidden {
		t.Fatalf("assign other team: %d", status)
	}
	status, body := do(t, app, fiber.MethodPost, path+"/assign", operator.Token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("assign own team: %d %s", status, body)
	}
	if !bytes.Contains(body, []byte(fmt.Sprintf(`"assignedTeamId":%d`, *operator.TeamID))) {
		t.Fatalf("assign body = %s", body)
	}
}

func TestWebsocketReceivesBroadcast(t *testing.T) {
	app, hub := newTestApp(t)
	manager := login(t, app, "gestore", "admin123").Token

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := fws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	task := createTask(t, app, manager)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var event domain.Event
	if err := json.Unmarshal(frame, &event); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if event.Type != domain.EventTaskCreated || event.Task == nil || event.Task.ID != task.ID {
		t.Fatalf("event = %+v", event)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func waitClients(t *testing.T, hub *realtime.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.Count(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebsocketDropsSilentPeer(t *testing.T) {
	app, hub := newTestAppWith(t, func(cfg *config.Config) {
		cfg.Realtime.PingInterval = 20 * time.Millisecond
		cfg.Realtime.PongWait = 100 * time.Millisecond
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })
	url := "ws://" + ln.Addr().String() + "/ws"

	// A reading client answers pings automatically and stays registered.
	alive, _, err := fws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer alive.Close()
	go func() {
		for {
			if _, _, err := alive.ReadMessage(); err != nil {
				return
			}
		}
	}()
	waitClients(t, hub, 1)

	// A client that never reads never pongs, like a peer that vanished.
	silent, _, err := fws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer silent.Close()
	waitClients(t, hub, 2)

	waitClients(t, hub, 1)
	time.Sleep(300 * time.Millisecond)
	if n := hub.Count(); n != 1 {
		t.Fatalf("responsive client dropped, clients = %d", n)
	}
}
