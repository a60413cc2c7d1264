package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symples/ai_services"
	"symples/flows"
	"symples/grouping"
	"symples/models"
)

const wsID = "ws-1"

func strp(s string) *string { return &s }

func wsTask(id string, status models.Status, pos float64) models.Task {
	return models.Task{ID: id, Title: "Tarefa " + id, Status: status, Position: pos, WorkspaceID: strp(wsID), CreatedBy: "ana"}
}

type fixture struct {
	store      *memStore
	workspaces *memWorkspaces
	api        *API
	router     http.Handler
}

func newFixture(t *testing.T, tasks ...models.Task) *fixture {
	t.Helper()
	if tasks == nil {
		tasks = []models.Task{
			wsTask("a", models.StatusTodo, 1000),
			wsTask("b", models.StatusTodo, 2000),
			wsTask("c", models.StatusTodo, 3000),
			wsTask("d", models.StatusDone, 1000),
			{ID: "p1", Title: "Pessoal", Status: models.StatusTodo, Position: 1000, CreatedBy: "ana"},
		}
	}
	store := newMemStore(tasks...)
	workspaces := &memWorkspaces{roles: map[string]map[string]models.Role{
		wsID: {"ana": models.RoleOwner, "bia": models.RoleViewer},
	}}
	verifier := tokens{"tok-ana": "ana", "tok-bia": "bia", "tok-caio": "caio"}
	api := NewAPI(store, workspaces, verifier, ai_services.NewQuickAddService(nil, store, workspaces, nil), nil)

	r := mux.NewRouter()
	r.Use(LoggingMiddleware)
	auth := api.AuthMiddleware
	r.HandleFunc("/healthz", api.HealthHandler).Methods("GET")
	r.HandleFunc("/user/info", auth(api.UserHandler)).Methods("GET")
	r.HandleFunc("/tasks", auth(api.ListTasksHandler)).Methods("GET")
	r.HandleFunc("/tasks", auth(api.CreateTaskHandler)).Methods("POST")
	r.HandleFunc("/tasks/move/{task_id}", auth(api.MoveTaskHandler)).Methods("PATCH")
	r.HandleFunc("/workspace/create", auth(api.CreateWorkspaceHandler)).Methods("POST")
	r.HandleFunc("/workspace/info/{workspace_id}", auth(api.GetWorkspaceInfoHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/members/list", auth(api.ListWorkspaceMembersHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/groups/list", auth(api.ListGroupsHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/groups/create", auth(api.CreateGroupHandler)).Methods("POST")
	r.HandleFunc("/workspace/{workspace_id}/task/list", auth(api.ListTasksHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/task/create", auth(api.CreateTaskHandler)).Methods("POST")
	r.HandleFunc("/workspace/{workspace_id}/task/info/{task_id}", auth(api.GetTaskHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/task/update/{task_id}", auth(api.UpdateTaskHandler)).Methods("PUT")
	r.HandleFunc("/workspace/{workspace_id}/task/move/{task_id}", auth(api.MoveTaskHandler)).Methods("PATCH")
	r.HandleFunc("/workspace/{workspace_id}/task/reorder/{task_id}", auth(api.ReorderTaskHandler)).Methods("POST")
	r.HandleFunc("/workspace/{workspace_id}/task/delete/{task_id}", auth(api.DeleteTaskHandler)).Methods("DELETE")
	r.HandleFunc("/workspace/{workspace_id}/board", auth(api.BoardHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/calendar", auth(api.CalendarHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/ai/quick-add", auth(api.QuickAddHandler)).Methods("POST")

	return &fixture{store: store, workspaces: workspaces, api: api, router: r}
}

type result struct {
	Code    int
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) result {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	res := result{Code: rec.Code}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	}
	return res
}

func decode[T any](t *testing.T, res result) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(res.Data, &v), string(res.Data))
	return v
}

func TestAuthAndMembership(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/workspace/ws-1/task/list", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/workspace/ws-1/task/list", "tok-falso", nil).Code)

	res := f.do(t, "GET", "/workspace/ws-1/task/list", "tok-caio", nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.False(t, res.Success)

	// viewer lê mas não altera
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/workspace/ws-1/task/list", "tok-bia", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, "POST", "/workspace/ws-1/task/create", "tok-bia", map[string]string{"title": "x"}).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, "PATCH", "/workspace/ws-1/task/move/a", "tok-bia", map[string]float64{"position": 10}).Code)
}

func TestUserInfo(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, "GET", "/user/info", "tok-ana", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, map[string]string{"uid": "ana", "email": "ana@symples.com", "display_name": "ana"}, decode[map[string]string](t, res))
}

func TestListTasksWithFilter(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "GET", "/workspace/ws-1/task/list?status=done", "tok-ana", nil)
	require.Equal(t, http.StatusOK, res.Code)
	tasks := decode[[]models.Task](t, res)
	require.Len(t, tasks, 1)
	assert.Equal(t, "d", tasks[0].ID)

	res = f.do(t, "GET", "/workspace/ws-1/task/list?status=pendente", "tok-ana", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "status", res.Field)
}

func TestPersonalTasks(t *testing.T) {
	f := newFixture(t)

	tasks := decode[[]models.Task](t, f.do(t, "GET", "/tasks", "tok-ana", nil))
	require.Len(t, tasks, 1)
	assert.Equal(t, "p1", tasks[0].ID)

	res := f.do(t, "POST", "/tasks", "tok-ana", map[string]string{"title": "Comprar café"})
	require.Equal(t, http.StatusCreated, res.Code)
	created := decode[models.Task](t, res)
	assert.Nil(t, created.WorkspaceID)
	assert.Equal(t, 2000.0, created.Position)
	assert.Equal(t, models.OriginManual, created.Origin.Source)

	// tarefa pessoal de outro usuário não é visível
	assert.Equal(t, http.StatusNotFound, f.do(t, "PATCH", "/tasks/move/p1", "tok-caio", map[string]float64{"position": 5}).Code)
	assert.Equal(t, http.StatusOK, f.do(t, "PATCH", "/tasks/move/p1", "tok-ana", map[string]float64{"position": 5}).Code)
}

func TestCreateTaskAppendsToScope(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "POST", "/workspace/ws-1/task/create", "tok-ana", map[string]interface{}{
		"title":  "Nova",
		"origin": map[string]interface{}{"source": "audio", "transcript": "nova tarefa"},
	})
	require.Equal(t, http.StatusCreated, res.Code)
	task := decode[models.Task](t, res)
	assert.Equal(t, 4000.0, task.Position)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.OriginAudio, task.Origin.Source)

	res = f.do(t, "POST", "/workspace/ws-1/task/create", "tok-ana", map[string]string{"title": " "})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "title", res.Field)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/workspace/ws-1/task/create", "tok-ana", "{nao é json").Code)
}

func TestGetUpdateDeleteTask(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "GET", "/workspace/ws-1/task/info/a", "tok-bia", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Tarefa a", decode[models.Task](t, res).Title)

	res = f.do(t, "PUT", "/workspace/ws-1/task/update/a", "tok-ana", map[string]string{"title": "Renomeada"})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Renomeada", decode[models.Task](t, res).Title)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "PUT", "/workspace/ws-1/task/update/a", "tok-ana", map[string]string{}).Code)

	assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/workspace/ws-1/task/delete/a", "tok-ana", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "DELETE", "/workspace/ws-1/task/delete/a", "tok-ana", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/workspace/ws-1/task/info/a", "tok-ana", nil).Code)
}

func TestMoveTask(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "PATCH", "/workspace/ws-1/task/move/a", "tok-ana", map[string]interface{}{"position": 1500, "status": "done"})
	require.Equal(t, http.StatusOK, res.Code)
	task := decode[models.Task](t, res)
	assert.Equal(t, models.StatusDone, task.Status)
	assert.Equal(t, 1500.0, task.Position)
	assert.Equal(t, "Tarefa a", task.Title)

	res = f.do(t, "PATCH", "/workspace/ws-1/task/move/a", "tok-ana", map[string]interface{}{"position": 1, "status": "feito"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, "PATCH", "/workspace/ws-1/task/move/zzz", "tok-ana", map[string]interface{}{"position": 1})
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestReorderSameColumn(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "POST", "/workspace/ws-1/task/reorder/c", "tok-ana", map[string]interface{}{"group_by": "status", "index": 0})
	require.Equal(t, http.StatusOK, res.Code)
	out := decode[reorderResponse](t, res)
	assert.False(t, out.Renumbered)
	assert.Equal(t, map[string]float64{"c": 500}, out.Positions)
	assert.Equal(t, 500.0, f.store.position("c"))
	assert.Equal(t, 1000.0, f.store.position("a"))
	assert.Equal(t, 2000.0, f.store.position("b"))
}

func TestReorderAcrossColumns(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "POST", "/workspace/ws-1/task/reorder/a", "tok-ana", map[string]interface{}{"group_by": "status", "column": "done", "index": 1})
	require.Equal(t, http.StatusOK, res.Code)
	out := decode[reorderResponse](t, res)
	assert.Equal(t, models.StatusDone, out.Task.Status)
	assert.Equal(t, 1500.0, out.Task.Position)

	res = f.do(t, "POST", "/workspace/ws-1/task/reorder/b", "tok-ana", map[string]interface{}{"group_by": "status", "column": "feito", "index": 0})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, "POST", "/workspace/ws-1/task/reorder/b", "tok-ana", map[string]interface{}{"group_by": "cor", "index": 0})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "group_by", res.Field)
}

func TestReorderRenumbersTies(t *testing.T) {
	f := newFixture(t,
		wsTask("x", models.StatusTodo, 1000),
		wsTask("y", models.StatusTodo, 1000),
		wsTask("z", models.StatusTodo, 1000),
	)

	res := f.do(t, "POST", "/workspace/ws-1/task/reorder/z", "tok-ana", map[string]interface{}{"group_by": "status", "index": 1})
	require.Equal(t, http.StatusOK, res.Code)
	out := decode[reorderResponse](t, res)
	assert.True(t, out.Renumbered)
	assert.Equal(t, map[string]float64{"y": 3000}, f.store.applied)
	assert.Equal(t, 2000.0, f.store.position("z"))
	assert.Equal(t, 1000.0, f.store.position("x"))
}

func TestReorderNoop(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, "POST", "/workspace/ws-1/task/reorder/a", "tok-ana", map[string]interface{}{"group_by": "status", "index": 0})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, decode[reorderResponse](t, res).Positions)
}

func TestBoard(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "GET", "/workspace/ws-1/board?group_by=status", "tok-bia", nil)
	require.Equal(t, http.StatusOK, res.Code)
	buckets := decode[[]grouping.Bucket](t, res)
	byKey := map[string][]models.Task{}
	for _, b := range buckets {
		byKey[b.Key] = b.Tasks
	}
	require.Len(t, byKey["todo"], 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{byKey["todo"][0].ID, byKey["todo"][1].ID, byKey["todo"][2].ID})
	assert.Len(t, byKey["done"], 1)
	assert.Contains(t, byKey, "in_progress")

	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/workspace/ws-1/board?group_by=cor", "tok-ana", nil).Code)
}

func TestCalendarCacheEvictedOnWrite(t *testing.T) {
	due := time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC)
	a := wsTask("a", models.StatusTodo, 1000)
	a.DueDate = &due
	f := newFixture(t, a, wsTask("b", models.StatusTodo, 2000))

	path := "/workspace/ws-1/calendar?from=2026-10-01&to=2026-11-01"
	res := f.do(t, "GET", path, "tok-ana", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decode[[]models.Task](t, res), 1)

	f.do(t, "GET", path, "tok-ana", nil)
	assert.Equal(t, 1, f.store.dueCalls, "segunda consulta vem do cache")

	res = f.do(t, "PUT", "/workspace/ws-1/task/update/b", "tok-ana", map[string]interface{}{"due_date": "2026-10-25T09:00:00Z"})
	require.Equal(t, http.StatusOK, res.Code)

	res = f.do(t, "GET", path, "tok-ana", nil)
	assert.Equal(t, 2, f.store.dueCalls)
	assert.Len(t, decode[[]models.Task](t, res), 2)
}

func TestCalendarRangeValidation(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/workspace/ws-1/calendar?from=ontem", "tok-ana", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/workspace/ws-1/calendar?from=2026-10-10&to=2026-10-01", "tok-ana", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/workspace/ws-1/calendar", "tok-ana", nil).Code)
}

func TestQuickAdd(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "POST", "/workspace/ws-1/ai/quick-add", "tok-bia", map[string]interface{}{"message": "Pagar boleto amanhã urgente"})
	require.Equal(t, http.StatusOK, res.Code)
	preview := decode[models.QuickAddResponse](t, res)
	require.Len(t, preview.Tasks, 1)
	assert.Equal(t, "Pagar boleto", preview.Tasks[0].Title)
	assert.Empty(t, preview.Created)

	assert.Equal(t, http.StatusForbidden, f.do(t, "POST", "/workspace/ws-1/ai/quick-add", "tok-bia",
		map[string]interface{}{"message": "Pagar boleto", "create": true}).Code)

	res = f.do(t, "POST", "/workspace/ws-1/ai/quick-add", "tok-ana", map[string]interface{}{
		"message": "Pagar boleto amanhã urgente",
		"create":  true,
		"origin":  map[string]interface{}{"source": "whatsapp", "phone": "+5511999990000"},
	})
	require.Equal(t, http.StatusCreated, res.Code)
	created := decode[models.QuickAddResponse](t, res)
	require.Len(t, created.Created, 1)
	assert.Equal(t, models.PriorityUrgent, created.Created[0].Priority)
	assert.Equal(t, models.OriginWhatsApp, created.Created[0].Origin.Source)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/workspace/ws-1/ai/quick-add", "tok-ana", map[string]string{"message": ""}).Code)
}

type fixedExtractor []models.ExtractedTask

func (e fixedExtractor) Extract(context.Context, flows.Input) ([]models.ExtractedTask, error) {
	return e, nil
}

func TestQuickAddPartialFailureEvictsCalendar(t *testing.T) {
	f := newFixture(t, wsTask("a", models.StatusTodo, 1000))
	d1 := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC)
	f.api.QuickAdd = ai_services.NewQuickAddService(fixedExtractor{
		{Title: "Pagar boleto", DueDate: &d1},
		{Title: "Ligar para o banco", DueDate: &d2},
	}, f.store, f.workspaces, nil)

	path := "/workspace/ws-1/calendar?from=2026-10-01&to=2026-11-01"
	res := f.do(t, "GET", path, "tok-ana", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, decode[[]models.Task](t, res))

	f.store.failCreateAfter = 1
	res = f.do(t, "POST", "/workspace/ws-1/ai/quick-add", "tok-ana",
		map[string]interface{}{"message": "boleto e banco", "create": true})
	assert.Equal(t, http.StatusInternalServerError, res.Code)

	res = f.do(t, "GET", path, "tok-ana", nil)
	assert.Equal(t, 2, f.store.dueCalls)
	due := decode[[]models.Task](t, res)
	require.Len(t, due, 1)
	assert.Equal(t, "Pagar boleto", due[0].Title)
}

func TestWorkspaceEndpoints(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "POST", "/workspace/create", "tok-caio", map[string]string{"name": "Marketing"})
	require.Equal(t, http.StatusCreated, res.Code)
	ws := decode[models.Workspace](t, res)
	assert.Equal(t, "caio", ws.OwnerUID)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/workspace/create", "tok-caio", map[string]string{"name": ""}).Code)
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/workspace/info/ws-new", "tok-caio", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, "GET", "/workspace/info/ws-new", "tok-ana", nil).Code)

	members := decode[[]models.WorkspaceMember](t, f.do(t, "GET", "/workspace/ws-1/members/list", "tok-bia", nil))
	assert.Len(t, members, 2)

	res = f.do(t, "POST", "/workspace/ws-1/groups/create", "tok-ana", map[string]string{"name": "Backlog", "color": "#ff0000"})
	require.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, "POST", "/workspace/ws-1/groups/create", "tok-bia", map[string]string{"name": "X"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/workspace/ws-1/groups/create", "tok-ana", map[string]string{"name": ""}).Code)

	groups := decode[[]models.TaskGroup](t, f.do(t, "GET", "/workspace/ws-1/groups/list", "tok-bia", nil))
	require.Len(t, groups, 1)
	assert.Equal(t, "Backlog", groups[0].Name)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/healthz", "", nil).Code)

	f.api.Ping = func(context.Context) error { return errors.New("connection refused") }
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, "GET", "/healthz", "", nil).Code)
}
