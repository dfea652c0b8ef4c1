package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/auth"
	"github.com/ayush/taskmanager/internal/middleware"
	"github.com/ayush/taskmanager/internal/models"
	"github.com/ayush/taskmanager/internal/store"
	"github.com/ayush/taskmanager/internal/tasks"
	"github.com/ayush/taskmanager/internal/timetable"
)

type testApp struct {
	handler   http.Handler
	tasks     *tasks.Service
	timetable *timetable.Service
	auth      *auth.Service
}

func newTestApp(t *testing.T, taskStore tasks.Store) *testApp {
	t.Helper()
	if taskStore == nil {
		taskStore = store.NewMemoryTaskStore()
	}
	log := zap.NewNop()
	app := &testApp{
		tasks:     tasks.NewService(taskStore),
		timetable: timetable.NewService(store.NewMemoryClassStore()),
	}
	app.auth = auth.NewService(
		store.NewMemoryUserStore(),
		auth.NewMemorySessionStore(auth.SessionTTL),
		"test-secret", log,
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithFileStore(store.NewMemoryFileStore()),
	)

	h, err := NewRouter(Deps{
		Log:       log,
		Auth:      app.auth,
		Tasks:     app.tasks,
		Timetable: app.timetable,
		Metrics:   middleware.NewMetrics(),
	})
	require.NoError(t, err)
	app.handler = h
	return app
}

// client replays cookies between requests like a browser without following redirects.
type client struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, path string, form url.Values) *http.Response {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	rec := httptest.NewRecorder()
	c.app.handler.ServeHTTP(rec, req)
	res := rec.Result()
	for _, ck := range res.Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
		} else {
			c.cookies[ck.Name] = ck
		}
	}
	return res
}

func (c *client) get(path string) (int, string) {
	c.t.Helper()
	res := c.do(http.MethodGet, path, nil)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return res.StatusCode, string(b)
}

// post submits a form and returns the redirect target.
func (c *client) post(path string, form url.Values) string {
	c.t.Helper()
	res := c.do(http.MethodPost, path, form)
	res.Body.Close()
	require.Equal(c.t, http.StatusSeeOther, res.StatusCode, "POST %s", path)
	return res.Header.Get("Location")
}

func (c *client) login(username, password string) {
	c.t.Helper()
	loc := c.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(c.t, "/tasks", loc)
	require.Contains(c.t, c.cookies, auth.SessionCookie)
}

// userID resolves the client's session to its user id.
func (c *client) userID() string {
	c.t.Helper()
	ck, ok := c.cookies[auth.SessionCookie]
	require.True(c.t, ok)
	id, err := c.app.auth.Resolve(context.Background(), ck.Value)
	require.NoError(c.t, err)
	require.NotEmpty(c.t, id)
	return id
}

func TestRootRedirectsToTasks(t *testing.T) {
	app := newTestApp(t, nil)
	res := app.client(t).do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/tasks", res.Header.Get("Location"))
}

func TestTaskLifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)
	ctx := context.Background()

	status, body := c.get("/tasks/add")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `name="task"`)

	loc := c.post("/tasks/add", url.Values{"task": {"Buy eggs"}, "alarm": {"2024-05-01T09:00"}})
	assert.Equal(t, "/tasks", loc)

	status, body = c.get("/tasks")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Buy eggs")
	assert.Contains(t, body, "Task added.")

	list, err := app.tasks.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID.Hex()
	require.NotNil(t, list[0].Alarm)

	status, body = c.get("/tasks/single-task/" + id)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Task is undone")

	status, body = c.get("/tasks/edit/" + id)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `value="2024-05-01T09:00"`)

	loc = c.post("/tasks/edit/"+id, url.Values{
		"_method": {"PUT"}, "task": {"Buy more eggs"}, "check": {"on"}, "alarm": {"2024-05-01T09:00"},
	})
	assert.Equal(t, "/tasks", loc)

	updated, err := app.tasks.Get(ctx, "", id)
	require.NoError(t, err)
	assert.Equal(t, "Buy more eggs", updated.Text)
	assert.True(t, updated.Completed)
	assert.Nil(t, updated.Alarm)

	status, body = c.get("/tasks/single-task/" + id)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Task is done")

	c.post("/tasks/toggle/"+id, url.Values{})
	toggled, err := app.tasks.Get(ctx, "", id)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	loc = c.post("/tasks/delete/"+id, url.Values{"_method": {"DELETE"}})
	assert.Equal(t, "/tasks", loc)

	status, _ = c.get("/tasks/single-task/" + id)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTaskSearch(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)
	for _, text := range []string{"Boil eggs", "Walk dog", "Scramble EGGS"} {
		c.post("/tasks/add", url.Values{"task": {text}})
	}

	status, body := c.get("/tasks/search?query=eggs")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Boil eggs")
	assert.Contains(t, body, "Scramble EGGS")
	assert.NotContains(t, body, "Walk dog")

	_, body = c.get("/tasks/search?query=2")
	assert.Contains(t, body, "Walk dog")
	assert.NotContains(t, body, "Boil eggs")

	_, body = c.get("/tasks/search?query=7")
	assert.Contains(t, body, "No tasks found.")
}

func TestTaskValidationFlashes(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)

	loc := c.post("/tasks/add", url.Values{"task": {"   "}})
	assert.Equal(t, "/tasks/add", loc)

	_, body := c.get("/tasks/add")
	assert.Contains(t, body, "task: this field cannot be blank")

	list, err := app.tasks.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTaskNotFound(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)

	for _, path := range []string{
		"/tasks/single-task/64b000000000000000000000",
		"/tasks/edit/not-an-id",
		"/no/such/page",
	} {
		status, body := c.get(path)
		assert.Equal(t, http.StatusNotFound, status, path)
		assert.Contains(t, body, "does not exist", path)
	}

	res := c.do(http.MethodDelete, "/tasks/delete/64b000000000000000000000", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// a missing id wins over invalid form input
	res = c.do(http.MethodPost, "/tasks/edit/64b000000000000000000000", url.Values{"_method": {"PUT"}, "task": {" "}})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res = c.do(http.MethodPost, "/timetable/edit/64b000000000000000000000", url.Values{"_method": {"PUT"}, "subject": {""}})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRegisterRejectsLongPassword(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)

	// 40 characters, 80 bytes
	loc := c.post("/register", url.Values{"username": {"alice"}, "password": {strings.Repeat("é", 40)}})
	assert.Equal(t, "/register", loc)
	_, body := c.get("/register")
	assert.Contains(t, body, "password: must be at most 72 bytes")

	assert.Equal(t, "/login", c.post("/register", url.Values{"username": {"alice"}, "password": {strings.Repeat("é", 36)}}))
	c.login("alice", strings.Repeat("é", 36))
}

func TestAuthAndOwnership(t *testing.T) {
	app := newTestApp(t, nil)
	alice := app.client(t)
	bob := app.client(t)
	anon := app.client(t)

	assert.Equal(t, "/login", alice.post("/register", url.Values{"username": {"alice"}, "password": {"pw"}}))
	assert.Equal(t, "/register", bob.post("/register", url.Values{"username": {"alice"}, "password": {"pw2"}}))
	_, body := bob.get("/register")
	assert.Contains(t, body, "username is already taken")
	assert.Equal(t, "/login", bob.post("/register", url.Values{"username": {"bob"}, "password": {"pw"}}))

	assert.Equal(t, "/login", alice.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}}))
	_, body = alice.get("/login")
	assert.Contains(t, body, "invalid username or password")
	assert.Equal(t, "/login", alice.post("/login", url.Values{"username": {"nobody"}, "password": {"pw"}}))
	_, body = alice.get("/login")
	assert.Contains(t, body, "invalid username or password")

	alice.login("alice", "pw")
	bob.login("bob", "pw")

	alice.post("/tasks/add", url.Values{"task": {"Alice secret plan"}})
	anon.post("/tasks/add", url.Values{"task": {"Anonymous note"}})

	_, body = alice.get("/tasks")
	assert.Contains(t, body, "Alice secret plan")
	assert.NotContains(t, body, "Anonymous note")

	_, body = bob.get("/tasks")
	assert.NotContains(t, body, "Alice secret plan")
	assert.Contains(t, body, "No tasks found.")

	_, body = anon.get("/tasks")
	assert.NotContains(t, body, "Alice secret plan")
	assert.Contains(t, body, "Anonymous note")

	_, body = bob.get("/tasks/search?query=1")
	assert.NotContains(t, body, "Alice secret plan")

	aliceTasks, err := app.tasks.List(context.Background(), alice.userID())
	require.NoError(t, err)
	require.Len(t, aliceTasks, 1)
	res := bob.do(http.MethodPost, "/tasks/edit/"+aliceTasks[0].ID.Hex(), url.Values{"_method": {"PUT"}, "task": {""}})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	assert.Equal(t, "/login", alice.post("/logout", url.Values{}))
	assert.NotContains(t, alice.cookies, auth.SessionCookie)
	_, body = alice.get("/tasks")
	assert.NotContains(t, body, "Alice secret plan")
}

func TestProfileRequiresLogin(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)

	res := c.do(http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))

	c.post("/register", url.Values{"username": {"carol"}, "password": {"pw"}})
	c.login("carol", "pw")

	assert.Equal(t, "/profile", c.post("/profile", url.Values{"name": {"Carol"}, "bio": {"Physics tutor"}}))
	status, body := c.get("/profile")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Carol")
	assert.Contains(t, body, "Physics tutor")
	assert.Contains(t, body, `name="picture"`)

	status, _ = c.get("/profile/picture")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestForgedSessionIsAnonymous(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)
	c.cookies[auth.SessionCookie] = &http.Cookie{Name: auth.SessionCookie, Value: "forged"}

	res := c.do(http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
}

func TestTimetableLifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)
	ctx := context.Background()

	status, body := c.get("/timetable/add")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Add class")

	loc := c.post("/timetable/add", url.Values{
		"subject": {"Biology"}, "day": {"Tuesday"}, "startTime": {"10:00"}, "endTime": {"11:00"},
	})
	assert.Equal(t, "/timetable", loc)

	status, body = c.get("/timetable")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Biology")
	assert.Contains(t, body, "Tuesday")

	classes, err := app.timetable.List(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	id := classes[0].ID.Hex()

	status, body = c.get("/timetable/edit/" + id)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Edit class")

	loc = c.post("/timetable/edit/"+id, url.Values{
		"_method": {"PUT"}, "subject": {"Biology"}, "day": {"Tuesday"}, "startTime": {"12:00"}, "endTime": {"11:00"},
	})
	assert.Equal(t, "/timetable/edit/"+id, loc)

	loc = c.post("/timetable/edit/"+id, url.Values{
		"_method": {"PUT"}, "subject": {"Zoology"}, "day": {"Thursday"}, "startTime": {"12:00"}, "endTime": {"13:00"},
	})
	assert.Equal(t, "/timetable", loc)
	got, err := app.timetable.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Zoology", got.Subject)

	assert.Equal(t, "/timetable", c.post("/timetable/delete/"+id, url.Values{"_method": {"DELETE"}}))
	status, _ = c.get("/timetable/edit/" + id)
	assert.Equal(t, http.StatusNotFound, status)
}

// failingTaskStore simulates a persistence outage.
type failingTaskStore struct {
	tasks.Store
}

func (failingTaskStore) List(context.Context, string) ([]models.Task, error) {
	return nil, apperr.Store("mongo find tasks", errors.New("connection refused to 10.0.0.7"))
}

func TestStoreErrorHidesDetails(t *testing.T) {
	app := newTestApp(t, failingTaskStore{store.NewMemoryTaskStore()})

	status, body := app.client(t).get("/tasks")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "10.0.0.7")
	assert.NotContains(t, body, "mongo")
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)

	status, body := c.get("/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	c.get("/tasks")
	status, body = c.get("/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `http_requests_total{method="GET",route=`)
}
