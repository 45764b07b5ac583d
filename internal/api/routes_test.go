package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/servertask/internal/api/middleware"
	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/mocks"
	"github.com/phrazzld/servertask/internal/platform/memory"
	"github.com/phrazzld/servertask/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "demo-user"

type testServer struct {
	server     *httptest.Server
	store      *memory.TaskStore
	issuer     *mocks.MockURLIssuer
	recognizer *mocks.MockRecognizer
}

type serverOptions struct {
	taskOpts []service.TaskServiceOption
	identity *middleware.IdentityMiddleware
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := &testServer{
		store:      memory.NewTaskStore(),
		issuer:     &mocks.MockURLIssuer{},
		recognizer: &mocks.MockRecognizer{},
	}

	tasks := service.NewTaskService(ts.store, log, opts.taskOpts...)
	attachments := service.NewAttachmentService(
		ts.store,
		ts.issuer,
		ts.recognizer,
		service.AnalysisOptions{MaxLabels: 5, MinConfidence: 70},
		log,
	)

	identity := opts.identity
	if identity == nil {
		identity = middleware.NewStaticIdentity(testUserID)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.TraceMiddleware)
	RegisterRoutes(r, NewTaskHandler(tasks, log), NewAttachmentHandler(attachments, log), identity)

	ts.server = httptest.NewServer(r)
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, ts.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func decodeTask(t *testing.T, data []byte) domain.Task {
	t.Helper()
	var task domain.Task
	require.NoError(t, json.Unmarshal(data, &task))
	return task
}

// stepClock returns a clock that advances by one second per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t, serverOptions{
		taskOpts: []service.TaskServiceOption{
			service.WithClock(stepClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))),
		},
	})

	status, body := ts.do(t, http.MethodPost, "/tasks", `{"title":"A","description":"x","status":"DONE"}`)
	require.Equal(t, http.StatusCreated, status)
	created := decodeTask(t, body)
	assert.NotEmpty(t, created.TaskID)
	assert.Equal(t, testUserID, created.UserID)
	assert.Equal(t, domain.TaskStatusPending, created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.NotContains(t, string(body), "imageLabels")

	status, body = ts.do(t, http.MethodGet, "/tasks/"+created.TaskID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created, decodeTask(t, body))

	status, body = ts.do(t, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, status)
	var listed []domain.Task
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.TaskID, listed[0].TaskID)

	status, body = ts.do(t, http.MethodPut, "/tasks/"+created.TaskID, `{"title":"B","status":"DONE"}`)
	require.Equal(t, http.StatusOK, status)
	updated := decodeTask(t, body)
	assert.Equal(t, "B", updated.Title)
	assert.Empty(t, updated.Description, "omitted fields are overwritten")
	assert.Equal(t, "DONE", updated.Status)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Greater(t, updated.UpdatedAt, created.UpdatedAt)

	status, body = ts.do(t, http.MethodDelete, "/tasks/"+created.TaskID, "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, body)

	status, body = ts.do(t, http.MethodDelete, "/tasks/"+created.TaskID, "")
	assert.Equal(t, http.StatusNoContent, status, "deleting twice succeeds")
	assert.Empty(t, body)

	status, body = ts.do(t, http.MethodGet, "/tasks/"+created.TaskID, "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{}`, string(body))
}

func TestListTasksEmpty(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	status, body := ts.do(t, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestListTasksIsScopedToCaller(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	other, err := domain.NewTask("other-task", "someone-else", domain.TaskFields{Title: "hidden"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, ts.store.Create(context.Background(), other))

	status, body := ts.do(t, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = ts.do(t, http.MethodGet, "/tasks/other-task", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{}`, string(body))
}

func TestUpdateMissingTask(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	status, body := ts.do(t, http.MethodPut, "/tasks/missing", `{"title":"B"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"message":"Task not found"}`, string(body))
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	status, body := ts.do(t, http.MethodPost, "/tasks", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, status)

	var envelope map[string]string
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "Invalid request format", envelope["message"])
	assert.NotEmpty(t, envelope["error"])

	status, _ = ts.do(t, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateTaskIDCollision(t *testing.T) {
	ts := newTestServer(t, serverOptions{
		taskOpts: []service.TaskServiceOption{
			service.WithIDGenerator(func() string { return "fixed-id" }),
		},
	})

	status, body := ts.do(t, http.MethodPost, "/tasks", `{"title":"first"}`)
	require.Equal(t, http.StatusCreated, status)
	first := decodeTask(t, body)

	status, body = ts.do(t, http.MethodPost, "/tasks", `{"title":"second"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), `"message":"Task already exists"`)

	status, body = ts.do(t, http.MethodGet, "/tasks/fixed-id", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first, decodeTask(t, body), "existing task must not be merged")
}

func TestPresign(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	status, body := ts.do(t, http.MethodPost, "/tasks/presign", `{"fileName":"cat.png","fileType":"image/png"}`)
	require.Equal(t, http.StatusOK, status)

	var resp PresignResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Contains(t, resp.UploadURL, "cat.png")
	assert.Equal(t, "image/png", ts.issuer.LastContentType)

	status, body = ts.do(t, http.MethodPost, "/tasks/presign", `{"fileName":"cat.png"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "fileType is required")

	ts.issuer.Err = errors.New("no credentials in chain")
	status, body = ts.do(t, http.MethodPost, "/tasks/presign", `{"fileName":"cat.png","fileType":"image/png"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, string(body), `"message":"Internal server error"`)
	assert.Contains(t, string(body), "no credentials in chain")
}

func TestProcessImage(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	_, body := ts.do(t, http.MethodPost, "/tasks", `{"title":"photo"}`)
	task := decodeTask(t, body)

	ts.recognizer.Labels = []domain.Label{
		{Name: "Dog", Confidence: 98.2},
		{Name: "Blur", Confidence: 51},
		{Name: "Pet", Confidence: 97.9},
	}

	status, body := ts.do(t, http.MethodPost, "/tasks/"+task.TaskID+"/process-image", `{"imageKey":"dog.jpg"}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t,
		`{"labels":[{"name":"Dog","confidence":98.2},{"name":"Pet","confidence":97.9}]}`,
		string(body))

	_, body = ts.do(t, http.MethodGet, "/tasks/"+task.TaskID, "")
	stored := decodeTask(t, body)
	assert.Len(t, stored.ImageLabels, 2)
	assert.Greater(t, stored.UpdatedAt, task.UpdatedAt)
}

func TestProcessImageFailures(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	_, body := ts.do(t, http.MethodPost, "/tasks", `{"title":"photo"}`)
	task := decodeTask(t, body)
	path := "/tasks/" + task.TaskID + "/process-image"

	status, body := ts.do(t, http.MethodPost, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "imageKey is required")

	status, body = ts.do(t, http.MethodPost, "/tasks/missing/process-image", `{"imageKey":"dog.jpg"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"message":"Task not found"}`, string(body))

	ts.recognizer.Err = domain.ErrAttachmentUnavailable
	status, _ = ts.do(t, http.MethodPost, path, `{"imageKey":"gone.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	ts.recognizer.Err = errors.New("ThrottlingException")
	status, body = ts.do(t, http.MethodPost, path, `{"imageKey":"dog.jpg"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, string(body), "ThrottlingException")

	_, body = ts.do(t, http.MethodGet, "/tasks/"+task.TaskID, "")
	assert.Empty(t, decodeTask(t, body).ImageLabels, "failed analysis must not write labels")
}

func TestRouteNotFound(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/nowhere"},
		{http.MethodPatch, "/tasks"},
		{http.MethodPut, "/tasks"},
		{http.MethodPatch, "/tasks/abc"},
		{http.MethodGet, "/tasks/abc/process-image"},
		{http.MethodGet, "/tasks/presign"},
		{http.MethodDelete, "/tasks/presign"},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			status, body := ts.do(t, tc.method, tc.path, "")
			assert.Equal(t, http.StatusNotFound, status)
			assert.JSONEq(t, `{"message":"Route not found"}`, string(body))
		})
	}

	status, body := ts.do(t, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body), "unmatched routes have no side effect")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, serverOptions{})

	status, body := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestJWTIdentityIsRequired(t *testing.T) {
	ts := newTestServer(t, serverOptions{identity: middleware.NewJWTIdentity(&mocks.MockJWTService{})})

	status, body := ts.do(t, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"message":"Authorization header required"}`, string(body))

	status, _ = ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
}
