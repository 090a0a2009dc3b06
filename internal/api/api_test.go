package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/identity-admin-api/internal/config"
	"github.com/identity-admin-api/internal/mocks"
	"github.com/identity-admin-api/internal/models"
	"github.com/identity-admin-api/internal/repository"
	"github.com/identity-admin-api/internal/service"
	"github.com/rs/zerolog"
)

type testServer struct {
	router  *gin.Engine
	client  *mocks.MockIdentityClient
	svc     *service.Services
	account string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Accounts: config.AccountsConfig{FilePath: filepath.Join(t.TempDir(), "accounts.json")},
		Identity: config.IdentityConfig{RequestTimeout: 2 * time.Second},
		Import: config.ImportConfig{
			TickInterval:      10 * time.Millisecond,
			PausePollInterval: 5 * time.Millisecond,
			MaxInputBytes:     1024,
		},
	}

	repos, err := repository.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}

	account := &models.Account{Name: "test", Domain: "tenant.example.com", APIToken: "tok"}
	if err := repos.Account.Create(account); err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}

	client := mocks.NewMockIdentityClient()
	svc := service.NewServices(repos, client, cfg, zerolog.Nop())

	return &testServer{
		router:  NewRouter(svc, repos, cfg, zerolog.Nop()),
		client:  client,
		svc:     svc,
		account: account.ID,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) waitForStatus(t *testing.T, want models.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if ts.svc.Job.Snapshot(ts.account).Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Job never reached status %s, got %s", want, ts.svc.Job.Snapshot(ts.account).Status)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v\nbody: %s", err, w.Body.String())
	}
	return body
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body := decode(t, w); body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
}

func TestCreateAndListAccounts(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/accounts",
		`{"name":"prod","domain":"prod.example.com","api_token":"secret-token"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode(t, w)
	if created["id"] == "" || created["id"] == nil {
		t.Error("Expected a generated account id")
	}
	if _, leaked := created["api_token"]; leaked {
		t.Error("Create response must not echo the api token")
	}

	w = ts.do(t, http.MethodGet, "/v1/accounts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["count"].(float64) != 2 {
		t.Errorf("Expected 2 accounts, got %v", body["count"])
	}
	for _, raw := range body["accounts"].([]interface{}) {
		account := raw.(map[string]interface{})
		if _, leaked := account["api_token"]; leaked {
			t.Errorf("List response must redact api tokens, got %v", account)
		}
	}
}

func TestCreateAccountValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/accounts", `{"name":"prod"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing fields, got %d", w.Code)
	}
}

func TestStartImportLifecycle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/start",
		`{"users":"a@x.com,A,One\nb@x.com,B,Two"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	ts.waitForStatus(t, models.JobStatusCompleted)

	w = ts.do(t, http.MethodGet, "/v1/accounts/"+ts.account+"/import", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decode(t, w)
	job := body["job"].(map[string]interface{})
	if job["status"] != "completed" {
		t.Errorf("Expected completed status, got %v", job["status"])
	}
	if job["success_count"].(float64) != 2 {
		t.Errorf("Expected 2 successes, got %v", job["success_count"])
	}
	if body["total_records"].(float64) != 2 {
		t.Errorf("Expected total_records 2, got %v", body["total_records"])
	}
	if body["progress_line"] != "100%" {
		t.Errorf("Expected progress line 100%%, got %v", body["progress_line"])
	}
}

func TestStartImportUnknownAccount(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/accounts/missing/import/start", `{"users":"a@x.com,A"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestStartImportNoValidRecords(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/start", `{"users":"garbage"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStartImportInputTooLarge(t *testing.T) {
	ts := newTestServer(t)

	users := strings.Repeat("a@x.com,A\n", 200) // past the 1KB test cap
	payload, _ := json.Marshal(map[string]string{"users": users})
	w := ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/start", string(payload))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestPauseWhenIdle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/pause", "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPauseResumeStopOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.client.SubmitDelay = 30 * time.Millisecond

	users := `{"users":"a@x.com,A\nb@x.com,B\nc@x.com,C\nd@x.com,D"}`
	if w := ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/start", users); w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}

	w := ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/pause", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if job := decode(t, w)["job"].(map[string]interface{}); job["status"] != "paused" {
		t.Errorf("Expected paused status in response, got %v", job["status"])
	}

	w = ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/resume", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	ts.waitForStatus(t, models.JobStatusStopped)
}

func TestUpdateSettings(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/v1/accounts/"+ts.account+"/import/settings",
		`{"pending_input":"a@x.com,A","send_invites":true,"delay_seconds":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	job := decode(t, w)["job"].(map[string]interface{})
	settings := job["settings"].(map[string]interface{})
	if settings["delay_seconds"].(float64) != 3 {
		t.Errorf("Expected delay 3, got %v", settings["delay_seconds"])
	}
	if settings["send_invites"] != true {
		t.Errorf("Expected send_invites true, got %v", settings["send_invites"])
	}

	w = ts.do(t, http.MethodPatch, "/v1/accounts/"+ts.account+"/import/settings", `{"delay_seconds":-2}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for negative delay, got %d", w.Code)
	}
}

func TestExportResultsJSONAndCSV(t *testing.T) {
	ts := newTestServer(t)
	ts.client.FailEmails["b@x.com"] = "duplicate"

	ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/start",
		`{"users":"a@x.com,A\nb@x.com,B"}`)
	ts.waitForStatus(t, models.JobStatusCompleted)

	w := ts.do(t, http.MethodGet, "/v1/accounts/"+ts.account+"/import/results?outcome=failure", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["count"].(float64) != 1 {
		t.Errorf("Expected 1 failure, got %v", body["count"])
	}

	w = ts.do(t, http.MethodGet, "/v1/accounts/"+ts.account+"/import/results?format=csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected CSV content type, got %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "email,status,message,external_id" {
		t.Errorf("Unexpected CSV header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "b@x.com,failure,duplicate") {
		t.Errorf("Unexpected failure row: %q", lines[2])
	}

	w = ts.do(t, http.MethodGet, "/v1/accounts/"+ts.account+"/import/results?outcome=bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown outcome, got %d", w.Code)
	}
}

func TestSendPasswordResets(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/password-resets",
		`{"emails":["a@x.com","b@x.com"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["count"].(float64) != 2 {
		t.Errorf("Expected 2 results, got %v", body["count"])
	}

	w = ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/password-resets", `{"emails":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty list, got %d", w.Code)
	}
}

func TestEmailTemplateRoundtrip(t *testing.T) {
	ts := newTestServer(t)
	ts.client.Templates["welcome"] = json.RawMessage(`{"subject":"Hi"}`)

	w := ts.do(t, http.MethodGet, "/v1/accounts/"+ts.account+"/email-templates/welcome", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"subject":"Hi"}` {
		t.Errorf("Unexpected template body: %s", got)
	}

	w = ts.do(t, http.MethodPut, "/v1/accounts/"+ts.account+"/email-templates/welcome",
		`{"subject":"Welcome aboard"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := string(ts.client.Templates["welcome"]); got != `{"subject":"Welcome aboard"}` {
		t.Errorf("Template was not updated, got %s", got)
	}
}

func TestDeleteAccount(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodDelete, "/v1/accounts/"+ts.account, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}

	w = ts.do(t, http.MethodDelete, "/v1/accounts/"+ts.account, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on repeat delete, got %d", w.Code)
	}
}

func TestDeleteAccountWithActiveJob(t *testing.T) {
	ts := newTestServer(t)
	ts.client.SubmitDelay = 50 * time.Millisecond

	ts.do(t, http.MethodPost, "/v1/accounts/"+ts.account+"/import/start",
		`{"users":"a@x.com,A\nb@x.com,B"}`)

	w := ts.do(t, http.MethodDelete, "/v1/accounts/"+ts.account, "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 while a job is active, got %d", w.Code)
	}

	ts.waitForStatus(t, models.JobStatusCompleted)
}
