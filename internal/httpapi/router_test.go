package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/ingest"
	"jobfinder-engine/internal/store"
	"jobfinder-engine/internal/validate"
)

const testSecret = "cron-secret-for-tests"

func testConfig() config.Config {
	var cfg config.Config
	cfg.App.Port = 38471
	cfg.Search.Queries = []string{"site:jobs.lever.co engineer"}
	cfg.Search.IntervalSeconds = 21600
	cfg.Validation.IntervalSeconds = 3600
	cfg.Validation.TimeoutSeconds = 5
	return cfg
}

func testDeps(t *testing.T) Deps {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatal(err)
	}

	cfgVal := &atomic.Value{}
	cfgVal.Store(testConfig())
	statusVal := &atomic.Value{}
	statusVal.Store(CronStatus{})

	return Deps{
		DB:          db,
		Hub:         events.NewHub(),
		CfgVal:      cfgVal,
		StatusVal:   statusVal,
		UserCfgPath: filepath.Join(t.TempDir(), "config.yml"),
		LoadCfg:     func() (config.Config, error) { return testConfig(), nil },
		CronSecret:  func() string { return testSecret },
		RunSearch: func(ctx context.Context, queries []string) ingest.Report {
			return ingest.Report{QueriesRun: len(queries), JobsAdded: 3, Errors: []string{}}
		},
		RunValidation: func(ctx context.Context) (validate.Report, error) {
			return validate.Report{JobsChecked: 7, JobsRemoved: 2, DuplicatesRemoved: 1, Errors: []string{}}, nil
		},
		RunMailScan: func(ctx context.Context) (ingest.MailReport, error) {
			return ingest.MailReport{MessagesScanned: 4, JobsAdded: 1, Errors: []string{}}, nil
		},
	}
}

func addJob(t *testing.T, d Deps, title, link, source string) int64 {
	t.Helper()
	added, err := store.InsertJobIgnore(context.Background(), d.DB, store.Job{
		Title: title, Link: link, Source: source,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Fatalf("duplicate insert for %s", link)
	}
	jobs, err := store.ListAll(context.Background(), d.DB)
	if err != nil {
		t.Fatal(err)
	}
	for _, j := range jobs {
		if j.Link == link {
			return j.ID
		}
	}
	t.Fatalf("inserted job not found: %s", link)
	return 0
}

func doReq(mux *http.ServeMux, method, path, token, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

// decodeCronError asserts the /cron/* failure shape: a definite
// success:false plus a plain error string.
func decodeCronError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body %s: %v", w.Body.String(), err)
	}
	if resp.Success == nil || *resp.Success {
		t.Errorf("body %s: success is not false", w.Body.String())
	}
	if resp.Error == "" {
		t.Errorf("body %s: missing error message", w.Body.String())
	}
	return resp.Error
}

func TestCronAuth(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	mux := NewMux(d)

	w := doReq(mux, http.MethodGet, "/cron/validate-jobs", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}
	decodeCronError(t, w)

	if w := doReq(mux, http.MethodGet, "/cron/validate-jobs", "wrong", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d", w.Code)
	}

	d.CronSecret = func() string { return "" }
	unset := NewMux(d)
	w = doReq(unset, http.MethodGet, "/cron/validate-jobs", testSecret, "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("unset secret: status = %d", w.Code)
	}
	decodeCronError(t, w)
}

func TestCronValidateJobsFailureShape(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	d.RunValidation = func(ctx context.Context) (validate.Report, error) {
		return validate.Report{}, errors.New("board index fetch failed")
	}
	mux := NewMux(d)

	w := doReq(mux, http.MethodGet, "/cron/validate-jobs", testSecret, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if msg := decodeCronError(t, w); !strings.Contains(msg, "board index fetch failed") {
		t.Errorf("error = %q", msg)
	}

	st := d.StatusVal.Load().(CronStatus)
	if st.Validate.LastError == "" || st.Validate.Running {
		t.Errorf("status not updated: %+v", st.Validate)
	}
}

func TestCronValidateJobs(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	mux := NewMux(d)

	w := doReq(mux, http.MethodGet, "/cron/validate-jobs", testSecret, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success           bool     `json:"success"`
		JobsChecked       int      `json:"jobsChecked"`
		JobsRemoved       int      `json:"jobsRemoved"`
		DuplicatesRemoved int      `json:"duplicatesRemoved"`
		Errors            []string `json:"errors"`
		Timestamp         string   `json:"timestamp"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.JobsChecked != 7 || resp.JobsRemoved != 2 || resp.DuplicatesRemoved != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Timestamp == "" {
		t.Error("missing timestamp")
	}

	st := d.StatusVal.Load().(CronStatus)
	if st.Validate.LastOkAt == "" || st.Validate.Running {
		t.Errorf("status not updated: %+v", st.Validate)
	}
}

func TestCronSearchJobs(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	var gotQueries []string
	d.RunSearch = func(ctx context.Context, queries []string) ingest.Report {
		gotQueries = queries
		return ingest.Report{QueriesRun: len(queries), JobsAdded: 2, Errors: []string{}}
	}
	mux := NewMux(d)

	w := doReq(mux, http.MethodGet, "/cron/search-jobs", testSecret, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if len(gotQueries) != 1 {
		t.Errorf("queries passed = %v", gotQueries)
	}
}

func TestCronScanEmailDisabled(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	mux := NewMux(d)

	w := doReq(mux, http.MethodGet, "/cron/scan-email", testSecret, "")
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 when email disabled", w.Code)
	}
	decodeCronError(t, w)
}

func TestJobsListAndDelete(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	id := addJob(t, d, "Engineer", "https://jobs.lever.co/acme/1", "lever.co")
	addJob(t, d, "Designer", "https://jobs.ashbyhq.com/acme/2", "ashby")
	mux := NewMux(d)

	w := doReq(mux, http.MethodGet, "/jobs", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var jobs []store.Job
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d", len(jobs))
	}

	ch := d.Hub.Subscribe()
	defer d.Hub.Unsubscribe(ch)

	w = doReq(mux, http.MethodDelete, "/jobs/"+itoa(id), "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d body = %s", w.Code, w.Body.String())
	}

	select {
	case msg := <-ch:
		if !strings.Contains(msg, events.TypeJobDeleted) {
			t.Errorf("event = %s", msg)
		}
	case <-time.After(time.Second):
		t.Error("no job_deleted event")
	}

	left, err := store.ListAll(context.Background(), d.DB)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 {
		t.Errorf("remaining = %d", len(left))
	}
}

func TestJobsSetApplied(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	id := addJob(t, d, "Engineer", "https://jobs.lever.co/acme/1", "lever.co")
	mux := NewMux(d)

	w := doReq(mux, http.MethodPost, "/jobs/"+itoa(id)+"/applied", "", `{"applied":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	jobs, err := store.ListAll(context.Background(), d.DB)
	if err != nil {
		t.Fatal(err)
	}
	if !jobs[0].Applied {
		t.Error("applied flag not persisted")
	}
}

func TestJobsByPlatform(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	addJob(t, d, "A", "https://jobs.ashbyhq.com/acme/1", "ashby")
	addJob(t, d, "B", "https://jobs.lever.co/acme/2", "lever.co")
	mux := NewMux(d)

	w := doReq(mux, http.MethodGet, "/jobs/platform/ashby", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var jobs []store.Job
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].Source != "ashby" {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestJobsDeleteInvalid(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	id1 := addJob(t, d, "A", "https://jobs.ashbyhq.com/acme/1", "ashby")
	id2 := addJob(t, d, "B", "https://jobs.lever.co/acme/2", "lever.co")
	mux := NewMux(d)

	body := `{"ids":[` + itoa(id1) + `,` + itoa(id2) + `]}`

	if w := doReq(mux, http.MethodPost, "/jobs/invalid", "", body); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", w.Code)
	}

	w := doReq(mux, http.MethodPost, "/jobs/invalid", testSecret, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	left, err := store.ListAll(context.Background(), d.DB)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("remaining = %d", len(left))
	}
}

func TestConfigGetAndPut(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	mux := NewMux(d)

	w := doReq(mux, http.MethodGet, "/config", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var cur config.Config
	if err := json.Unmarshal(w.Body.Bytes(), &cur); err != nil {
		t.Fatal(err)
	}

	cur.App.Port = 38475
	b, _ := json.Marshal(cur)
	w = doReq(mux, http.MethodPut, "/config", "", string(b))
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d body = %s", w.Code, w.Body.String())
	}

	// Invalid config is rejected with structured errors.
	cur.App.Port = -1
	b, _ = json.Marshal(cur)
	w = doReq(mux, http.MethodPut, "/config", "", string(b))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid put status = %d", w.Code)
	}
	var vr config.Validation
	if err := json.Unmarshal(w.Body.Bytes(), &vr); err != nil {
		t.Fatal(err)
	}
	if len(vr.Errors) == 0 {
		t.Error("expected validation errors")
	}

	// Unknown fields are rejected.
	w = doReq(mux, http.MethodPut, "/config", "", `{"bogus": true}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d", w.Code)
	}
}

func TestSecretsUnknownName(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	mux := NewMux(d)

	if w := doReq(mux, http.MethodPost, "/secrets/nope", "", `{"value":"x"}`); w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	mux := NewMux(d)

	w := doReq(mux, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "true") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestEventsSSEPing(t *testing.T) {
	t.Parallel()

	d := testDeps(t)
	mux := NewMux(d)

	ctx, cancel := context.WithCancel(context.Background())
	r := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		mux.ServeHTTP(w, r)
		close(done)
	}()

	// The handler writes the ping immediately, then blocks on the context.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, `"type":"ping"`) {
		t.Errorf("body = %s", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %s", ct)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
