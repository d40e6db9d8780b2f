package trigger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDispatchValidation(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		gotEvent = body["event_type"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	g := NewGitHub(srv.Client(), "tok", "someone/jobfinder")
	g.baseURL = srv.URL

	if err := g.DispatchValidation(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/repos/someone/jobfinder/dispatches" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotEvent != "validate-jobs" {
		t.Errorf("event_type = %q", gotEvent)
	}
}

func TestDispatchValidationErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad creds", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGitHub(srv.Client(), "tok", "someone/jobfinder")
	g.baseURL = srv.URL

	if err := g.DispatchValidation(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	if NewGitHub(nil, "", "r").Configured() {
		t.Error("missing token should not be configured")
	}
	if NewGitHub(nil, "t", "").Configured() {
		t.Error("missing repo should not be configured")
	}
	if !NewGitHub(nil, "t", "o/r").Configured() {
		t.Error("token and repo should be configured")
	}
}
