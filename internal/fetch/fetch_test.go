package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetReturnsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := NewClient(nil)
	res, err := c.Get(context.Background(), srv.URL, DefaultTimeout)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	if res.Body != "<html>ok</html>" {
		t.Fatalf("body = %q", res.Body)
	}
}

func TestGetSkipsBodyOnHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(nil)
	res, err := c.Get(context.Background(), srv.URL, DefaultTimeout)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if res.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", res.StatusCode)
	}
	if res.Body != "" {
		t.Fatalf("expected empty body for error status, got %q", res.Body)
	}
}

func TestGetTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(nil)
	_, err := c.Get(context.Background(), srv.URL, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Fatalf("IsTimeout(%v) = false, want true", err)
	}
}

func TestPlainRendererDelegates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rendered"))
	}))
	defer srv.Close()

	r := PlainRenderer{Client: NewClient(nil)}
	res, err := r.Render(context.Background(), srv.URL, ".marker", DefaultTimeout)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if res.Body != "rendered" {
		t.Fatalf("body = %q", res.Body)
	}
}
