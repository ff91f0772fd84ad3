package companion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lorehaven/recap/internal/errortypes"
)

func TestDetectSuccess(t *testing.T) {
	var loginPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			w.Write([]byte(`{"status":"ok"}`))
		case strings.HasPrefix(r.URL.Path, "/login/web/"):
			loginPath = r.URL.Path
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST login, got %s", r.Method)
			}
			w.Write([]byte(`{"p2Key":"companion-key-123","expires":9999}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	d := NewDetector(srv.URL)
	key, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if key != "companion-key-123" {
		t.Errorf("Expected session key, got %q", key)
	}

	// The login path must carry the minted client id.
	if !strings.HasPrefix(loginPath, "/login/web/") || len(loginPath) <= len("/login/web/") {
		t.Errorf("Login path missing client id: %q", loginPath)
	}
}

func TestDetectAppNotRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := NewDetector(url)
	_, err := d.Detect(context.Background())
	if err == nil {
		t.Fatal("Expected error when companion app is unreachable")
	}
	if !errortypes.IsTransient(err) {
		t.Errorf("Expected transient error, got %v", err)
	}
}

func TestDetectMissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte("ok"))
			return
		}
		w.Write([]byte(`{"status":"logged in"}`))
	}))
	defer srv.Close()

	d := NewDetector(srv.URL)
	_, err := d.Detect(context.Background())
	if err == nil {
		t.Fatal("Expected error for response without p2Key")
	}
	if !errortypes.IsMalformed(err) {
		t.Errorf("Expected malformed response error, got %v", err)
	}
}

func TestDetectLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDetector(srv.URL)
	_, err := d.Detect(context.Background())
	if !errortypes.IsAuthentication(err) {
		t.Errorf("Expected authentication error, got %v", err)
	}
}

func TestDetectAsync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte("ok"))
			return
		}
		w.Write([]byte(`{"p2Key":"async-key"}`))
	}))
	defer srv.Close()

	done := make(chan string, 1)
	NewDetector(srv.URL).DetectAsync(context.Background(), func(key string, err error) {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		done <- key
	})

	if key := <-done; key != "async-key" {
		t.Errorf("Expected async-key, got %q", key)
	}
}
