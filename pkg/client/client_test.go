package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

type testItem struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig(server.URL)
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func writeEnvelope(w http.ResponseWriter, status, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, _ := json.Marshal(data)
	json.NewEncoder(w).Encode(Envelope{Code: code, Message: message, RequestID: "req-1", Data: raw})
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{name: "valid config", config: DefaultConfig("http://localhost:8000")},
		{name: "empty base url", config: Config{Timeout: time.Second}, expectError: true},
		{name: "unsupported scheme", config: Config{BaseURL: "ftp://host", Timeout: time.Second}, expectError: true},
		{name: "zero timeout", config: Config{BaseURL: "http://localhost"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)
			if (err != nil) != tt.expectError {
				t.Fatalf("New() error = %v, expectError %v", err, tt.expectError)
			}
			if !tt.expectError && c == nil {
				t.Fatal("New() returned nil client")
			}
		})
	}
}

func TestClient_Get_Success(t *testing.T) {
	var gotQuery url.Values
	var gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/jobs" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		gotRequestID = r.Header.Get("X-Request-ID")
		writeEnvelope(w, http.StatusOK, 0, "ok", []testItem{{ID: 1, Title: "Go Engineer"}})
	}, 0)

	var items []testItem
	err := c.Get(context.Background(), "/api/v1/jobs", url.Values{"city": {"Shenzhen"}}, &items)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(items) != 1 || items[0].Title != "Go Engineer" {
		t.Errorf("items = %+v", items)
	}
	if gotQuery.Get("city") != "Shenzhen" {
		t.Errorf("query = %v", gotQuery)
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID header not sent")
	}
}

func TestClient_Get_Failures(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantClass ErrorClass
		wantCode  int
		wantMsg   string
	}{
		{
			name: "non-zero code with 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, 40001, "source disabled", nil)
			},
			wantClass: ErrorClassApplication,
			wantCode:  40001,
			wantMsg:   "source disabled",
		},
		{
			name: "404 envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusNotFound, 40401, "Job not found: 9", nil)
			},
			wantClass: ErrorClassClient,
			wantCode:  40401,
			wantMsg:   "Job not found: 9",
		},
		{
			name: "500 envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusInternalServerError, 50000, "Internal server error", nil)
			},
			wantClass: ErrorClassServer,
			wantCode:  50000,
			wantMsg:   "Internal server error",
		},
		{
			name: "422 without envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				io.WriteString(w, `{"detail":[{"loc":["query","page"],"msg":"bad"}]}`)
			},
			wantClass: ErrorClassValidation,
			wantMsg:   "Unprocessable Entity",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `<html>gateway</html>`)
			},
			wantClass: ErrorClassProtocol,
			wantMsg:   "malformed response envelope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler, 0)

			var out []testItem
			err := c.Get(context.Background(), "/api/v1/jobs", nil, &out)
			apiErr, ok := AsAPIError(err)
			if !ok {
				t.Fatalf("Get() error = %v, want *APIError", err)
			}
			if apiErr.Class != tt.wantClass {
				t.Errorf("Class = %q, want %q", apiErr.Class, tt.wantClass)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", apiErr.Code, tt.wantCode)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestClient_Get_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)

	start := time.Now()
	err := c.Get(context.Background(), "/api/v1/jobs", nil, nil)
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("Get() error = %v, want *APIError", err)
	}
	if apiErr.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want network", apiErr.Class)
	}
	if !apiErr.Timeout() {
		t.Errorf("Timeout() = false, err = %v", apiErr)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("request took %v, timeout not enforced", elapsed)
	}
}

func TestClient_Get_Cancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := c.Get(ctx, "/api/v1/jobs", nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Get() error = %v, want context.Canceled", err)
	}
	if apiErr, _ := AsAPIError(err); apiErr == nil || apiErr.Timeout() {
		t.Errorf("cancelled request should not report timeout: %v", err)
	}
}

func TestClient_Post_NoRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		writeEnvelope(w, http.StatusServiceUnavailable, 50300, "try later", nil)
	}, 0)

	err := c.Post(context.Background(), "/api/v1/orders", map[string]string{"phone": "13800000000"}, nil)
	if err == nil {
		t.Fatal("Post() expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server received %d calls, want exactly 1", n)
	}
}

func TestClient_Post_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		writeEnvelope(w, http.StatusOK, 0, "created", map[string]any{"id": 11, "order_no": "SO-1"})
	}, 0)

	var out struct {
		ID      int    `json:"id"`
		OrderNo string `json:"order_no"`
	}
	if err := c.Post(context.Background(), "/api/v1/orders", map[string]string{"user_name": "Li"}, &out); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if out.ID != 11 || out.OrderNo != "SO-1" {
		t.Errorf("out = %+v", out)
	}
}
