package exchange

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nojima/litehttp-go/parser"
	"github.com/nojima/litehttp-go/request"
)

func TestSend(t *testing.T) {
	// Setup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "id=42" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if r.Header.Get("X-Trace") != "abc" {
			t.Errorf("unexpected header: %s", r.Header.Get("X-Trace"))
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	}))
	defer server.Close()

	req := request.New(server.URL+"/items", request.WithMethod(request.MethodPost)).
		AddParam("id", "42").
		AddHeader("X-Trace", "abc").
		AddBytes([]byte("payload"), "text/plain")

	// Exercise
	resp, err := Send(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	defer resp.Body.Close()

	// Verify
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if body := readAll(t, resp.Body); body != "payload" {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestSend_DoesNotFollowRedirectsByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := Send(context.Background(), request.New(server.URL+"/old"), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("unexpected status: expected=%d, actual=%d", http.StatusFound, resp.StatusCode)
	}

	resp, err = Send(context.Background(), request.New(server.URL+"/old"), &Options{FollowRedirects: true})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unexpected status: expected=%d, actual=%d", http.StatusOK, resp.StatusCode)
	}
}

// newFlakyServer closes the first drops connections as soon as they are accepted.
func newFlakyServer(t *testing.T, drops int32, handler http.Handler) (*httptest.Server, *int32) {
	var accepted int32
	server := httptest.NewUnstartedServer(handler)
	server.Config.ConnState = func(conn net.Conn, state http.ConnState) {
		if state == http.StateNew && atomic.AddInt32(&accepted, 1) <= drops {
			conn.Close()
		}
	}
	server.Start()
	t.Cleanup(server.Close)
	return server, &accepted
}

func TestSend_RetriesTransportErrors(t *testing.T) {
	// Setup
	bodies := make(chan string, 10)
	server, accepted := newFlakyServer(t, 2, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		w.WriteHeader(http.StatusOK)
	}))
	req := request.New(server.URL, request.WithMethod(request.MethodPut), request.WithMaxRetries(3)).
		AddString("again", "text/plain", "")

	// Exercise
	resp, err := Send(context.Background(), req, &Options{RetryInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	resp.Body.Close()

	// Verify
	if n := atomic.LoadInt32(accepted); n != 3 {
		t.Errorf("unexpected connection count: expected=3, actual=%d", n)
	}
	if len(bodies) != 1 {
		t.Fatalf("unexpected number of served requests: %d", len(bodies))
	}
	if body := <-bodies; body != "again" {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestSend_GivesUpAfterMaxRetries(t *testing.T) {
	server, accepted := newFlakyServer(t, 100, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := request.New(server.URL, request.WithMaxRetries(1))

	_, err := Send(context.Background(), req, nil)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if n := atomic.LoadInt32(accepted); n != 2 {
		t.Errorf("unexpected connection count: expected=2, actual=%d", n)
	}
}

func TestSend_Abort(t *testing.T) {
	// Setup
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	req := request.New(server.URL, request.WithMaxRetries(5))
	done := make(chan error, 1)

	// Exercise
	go func() {
		_, err := Send(context.Background(), req, nil)
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	req.Abort()

	// Verify
	select {
	case err := <-done:
		if err == nil {
			t.Errorf("expected an error after abort")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Send did not return after abort")
	}
}

func TestReceive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/latin1":
			w.Header().Set("Content-Type", "text/plain; charset=ISO-8859-1")
			w.Write([]byte{'c', 'a', 'f', 0xe9})
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": 7}`))
		}
	}))
	defer server.Close()

	_, v, err := Receive(context.Background(), request.New(server.URL+"/latin1"), nil)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if v != "café" {
		t.Errorf("unexpected value: %v", v)
	}

	var target struct {
		ID int `json:"id"`
	}
	req := request.New(server.URL+"/json", request.WithParser(&parser.JSONParser{Target: &target}))
	if _, _, err := Receive(context.Background(), req, nil); err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if target.ID != 7 {
		t.Errorf("unexpected id: %d", target.ID)
	}
}

func TestResponseCharset(t *testing.T) {
	testCases := []struct {
		contentType string
		expected    string
	}{
		{contentType: "text/html; charset=Shift_JIS", expected: "Shift_JIS"},
		{contentType: "application/json", expected: "UTF-8"},
		{contentType: "", expected: "UTF-8"},
	}
	for _, tt := range testCases {
		resp := &http.Response{Header: http.Header{"Content-Type": []string{tt.contentType}}}
		if actual := responseCharset(resp, "UTF-8"); !strings.EqualFold(actual, tt.expected) {
			t.Errorf("unexpected charset for %q: expected=%s, actual=%s", tt.contentType, tt.expected, actual)
		}
	}
}
