package testutil_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/kbukum/deferhttp/component"
	"github.com/kbukum/deferhttp/testutil"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestServer_Routes(t *testing.T) {
	srv := testutil.StartServer(t)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "GET"},
		{"/error", http.StatusBadRequest, ""},
		{"/json", http.StatusOK, "{}"},
		{"/status/418", http.StatusTeapot, ""},
		{"/redirect/2", http.StatusOK, "GET"},
		{"/slow?delay=1ms", http.StatusOK, "slow"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			status, body := get(t, srv.URL()+tc.path)
			if status != tc.status || body != tc.body {
				t.Errorf("GET %s = %d %q, want %d %q", tc.path, status, body, tc.status, tc.body)
			}
		})
	}
}

func TestServer_RootEchoesMethod(t *testing.T) {
	srv := testutil.StartServer(t)
	req, _ := http.NewRequest(http.MethodPatch, srv.URL()+"/", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if body, _ := io.ReadAll(resp.Body); string(body) != http.MethodPatch {
		t.Errorf("body = %q", body)
	}
}

func TestServer_Echo(t *testing.T) {
	srv := testutil.StartServer(t)
	resp, err := http.Post(srv.URL()+"/echo?a=1", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got struct {
		Method string            `json:"method"`
		Query  map[string]string `json:"query"`
		Body   string            `json:"body"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Method != http.MethodPost || got.Query["a"] != "1" || got.Body != "hello" {
		t.Errorf("unexpected echo %+v", got)
	}
}

func TestServer_HitsResetSnapshotRestore(t *testing.T) {
	srv := testutil.StartServer(t)
	h := testutil.T(t)

	get(t, srv.URL()+"/")
	get(t, srv.URL()+"/")
	get(t, srv.URL()+"/json")
	if srv.Hits("/") != 2 || srv.TotalHits() != 3 {
		t.Fatalf("hits = %d / %d", srv.Hits("/"), srv.TotalHits())
	}

	snap := h.Snapshot(srv)
	h.Reset(srv)
	if srv.TotalHits() != 0 {
		t.Errorf("expected no hits after reset, got %d", srv.TotalHits())
	}
	h.Restore(srv, snap)
	if srv.Hits("/") != 2 {
		t.Errorf("expected restored hits, got %d", srv.Hits("/"))
	}
	if err := srv.Restore(context.Background(), "bogus"); err == nil {
		t.Error("expected error for foreign snapshot")
	}
}

func TestServer_Lifecycle(t *testing.T) {
	srv := testutil.NewServer()
	if srv.URL() != "" || srv.Health(context.Background()).Status != component.StatusUnhealthy {
		t.Error("server should be down before Start")
	}
	cleanup, err := testutil.Setup(srv)
	if err != nil {
		t.Fatal(err)
	}
	if srv.Health(context.Background()).Status != component.StatusHealthy {
		t.Error("server should be healthy after Start")
	}
	if err := cleanup(); err != nil {
		t.Fatal(err)
	}
	if srv.URL() != "" {
		t.Error("server should be down after Stop")
	}
}

func TestManager_OrderAndReset(t *testing.T) {
	ctx := context.Background()
	m := testutil.NewManager(ctx)
	a, b := testutil.NewServer(), testutil.NewServer()
	m.Add(a)
	m.Add(b)

	if err := m.StartAll(); err != nil {
		t.Fatal(err)
	}
	if m.Get("testutil.server") != a {
		t.Error("Get should return the first match")
	}
	get(t, a.URL()+"/")
	if err := m.ResetAll(); err != nil {
		t.Fatal(err)
	}
	if a.TotalHits() != 0 {
		t.Error("ResetAll should reset test components")
	}
	for _, h := range m.Health() {
		if h.Status != component.StatusHealthy {
			t.Errorf("unexpected health %+v", h)
		}
	}
	if err := m.StopAll(); err != nil {
		t.Fatal(err)
	}
	if a.URL() != "" || b.URL() != "" {
		t.Error("StopAll should stop every component")
	}
	if m.Get("missing") != nil {
		t.Error("expected nil for unknown name")
	}
}
