package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/kbukum/deferhttp/capability"
	"github.com/kbukum/deferhttp/deferred"
	apperrors "github.com/kbukum/deferhttp/errors"
	"github.com/kbukum/deferhttp/testutil"
	"github.com/kbukum/deferhttp/transport"
)

type recordingBase struct {
	rest   *capability.Options
	closes int
	err    error
	// transportOpen is sampled when Close runs.
	transportOpen func() bool
	sawOpen       bool
}

func (b *recordingBase) Close(context.Context) error {
	b.closes++
	if b.transportOpen != nil {
		b.sawOpen = b.transportOpen()
	}
	return b.err
}

func recordingFactory(b *recordingBase) BaseFactory {
	return func(rest *capability.Options) (Base, error) {
		b.rest = rest
		return b, nil
	}
}

func newSession(t *testing.T, srv *testutil.Server, opts ...Option) *Session {
	t.Helper()
	s, err := New(capability.NewOptions("base_url", srv.URL()), NoBase, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestSession_EndToEnd(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newSession(t, srv)
	ctx := context.Background()

	root, err := s.Request(ctx, "GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}
	if text, err := root.Text(ctx); err != nil || text != "GET" {
		t.Errorf("GET / text = %q, %v", text, err)
	}

	failed, err := s.Request(ctx, "GET", "/error", nil)
	if err != nil {
		t.Fatal(err)
	}
	if is400, err := failed.Status().Equals(ctx, 400); err != nil || !is400 {
		t.Errorf("GET /error status == 400 = %v, %v", is400, err)
	}
	if text, err := failed.Text(ctx); err != nil || text != "" {
		t.Errorf("GET /error text = %q, %v; want empty without raising", text, err)
	}

	js, err := s.Request(ctx, "GET", "/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := js.JSON(ctx, &got); err != nil || got == nil || len(got) != 0 {
		t.Errorf("GET /json = %v, %v", got, err)
	}
}

func TestSession_InvalidArgumentsNeverDispatch(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newSession(t, srv)

	_, err := s.Request(context.Background(), "GET", "/", capability.NewOptions(
		"stream", true,
		"hooks", nil,
		"verify", false,
	))
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument) {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	keys, _ := appErr.Details["keys"].([]string)
	if len(keys) != 3 || keys[0] != "hooks" || keys[1] != "stream" || keys[2] != "verify" {
		t.Errorf("expected sorted offending keys, got %v", keys)
	}
	if srv.TotalHits() != 0 {
		t.Errorf("no request may reach the server, got %d hits", srv.TotalHits())
	}
}

func TestSession_UndecodableValue(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newSession(t, srv)
	_, err := s.Get(context.Background(), "/", capability.NewOptions("timeout", "soon"))
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument) {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Error("decode failure should be kept as the cause")
	}
	if srv.TotalHits() != 0 {
		t.Error("no request may reach the server")
	}
}

func TestSession_VerbsEchoMethod(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newSession(t, srv)
	ctx := context.Background()

	verbs := map[string]func(context.Context, string, *capability.Options) (*deferred.Response, error){
		http.MethodGet:     s.Get,
		http.MethodOptions: s.Options,
		http.MethodPost:    s.Post,
		http.MethodPut:     s.Put,
		http.MethodPatch:   s.Patch,
		http.MethodDelete:  s.Delete,
	}
	for method, call := range verbs {
		t.Run(method, func(t *testing.T) {
			resp, err := call(ctx, "/", nil)
			if err != nil {
				t.Fatal(err)
			}
			if text, err := resp.Text(ctx); err != nil || text != method {
				t.Errorf("%s text = %q, %v", method, text, err)
			}
		})
	}

	head, err := s.Head(ctx, "/", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := head.Status().Equals(ctx, http.StatusOK); err != nil || !ok {
		t.Errorf("HEAD status = %v, %v", ok, err)
	}
	if text, _ := head.Text(ctx); text != "" {
		t.Errorf("HEAD must have no body, got %q", text)
	}
}

func TestSession_RequestOptionsReachTransport(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newSession(t, srv)
	ctx := context.Background()

	resp, err := s.Post(ctx, "/echo", capability.NewOptions(
		"params", map[string]string{"q": "1"},
		"json", map[string]int{"n": 2},
		"headers", map[string]any{"X-Trace": "abc"},
		"timeout", "5s",
	))
	if err != nil {
		t.Fatal(err)
	}
	var echo struct {
		Method  string            `json:"method"`
		Query   map[string]string `json:"query"`
		Headers map[string]string `json:"headers"`
		Body    string            `json:"body"`
	}
	if err := resp.JSON(ctx, &echo); err != nil {
		t.Fatal(err)
	}
	if echo.Method != "POST" || echo.Query["q"] != "1" || echo.Headers["X-Trace"] != "abc" || echo.Body != `{"n":2}` {
		t.Errorf("unexpected echo %+v", echo)
	}
}

func TestSession_PolicyAndModes(t *testing.T) {
	srv := testutil.StartServer(t)
	ctx := context.Background()

	optIn := newSession(t, srv)
	resp, _ := optIn.Get(ctx, "/status/500", nil)
	resp.RaiseForStatus(deferred.AppErrorPolicy("upstream"))
	if _, err := resp.Text(ctx); !apperrors.IsCode(err, apperrors.ErrCodeExternalService) {
		t.Errorf("registered policy should translate, got %v", err)
	}

	always := newSession(t, srv, WithErrorMode(deferred.Always))
	if always.ErrorMode() != deferred.Always {
		t.Fatal("error mode not applied")
	}
	resp, _ = always.Get(ctx, "/error", nil)
	if _, err := resp.Text(ctx); transport.StatusOf(err) != 400 {
		t.Errorf("always mode should raise the status error, got %v", err)
	}
}

func TestSession_ConflictingConstructorArgument(t *testing.T) {
	srv := testutil.StartServer(t)
	base := &recordingBase{}
	s, err := New(capability.NewOptions(
		"base_url", srv.URL(),
		"version", "legacy",
		"transport_version", "1.1",
		"retries", 3,
	), recordingFactory(base))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(context.Background())

	if got := s.Client().Options().Version; got != transport.HTTP11 {
		t.Errorf("transport version = %q, want 1.1", got)
	}
	if v, _ := base.rest.Get("version"); v != "legacy" {
		t.Errorf("base should receive version=legacy, got %v", v)
	}
	if keys := base.rest.Keys(); len(keys) != 2 || keys[0] != "version" || keys[1] != "retries" {
		t.Errorf("base received %v", keys)
	}
	if s.Base() != Base(base) {
		t.Error("Base() should return the factory's base")
	}
}

func TestSession_NoBaseRejectsLeftovers(t *testing.T) {
	_, err := New(capability.NewOptions("base_url", "http://localhost", "stream", true), NoBase)
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument) {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestSession_FactoryError(t *testing.T) {
	boom := errors.New("base failed")
	_, err := New(capability.NewOptions(), func(*capability.Options) (Base, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestSession_InvalidTransportOptions(t *testing.T) {
	if _, err := New(capability.NewOptions("version", "3"), nil); err == nil {
		t.Error("expected validation error for version 3")
	}
	if _, err := New(capability.NewOptions("limit", "many"), nil); !apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument) {
		t.Errorf("expected INVALID_ARGUMENT for undecodable limit, got %v", err)
	}
}

func TestSession_CloseOrder(t *testing.T) {
	srv := testutil.StartServer(t)
	baseErr := errors.New("base close")
	base := &recordingBase{err: baseErr}
	s, err := New(capability.NewOptions("base_url", srv.URL()), recordingFactory(base))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	base.transportOpen = func() bool { return s.Client().IsAvailable(ctx) }

	if err := s.Close(ctx); !errors.Is(err, baseErr) {
		t.Errorf("Close should report the base error, got %v", err)
	}
	if base.sawOpen {
		t.Error("transport must be closed before the base")
	}
	if err := s.Close(ctx); !errors.Is(err, baseErr) || base.closes != 1 {
		t.Errorf("Close must be idempotent, closes=%d", base.closes)
	}
	if _, err := s.Get(ctx, "/", nil); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("requests after Close should fail, got %v", err)
	}
}

func TestSession_NotSupported(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newSession(t, srv)

	calls := map[string]func() error{
		"PrepareRequest": func() error { _, err := s.PrepareRequest(nil); return err },
		"Send":           func() error { _, err := s.Send(nil); return err },
		"ResolveRedirects": func() error {
			_, err := s.ResolveRedirects(nil, nil)
			return err
		},
		"GetRedirectTarget": func() error { _, err := s.GetRedirectTarget(nil); return err },
		"RebuildAuth":       func() error { return s.RebuildAuth(nil, nil) },
		"RebuildMethod":     func() error { return s.RebuildMethod(nil, nil) },
		"RebuildProxies":    func() error { _, err := s.RebuildProxies(nil, nil); return err },
		"MergeEnvironmentSettings": func() error {
			_, err := s.MergeEnvironmentSettings("", nil)
			return err
		},
		"Mount":         func() error { return s.Mount("https://", nil) },
		"GetAdapter":    func() error { _, err := s.GetAdapter(""); return err },
		"Enter":         func() error { _, err := s.Enter(); return err },
		"Exit":          s.Exit,
		"MarshalJSON":   func() error { _, err := s.MarshalJSON(); return err },
		"UnmarshalJSON": func() error { return s.UnmarshalJSON(nil) },
		"GobEncode":     func() error { _, err := s.GobEncode(); return err },
		"GobDecode":     func() error { return s.GobDecode(nil) },
	}
	for op, call := range calls {
		t.Run(op, func(t *testing.T) {
			err := call()
			if !apperrors.IsCode(err, apperrors.ErrCodeNotSupported) {
				t.Fatalf("expected NOT_SUPPORTED, got %v", err)
			}
			appErr, _ := apperrors.AsAppError(err)
			if appErr.Details["operation"] != op {
				t.Errorf("operation detail = %v", appErr.Details["operation"])
			}
		})
	}

	if _, err := json.Marshal(s); !apperrors.IsCode(err, apperrors.ErrCodeNotSupported) {
		t.Errorf("json.Marshal should refuse, got %v", err)
	}
	if srv.TotalHits() != 0 {
		t.Error("unsupported operations must not reach the server")
	}
}
