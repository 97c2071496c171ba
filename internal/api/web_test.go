package api

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/brandlens/brandlens/internal/mentions"
	"github.com/brandlens/brandlens/internal/resultlog"
	"github.com/brandlens/brandlens/internal/session"
)

// testEnv wires a fake mention backend, a session manager, and the UI
// router into an httptest server with a cookie-carrying client.
type testEnv struct {
	ui           *httptest.Server
	client       *http.Client
	backendCalls *atomic.Int64
}

func newTestEnv(t *testing.T, backend http.HandlerFunc) *testEnv {
	t.Helper()

	var calls atomic.Int64
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		backend(w, r)
	}))
	t.Cleanup(backendSrv.Close)

	log, err := resultlog.Open()
	if err != nil {
		t.Fatalf("opening result log: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	deps := WebDeps{
		Sessions: session.NewManager(mentions.New(backendSrv.URL), log),
		CSRFKey:  []byte("test-key-0123456789abcdef0123456"),
	}
	router, err := newRouter(deps)
	if err != nil {
		t.Fatalf("building router: %v", err)
	}

	uiSrv := httptest.NewServer(router)
	t.Cleanup(uiSrv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}
	client := uiSrv.Client()
	client.Jar = jar

	return &testEnv{ui: uiSrv, client: client, backendCalls: &calls}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.ui.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

// submit posts the form and follows the redirect back to the index page.
func (e *testEnv) submit(t *testing.T, prompt, brand string) string {
	t.Helper()
	resp, err := e.client.PostForm(e.ui.URL+"/submit", url.Values{
		"prompt": {prompt},
		"brand":  {brand},
	})
	if err != nil {
		t.Fatalf("POST /submit: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(body)
}

func jsonBackend(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestSubmitFlow_Success(t *testing.T) {
	env := newTestEnv(t, jsonBackend(`{"prompt":"Best CRM?","brand":"Acme","mentioned":true,"position":3}`))

	body := env.submit(t, "Best CRM?", "Acme")

	if env.backendCalls.Load() != 1 {
		t.Errorf("backend called %d times, want 1", env.backendCalls.Load())
	}
	if !strings.Contains(body, "<td>Best CRM?</td>") {
		t.Errorf("results table missing prompt row:\n%s", body)
	}
	if !strings.Contains(body, "<td>Yes</td>") || !strings.Contains(body, "<td>3</td>") {
		t.Errorf("results table missing mentioned/position cells:\n%s", body)
	}
	if strings.Contains(body, `class="banner"`) {
		t.Error("banner should be clear after a successful submission")
	}
	// Draft cleared: the textarea is empty again.
	if !strings.Contains(body, "></textarea>") {
		t.Error("draft prompt should be cleared after a completed attempt")
	}
}

func TestSubmitFlow_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, jsonBackend(`{}`))

	body := env.submit(t, "   ", "Acme")

	if env.backendCalls.Load() != 0 {
		t.Errorf("backend called %d times, want 0", env.backendCalls.Load())
	}
	if !strings.Contains(body, "Please enter both a prompt and a brand name") {
		t.Errorf("missing validation banner:\n%s", body)
	}
	// Draft preserved for correction.
	if !strings.Contains(body, `value="Acme"`) {
		t.Error("brand draft should survive a validation failure")
	}
}

func TestSubmitFlow_BackendError(t *testing.T) {
	env := newTestEnv(t, jsonBackend(`{"error":"rate limited"}`))

	body := env.submit(t, "p", "b")

	if !strings.Contains(body, "rate limited") {
		t.Errorf("missing backend error banner:\n%s", body)
	}
	if strings.Contains(body, "<table") {
		t.Error("an error-only response should not add a table row")
	}
	// Draft cleared on a classified error.
	if strings.Contains(body, `value="b"`) {
		t.Error("brand draft should be cleared after a backend error")
	}
}

func TestSubmitFlow_MentionError(t *testing.T) {
	env := newTestEnv(t, jsonBackend(`{"prompt":"p","brand":"b","mentioned":false,"position":0,"raw":"API_ERROR"}`))

	body := env.submit(t, "p", "b")

	if !strings.Contains(body, "API Error: Service temporarily unavailable") {
		t.Errorf("missing upstream error banner:\n%s", body)
	}
	// The row still lands, with the dash display for the absent position.
	if !strings.Contains(body, "<td>p</td>") || !strings.Contains(body, "<td>-</td>") {
		t.Errorf("expected a table row with a dashed position:\n%s", body)
	}
}

func TestSubmitFlow_TransportFailure(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backendSrv.Close()

	log, err := resultlog.Open()
	if err != nil {
		t.Fatalf("opening result log: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	deps := WebDeps{
		Sessions: session.NewManager(mentions.New(backendSrv.URL), log),
		CSRFKey:  []byte("test-key-0123456789abcdef0123456"),
	}
	router, err := newRouter(deps)
	if err != nil {
		t.Fatalf("building router: %v", err)
	}
	uiSrv := httptest.NewServer(router)
	t.Cleanup(uiSrv.Close)
	jar, _ := cookiejar.New(nil)
	client := uiSrv.Client()
	client.Jar = jar
	env := &testEnv{ui: uiSrv, client: client}

	body := env.submit(t, "Best CRM?", "Acme")

	if !strings.Contains(body, "Could not reach the mention service") {
		t.Errorf("missing connectivity banner:\n%s", body)
	}
	// Draft preserved so the user can retry without retyping.
	if !strings.Contains(body, ">Best CRM?</textarea>") || !strings.Contains(body, `value="Acme"`) {
		t.Errorf("draft should be preserved on transport failure:\n%s", body)
	}
	if strings.Contains(body, "<table") {
		t.Error("no record should land on transport failure")
	}
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t, jsonBackend(`{"prompt":"Best CRM?","brand":"Ac\"me","mentioned":true,"position":3}`))
	env.submit(t, "Best CRM?", `Ac"me`)

	resp, body := env.get(t, "/export.csv")

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "brand-mentions.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	want := "Prompt,Brand,Mentioned,Position\n\"Best CRM?\",\"Ac\"\"me\",Yes,3\n"
	if body != want {
		t.Errorf("csv body = %q, want %q", body, want)
	}
}

func TestExportCSV_EmptyLogNotice(t *testing.T) {
	env := newTestEnv(t, jsonBackend(`{}`))

	// The redirect lands back on the index page with the notice; no file.
	resp, body := env.get(t, "/export.csv")

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		t.Error("empty log should not produce a CSV file")
	}
	if !strings.Contains(body, "No results to export yet") {
		t.Errorf("missing empty-export notice:\n%s", body)
	}
}

func TestCSRFProtection(t *testing.T) {
	log, err := resultlog.Open()
	if err != nil {
		t.Fatalf("opening result log: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	deps := WebDeps{
		Sessions: session.NewManager(mentions.New("http://127.0.0.1:0"), log),
		CSRFKey:  []byte("test-key-0123456789abcdef0123456"),
	}
	handler, err := NewWebHandler(deps)
	if err != nil {
		t.Fatalf("building handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resp, err := srv.Client().PostForm(srv.URL+"/submit", url.Values{
		"prompt": {"p"},
		"brand":  {"b"},
	})
	if err != nil {
		t.Fatalf("POST /submit: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("POST without CSRF token: status = %d, want 403", resp.StatusCode)
	}
}
