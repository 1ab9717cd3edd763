// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/deskchat/internal/backend"
	"github.com/jeranaias/deskchat/internal/config"
)

// fakeAsker returns a fixed response or error and records what it was asked.
type fakeAsker struct {
	mu   sync.Mutex
	resp *backend.AskResponse
	err  error
	reqs []backend.AskRequest
}

func (f *fakeAsker) Ask(_ context.Context, req backend.AskRequest) (*backend.AskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeAsker) requests() []backend.AskRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.AskRequest(nil), f.reqs...)
}

func testConfig() Config {
	cfg := config.Default()
	c := ConfigFrom(cfg)
	c.RateLimit = 0
	return c
}

func newTestServer(t *testing.T, cfg Config, asker *fakeAsker) *Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return New(cfg, asker, logger)
}

func get(t *testing.T, h http.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func post(t *testing.T, h http.Handler, cookie *http.Cookie, question string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"question": {question}}
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", config.DefaultCookieName)
	return nil
}

func TestIndex_StartsSession(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeAsker{})
	h := srv.Handler()

	rec := get(t, h, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	c := sessionCookie(t, rec)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 1, srv.Sessions().Len())

	body := rec.Body.String()
	assert.Contains(t, body, config.Default().UI.Title)
	assert.Contains(t, body, "No questions yet.")
	assert.Contains(t, body, `name="question"`)

	// Returning with the cookie keeps the same session.
	rec = get(t, h, c)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 1, srv.Sessions().Len())
}

func TestAsk_Success(t *testing.T) {
	asker := &fakeAsker{resp: &backend.AskResponse{Answer: "Try **rebooting**.", Sources: []string{"doc1.pdf"}}}
	srv := newTestServer(t, testConfig(), asker)
	h := srv.Handler()
	c := sessionCookie(t, get(t, h, nil))

	rec := post(t, h, c, "  printer offline  ")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	reqs := asker.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "printer offline", reqs[0].Question)
	assert.Equal(t, c.Value, reqs[0].SessionID)

	body := get(t, h, c).Body.String()
	assert.Contains(t, body, "printer offline")
	assert.Contains(t, body, "<strong>rebooting</strong>")
	assert.Contains(t, body, "<li>doc1.pdf</li>")
	assert.NotContains(t, body, "No questions yet.")
	assert.Less(t, strings.Index(body, "printer offline"), strings.Index(body, "rebooting"))
}

func TestAsk_EmptyQuestionNotSent(t *testing.T) {
	asker := &fakeAsker{resp: &backend.AskResponse{Answer: "unused"}}
	srv := newTestServer(t, testConfig(), asker)
	h := srv.Handler()
	c := sessionCookie(t, get(t, h, nil))

	for _, q := range []string{"", "   ", "\t\n"} {
		rec := post(t, h, c, q)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	}
	assert.Empty(t, asker.requests())
	assert.Contains(t, get(t, h, c).Body.String(), "No questions yet.")
}

func TestAsk_FailureKeepsTranscript(t *testing.T) {
	asker := &fakeAsker{resp: &backend.AskResponse{Answer: "first answer"}}
	srv := newTestServer(t, testConfig(), asker)
	h := srv.Handler()
	c := sessionCookie(t, get(t, h, nil))

	require.Equal(t, http.StatusSeeOther, post(t, h, c, "first").Code)

	asker.mu.Lock()
	asker.err = &backend.ClientError{Type: backend.ErrTypeConnection, Message: "could not reach backend"}
	asker.mu.Unlock()

	rec := post(t, h, c, "second <question>")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `role="alert"`)
	assert.Contains(t, body, "Error contacting backend: could not reach backend")
	assert.Contains(t, body, `value="second &lt;question&gt;"`)
	assert.Contains(t, body, "first answer")

	handler, ok := srv.Sessions().Get(c.Value)
	require.True(t, ok)
	assert.Equal(t, 2, handler.Transcript().Len())
}

func TestAsk_InvalidCookieStartsNewSession(t *testing.T) {
	asker := &fakeAsker{resp: &backend.AskResponse{Answer: "ok"}}
	srv := newTestServer(t, testConfig(), asker)

	rec := post(t, srv.Handler(), &http.Cookie{Name: config.DefaultCookieName, Value: "not-a-uuid"}, "hi")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	c := sessionCookie(t, rec)
	assert.NotEqual(t, "not-a-uuid", c.Value)
	reqs := asker.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, c.Value, reqs[0].SessionID)
}

func TestSessionsAreIsolated(t *testing.T) {
	asker := &fakeAsker{resp: &backend.AskResponse{Answer: "answer for alice"}}
	srv := newTestServer(t, testConfig(), asker)
	h := srv.Handler()

	alice := sessionCookie(t, get(t, h, nil))
	bob := sessionCookie(t, get(t, h, nil))
	require.NotEqual(t, alice.Value, bob.Value)

	post(t, h, alice, "alice asks")

	assert.Contains(t, get(t, h, alice).Body.String(), "answer for alice")
	assert.NotContains(t, get(t, h, bob).Body.String(), "answer for alice")
}

func TestAsk_SanitizesAnswer(t *testing.T) {
	asker := &fakeAsker{resp: &backend.AskResponse{Answer: "hello <script>alert(1)</script> [x](javascript:alert(2))"}}
	srv := newTestServer(t, testConfig(), asker)
	h := srv.Handler()
	c := sessionCookie(t, get(t, h, nil))

	post(t, h, c, "q")
	body := get(t, h, c).Body.String()
	assert.Contains(t, body, "hello")
	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, "javascript:")
}

func TestAsk_KeepsAngleBracketTokens(t *testing.T) {
	asker := &fakeAsker{resp: &backend.AskResponse{Answer: "Press <Ctrl>+<Alt>+<Del>, then sign in as <your-username>."}}
	srv := newTestServer(t, testConfig(), asker)
	h := srv.Handler()
	c := sessionCookie(t, get(t, h, nil))

	rec := post(t, h, c, "how do I lock <Ctrl>?")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := get(t, h, c).Body.String()
	assert.Contains(t, body, "&lt;Ctrl&gt;+&lt;Alt&gt;+&lt;Del&gt;")
	assert.Contains(t, body, "&lt;your-username&gt;")
	assert.Contains(t, body, "how do I lock &lt;Ctrl&gt;?")
}

func TestWriteTimeout(t *testing.T) {
	assert.Equal(t, minWriteTimeout, writeTimeout(0))
	assert.Equal(t, minWriteTimeout, writeTimeout(60*time.Second))
	assert.Equal(t, 330*time.Second, writeTimeout(300*time.Second))

	cfg := config.Default()
	cfg.Backend.TimeoutSecs = 600
	c := ConfigFrom(cfg)
	assert.Equal(t, 600*time.Second, c.BackendTimeout)
	assert.Greater(t, writeTimeout(c.BackendTimeout), c.BackendTimeout)
}

func TestAsk_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	asker := &fakeAsker{resp: &backend.AskResponse{Answer: "ok"}}
	srv := newTestServer(t, cfg, asker)
	h := srv.Handler()
	c := sessionCookie(t, get(t, h, nil))

	assert.Equal(t, http.StatusSeeOther, post(t, h, c, "one").Code)
	assert.Equal(t, http.StatusSeeOther, post(t, h, c, "two").Code)

	rec := post(t, h, c, "three")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Len(t, asker.requests(), 2)

	// The page itself is not limited.
	assert.Equal(t, http.StatusOK, get(t, h, c).Code)
}

func TestSetBackend(t *testing.T) {
	first := &fakeAsker{resp: &backend.AskResponse{Answer: "from first"}}
	second := &fakeAsker{resp: &backend.AskResponse{Answer: "from second"}}
	srv := newTestServer(t, testConfig(), first)
	h := srv.Handler()
	c := sessionCookie(t, get(t, h, nil))

	post(t, h, c, "a")
	srv.SetBackend(second)
	post(t, h, c, "b")

	assert.Len(t, first.requests(), 1)
	assert.Len(t, second.requests(), 1)
	body := get(t, h, c).Body.String()
	assert.Contains(t, body, "from first")
	assert.Contains(t, body, "from second")
}

func TestApplyConfig(t *testing.T) {
	var (
		mu  sync.Mutex
		got backend.AskRequest
	)
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		json.NewDecoder(r.Body).Decode(&got)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"reloaded"}`))
	}))
	defer backendSrv.Close()

	srv := newTestServer(t, testConfig(), &fakeAsker{err: backend.ErrBackendUnavailable})
	h := srv.Handler()
	c := sessionCookie(t, get(t, h, nil))

	cfg := config.Default()
	cfg.Backend.URL = backendSrv.URL
	cfg.UI.Title = "Reloaded Desk"
	srv.ApplyConfig(cfg)

	require.Equal(t, http.StatusSeeOther, post(t, h, c, "after reload").Code)
	mu.Lock()
	assert.Equal(t, "after reload", got.Question)
	mu.Unlock()

	body := get(t, h, c).Body.String()
	assert.Contains(t, body, "Reloaded Desk")
	assert.Contains(t, body, "reloaded")
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeAsker{})
	h := srv.Handler()
	get(t, h, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Sessions)
}

func TestSecurityHeadersAndStatic(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeAsker{})
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestListenAndServe_Shutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := newTestServer(t, cfg, &fakeAsker{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per IP")
	assert.Equal(t, time.Second, rl.Interval())
	assert.Equal(t, 0, rl.Cleanup())

	off := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, off.Allow("10.0.0.1"))
	}
	assert.Equal(t, "1", retryAfter(off.Interval()))
}
