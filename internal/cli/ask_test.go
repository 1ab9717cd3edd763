// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/deskchat/internal/backend"
	"github.com/jeranaias/deskchat/internal/chat"
	"github.com/jeranaias/deskchat/internal/config"
)

type testStreams struct {
	Streams
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestStreams(stdin string) testStreams {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	s := Streams{Out: out, Err: errOut, InTTY: true}
	if stdin != "" {
		s.In = strings.NewReader(stdin)
		s.InTTY = false
	}
	return testStreams{Streams: s, out: out, err: errOut}
}

// fakeBackend answers every question with the given JSON body and records
// the requests it saw.
func fakeBackend(t *testing.T, status int, body string) (*httptest.Server, func() []backend.AskRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []backend.AskRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req backend.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			mu.Lock()
			seen = append(seen, req)
			mu.Unlock()
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []backend.AskRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]backend.AskRequest(nil), seen...)
	}
}

func testConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Backend.URL = url
	cfg.Backend.TimeoutSecs = 2
	return cfg
}

func TestRunAsk_PrintsMarkdown(t *testing.T) {
	srv, seen := fakeBackend(t, http.StatusOK, `{"answer":"X","sources":["doc1.pdf"]}`)
	s := newTestStreams("")

	err := RunAsk(context.Background(), Args{Query: "where is the doc?"}, testConfig(srv.URL), s.Streams)
	require.NoError(t, err)

	out := s.out.String()
	assert.Contains(t, out, "**You:** where is the doc?")
	assert.Contains(t, out, "**Bot:** X")
	assert.Contains(t, out, "- doc1.pdf")

	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "where is the doc?", reqs[0].Question)
	assert.NotEmpty(t, reqs[0].SessionID)
}

func TestRunAsk_ReadsPipedStdin(t *testing.T) {
	srv, seen := fakeBackend(t, http.StatusOK, `{"answer":"Reboot it."}`)
	s := newTestStreams("printer is offline\n")

	err := RunAsk(context.Background(), Args{Quiet: true}, testConfig(srv.URL), s.Streams)
	require.NoError(t, err)

	assert.Equal(t, "Reboot it.\n", s.out.String())
	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "printer is offline", reqs[0].Question)
}

func TestRunAsk_EmptyQuestion(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for _, stdin := range []string{"", "  \n"} {
		s := newTestStreams(stdin)
		err := RunAsk(context.Background(), Args{}, testConfig(srv.URL), s.Streams)
		assert.ErrorIs(t, err, chat.ErrEmptyQuestion)
		assert.Equal(t, ExitUsageError, GetExitCode(err))
		assert.Contains(t, s.err.String(), "no question given")
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestRunAsk_BackendFailure(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusInternalServerError, `oops`)
	s := newTestStreams("")

	err := RunAsk(context.Background(), Args{Query: "vpn"}, testConfig(srv.URL), s.Streams)
	require.Error(t, err)
	assert.Equal(t, ExitBackendUnavailable, GetExitCode(err))
	assert.Empty(t, s.out.String())
	assert.Contains(t, s.err.String(), "Error contacting backend: backend returned 500")
}

func TestRunAsk_JSON(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusOK, `{"answer":"X","sources":["doc1.pdf"]}`)
	s := newTestStreams("")

	err := RunAsk(context.Background(), Args{Query: "q", JSON: true}, testConfig(srv.URL), s.Streams)
	require.NoError(t, err)

	var resp struct {
		Success bool    `json:"success"`
		Command string  `json:"command"`
		Error   *string `json:"error"`
		Data    AskData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(s.out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ask", resp.Command)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "X", resp.Data.Answer)
	assert.Equal(t, []string{"doc1.pdf"}, resp.Data.Sources)
	assert.NotEmpty(t, resp.Data.SessionID)
	assert.Equal(t, srv.URL, resp.Data.Endpoint)
}

func TestRunAsk_JSONFailure(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusOK, `{"sources":[]}`)
	s := newTestStreams("")

	err := RunAsk(context.Background(), Args{Query: "q", JSON: true}, testConfig(srv.URL), s.Streams)
	require.Error(t, err)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(s.out.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "missing answer")
}

func TestRunAsk_NoSourcesIsEmptyList(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusOK, `{"answer":"ok"}`)
	s := newTestStreams("")

	require.NoError(t, RunAsk(context.Background(), Args{Query: "q", JSON: true}, testConfig(srv.URL), s.Streams))
	assert.Contains(t, s.out.String(), `"sources": []`)
}
