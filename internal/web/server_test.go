package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songcatalog/internal/config"
	"songcatalog/internal/discography"
	"songcatalog/internal/logger"
	"songcatalog/internal/pipeline"
)

type stubSource struct {
	block chan struct{}
}

func (stubSource) Name() string { return "stub" }

func (s stubSource) Discography(ctx context.Context, artist string) (discography.Discography, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return discography.Discography{}, ctx.Err()
		}
	}
	if artist != "Queen" {
		return discography.Discography{Artist: artist}, nil
	}
	return discography.Discography{
		Artist: artist,
		Albums: []discography.Album{{
			Title:  "Hot Space",
			Tracks: []discography.Track{{Title: "Under Pressure", Lyrics: "Pressure pushing down on me"}},
		}},
	}, nil
}

func newTestServer(t *testing.T, src stubSource, withCatalog bool) *httptest.Server {
	t.Helper()
	log := logger.NewWithWriter(io.Discard, false)

	cfg := config.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.LyricSources = []string{"stub"}
	if withCatalog {
		cfg.CatalogPath = filepath.Join(t.TempDir(), "catalog.sqlite3")
	}

	deps, err := pipeline.Setup(cfg, log, pipeline.WithSources(src), pipeline.WithStore(discography.NewMemoryStore()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(NewServer(ctx, NewRunManager(), deps, log).Router())
	t.Cleanup(func() {
		cancel()
		srv.Close()
		deps.Close()
	})
	return srv
}

func postRun(t *testing.T, srv *httptest.Server, titles ...string) RunResponse {
	t.Helper()
	body, _ := json.Marshal(RunRequest{Titles: titles})
	resp, err := http.Post(srv.URL+"/api/runs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var run RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	return run
}

func getRun(t *testing.T, srv *httptest.Server, id string) RunResponse {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/runs/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	return run
}

func waitFinished(t *testing.T, srv *httptest.Server, id string) RunResponse {
	t.Helper()
	var run RunResponse
	require.Eventually(t, func() bool {
		run = getRun(t, srv, id)
		return run.Status.Finished()
	}, 5*time.Second, 10*time.Millisecond)
	return run
}

func TestCreateRunCompletes(t *testing.T) {
	srv := newTestServer(t, stubSource{}, true)

	created := postRun(t, srv, "Queen - Under Pressure", "Nobody - Lost Song", "  ")
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, 2, created.Titles)

	run := waitFinished(t, srv, created.ID)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 1, run.Matched)
	assert.Equal(t, 1, run.Unmatched)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 2, run.Progress)
	assert.NotEmpty(t, run.ErrorsAt)
	assert.NotNil(t, run.CompletedAt)

	resp, err := http.Get(srv.URL + "/api/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	var runs []RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Len(t, runs, 1)

	resp, err = http.Get(srv.URL + "/api/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	var catalog CatalogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalog))
	assert.Equal(t, int64(2), catalog.Songs)
	assert.Equal(t, []string{"Lost Song"}, catalog.Unmatched)
}

func TestCreateRunValidation(t *testing.T) {
	srv := newTestServer(t, stubSource{}, false)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"no titles", `{"titles":[]}`},
		{"blank titles", `{"titles":["", "  "]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/runs", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestUnknownRunAndMissingCatalog(t *testing.T) {
	srv := newTestServer(t, stubSource{}, false)

	for _, path := range []string{"/api/runs/nope", "/api/catalog"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}

	resp, err := http.Post(srv.URL+"/api/runs/nope/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelRun(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	srv := newTestServer(t, stubSource{block: block}, false)

	created := postRun(t, srv, "Queen - Under Pressure")

	resp, err := http.Post(srv.URL+"/api/runs/"+created.ID+"/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	run := waitFinished(t, srv, created.ID)
	assert.Equal(t, StatusCancelled, run.Status)
}

func TestWebSocketStreamsUntilFinished(t *testing.T) {
	block := make(chan struct{})
	srv := newTestServer(t, stubSource{block: block}, false)

	created := postRun(t, srv, "Queen - Under Pressure")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?run_id=" + created.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	close(block)

	var last RunResponse
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg RunResponse
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		last = msg
	}
	assert.Equal(t, StatusCompleted, last.Status)
	assert.Equal(t, 1, last.Matched)
}

func TestWebSocketRequiresKnownRun(t *testing.T) {
	srv := newTestServer(t, stubSource{}, false)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?run_id=nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
