package metrics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(PublishAttempts)
	PublishAttempts.WithLabelValues("success").Inc()

	board := NewStatusBoard()
	board.Update(func(s *Status) {
		s.Mood = "cynical"
		s.LastPostID = "123"
		s.ConsecutiveFailures = 2
	})

	srv := httptest.NewServer(NewRouter(reg, board))
	defer srv.Close()

	tests := []struct {
		name     string
		path     string
		wantCode int
		contains string
	}{
		{name: "healthz", path: "/healthz", wantCode: http.StatusOK, contains: "OK"},
		{name: "metrics", path: "/metrics", wantCode: http.StatusOK, contains: `publish_attempts_total{result="success"}`},
		{name: "status", path: "/status", wantCode: http.StatusOK, contains: `"mood":"cynical"`},
		{name: "expvar", path: "/debug/vars", wantCode: http.StatusOK, contains: "posts_published_count"},
		{name: "unknown", path: "/nope", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.contains != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), tt.contains)
			}
		})
	}
}

func TestStatusHandler_NilBoard(t *testing.T) {
	rec := httptest.NewRecorder()
	statusHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var got Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, Status{}, got)
}

func TestSetupServer_DefaultAddr(t *testing.T) {
	s := SetupServer("", nil)
	assert.Equal(t, DefaultAddr, s.Addr)
	assert.NotNil(t, s.Handler)
}
