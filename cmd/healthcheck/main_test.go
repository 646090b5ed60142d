package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthURL(t *testing.T) {
	tests := []struct {
		listenAddr string
		want       string
	}{
		{listenAddr: "", want: "http://127.0.0.1:8080/api/v1/health"},
		{listenAddr: "garbage", want: "http://127.0.0.1:8080/api/v1/health"},
		{listenAddr: "0.0.0.0:9090", want: "http://127.0.0.1:9090/api/v1/health"},
		{listenAddr: ":9090", want: "http://127.0.0.1:9090/api/v1/health"},
		{listenAddr: "[::]:9090", want: "http://127.0.0.1:9090/api/v1/health"},
		{listenAddr: "10.0.0.5:8081", want: "http://10.0.0.5:8081/api/v1/health"},
	}

	for _, tc := range tests {
		t.Run(tc.listenAddr, func(t *testing.T) {
			assert.Equal(t, tc.want, healthURL(tc.listenAddr))
		})
	}
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		healthy bool
	}{
		{name: "ok", status: http.StatusOK, body: `{"status":"ok","time":"2026-10-18T00:00:00Z"}`, healthy: true},
		{name: "non-200", status: http.StatusServiceUnavailable, body: `{"status":"ok"}`},
		{name: "wrong status field", status: http.StatusOK, body: `{"status":"degraded"}`},
		{name: "not json", status: http.StatusOK, body: `ok`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, healthPath, r.URL.Path)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := checkHealth(context.Background(), srv.URL+healthPath)
			if tc.healthy {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCheck_ReadsListenAddr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	_, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)

	t.Setenv("REPOFEED_LISTEN_ADDR", "0.0.0.0:"+port)
	assert.Equal(t, 0, check())

	srv.Close()
	assert.Equal(t, 1, check())
}
