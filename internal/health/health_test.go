package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAlive(t *testing.T) {
	rec := get(t, NewServer(":0", nil, nil), "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bot is alive", rec.Body.String())
}

func TestHealth_StoreReachable(t *testing.T) {
	s := NewServer(":0", pingFunc(func(context.Context) error { return nil }), nil)

	rec := get(t, s, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["store"])
}

func TestHealth_StoreDown(t *testing.T) {
	s := NewServer(":0", pingFunc(func(context.Context) error { return errors.New("no route to host") }), nil)

	rec := get(t, s, "/health")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "unreachable", body["store"])
	assert.NotContains(t, rec.Body.String(), "no route to host")
}

func TestHealth_NoStore(t *testing.T) {
	rec := get(t, NewServer(":0", nil, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := NewServer("", nil, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "Bot is alive", string(b))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_BadAddress(t *testing.T) {
	err := NewServer("missing-port", nil, nil).Run(context.Background())
	assert.Error(t, err)
}
