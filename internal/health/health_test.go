package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, report) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var rep report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	return rec.Code, rep
}

func TestNotReadyUntilMarked(t *testing.T) {
	s := New(0)
	h := s.Handler()

	code, rep := get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", rep.Status)

	s.SetReady(true)
	code, _ = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
}

func TestReadinessChecks(t *testing.T) {
	s := New(0)
	s.SetReady(true)
	storeErr := errors.New("database is locked")
	var failing bool
	s.AddCheck("store", func(context.Context) error {
		if failing {
			return storeErr
		}
		return nil
	})
	h := s.Handler()

	code, rep := get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"store": "ok"}, rep.Checks)

	failing = true
	code, rep = get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", rep.Status)
	assert.Equal(t, "database is locked", rep.Checks["store"])

	// Liveness ignores dependency checks.
	code, _ = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
}
