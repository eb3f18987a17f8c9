package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/internal/testutil"
)

func buildTestRegistry(t *testing.T) *Registry {
	t.Helper()
	mem := testutil.NewMemoryTarget()
	conf, err := NewConf(testRuntimeInfo(), routeByName(),
		WithTarget(core.TargetConf{
			Name: "console",
			Factory: func(core.RuntimeInfo) (core.TargetSink, error) {
				return mem, nil
			},
		}),
		WithPrometheusRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	reg, err := Build(conf)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Shutdown(1) })
	return reg
}

func TestAdminHealthzOKWithNoHealthChecks(t *testing.T) {
	reg := buildTestRegistry(t)
	router := reg.AdminRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestAdminServicezListsTarget(t *testing.T) {
	reg := buildTestRegistry(t)
	router := reg.AdminRouter()

	req := httptest.NewRequest(http.MethodGet, "/servicez", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var statuses []serviceStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "console", statuses[0].Name)
	assert.Empty(t, statuses[0].Fault)
}

func TestAdminMetricsExposesPrometheusFormat(t *testing.T) {
	reg := buildTestRegistry(t)
	router := reg.AdminRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}
