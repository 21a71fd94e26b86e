package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marinecore/internal/core"
	"marinecore/internal/dispatch"
	"marinecore/internal/infra/persistence/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)
	taxonomies := core.NewTaxonomyService(memory.NewStore(), core.WithMetricsRecorder(metrics))
	species := core.NewSpeciesService(taxonomies, core.WithMetricsRecorder(metrics))
	return NewHandler(dispatch.New(taxonomies, species), nil, reg), reg
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCallRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodPost, "/api/v1/calls/add_taxonomy",
		`{"payload":{"kingdom":"Animalia","phylum":"Chordata","class":"Actinopterygii","order":"Perciformes","family":"Pomacentridae","genus":"Amphiprion","species":"ocellaris"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var created struct {
		Ok struct {
			ID        uint64  `json:"id"`
			UpdatedAt *string `json:"updated_at"`
		}
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, uint64(1), created.Ok.ID)
	assert.Nil(t, created.Ok.UpdatedAt)

	rec = do(h, http.MethodPost, "/api/v1/calls/get_taxonomy/", `{"id":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Err":{"NotFound":{"msg":"taxonomy with id=9 not found"}}}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/api/v1/calls/add_marinespecie", `{"payload":`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Err":{"InvalidInput":null}}`, rec.Body.String())
}

func TestRoutingErrors(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/api/v1/calls/drop_table", `{}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/api/v1/calls/get_all_taxonomy", ``).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/elsewhere", ``).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodPost, "/healthz", ``).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodDelete, "/api/v1/operations", ``).Code)

	big := bytes.Repeat([]byte("a"), maxBodyBytes+1)
	rec := do(h, http.MethodPost, "/api/v1/calls/get_all_taxonomy", string(big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealthOperationsAndMetrics(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := do(h, http.MethodGet, "/healthz", ``)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/v1/operations", ``)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Operations []dispatch.Operation `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed.Operations, 11)

	do(h, http.MethodPost, "/api/v1/calls/get_all_marinespecie", `{}`)
	rec = do(h, http.MethodGet, "/metrics", ``)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marinecore_service_calls_total{operation="get_all_marinespecie",status="success"} 1`)

	noMetrics := NewHandler(nil, nil, nil)
	assert.Equal(t, http.StatusNotFound, do(noMetrics, http.MethodGet, "/metrics", ``).Code)
}

type faultyInvoker struct{ err error }

func (f faultyInvoker) Invoke(context.Context, string, json.RawMessage) (json.RawMessage, error) {
	return nil, f.err
}

func TestInvokerFaults(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(faultyInvoker{err: errors.New("disk full")}, slog.New(slog.NewTextHandler(&logs, nil)), nil)
	rec := do(h, http.MethodPost, "/api/v1/calls/add_taxonomy", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "disk full")

	h = NewHandler(faultyInvoker{err: dispatch.ErrUnknownOperation}, nil, nil)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/api/v1/calls/add_taxonomy", `{}`).Code)
}
