package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	j "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schema "github.com/aliaksandr-pasynkau/node-verifier-schema"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/middleware"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/rules"
)

func router(t *testing.T, metrics *middleware.Metrics) http.Handler {
	t.Helper()
	s := schema.NewRegistry().New().Object(func(r, o schema.FieldFunc) {
		r("name", "type string", "min_length 2")
		o("tags").Validate("type array", map[string]any{"each": "type string"})
	})
	verify, err := s.Compile(rules.Mapper)
	require.NoError(t, err)

	mux := chi.NewRouter()
	mux.With(middleware.Verify(verify, middleware.Options{MaxBytes: 64, Metrics: metrics})).
		Post("/users", func(w http.ResponseWriter, r *http.Request) {
			v, ok := middleware.ValueFromContext(r.Context())
			assert.True(t, ok)
			assert.Contains(t, v, "name")
			w.WriteHeader(http.StatusNoContent)
		})
	return mux
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	return rec
}

func TestVerify(t *testing.T) {
	h := router(t, nil)

	rec := post(h, `{"name":"Al","tags":["a"]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = post(h, `{"name":"Al","tags":["a",1]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var p middleware.ErrorPayload
	require.NoError(t, j.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "type", p.Rule)
	assert.Equal(t, "/tags", p.Pointer)
	require.NotNil(t, p.ArrayItemIndex)
	assert.Equal(t, 1, *p.ArrayItemIndex)

	rec = post(h, `{"name":"Al","name":"Bo"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var dup middleware.ErrorPayload
	require.NoError(t, j.Unmarshal(rec.Body.Bytes(), &dup))
	assert.Equal(t, "duplicate_key", dup.Rule)
	assert.Equal(t, "/", dup.Pointer)

	rec = post(h, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h, `{"name":"`+strings.Repeat("a", 100)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerify_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := middleware.NewMetrics(reg)
	require.NoError(t, err)
	h := router(t, metrics)

	post(h, `{"name":"Al"}`)
	post(h, `{"name":"Al"}`)
	post(h, `{"name":1}`)
	post(h, `nope`)

	counts := map[string]float64{}
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "verifier_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				counts[l.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, map[string]float64{
		middleware.OutcomeValid:     2,
		middleware.OutcomeInvalid:   1,
		middleware.OutcomeMalformed: 1,
	}, counts)

	_, err = middleware.NewMetrics(reg)
	assert.Error(t, err)
}

func TestVerify_NullBodyReachesHandler(t *testing.T) {
	verify, err := schema.NewRegistry().New().Compile(rules.Mapper)
	require.NoError(t, err)

	var called bool
	mux := chi.NewRouter()
	mux.With(middleware.Verify(verify, middleware.Options{})).
		Post("/users", func(w http.ResponseWriter, r *http.Request) {
			called = true
			v, ok := middleware.ValueFromContext(r.Context())
			assert.True(t, ok)
			assert.Nil(t, v)
			w.WriteHeader(http.StatusNoContent)
		})

	rec := post(mux, `null`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, called)
}

func TestValueFromContext_Unset(t *testing.T) {
	_, ok := middleware.ValueFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
