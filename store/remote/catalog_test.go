package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tuition-engine/store/remote"
	"github.com/warp/tuition-engine/tuition"
)

const ingSistemasJSON = `{
	"id": "ing-sistemas",
	"nombre": "Ingeniería de Sistemas",
	"modalidad": "Presencial",
	"duracion": 4,
	"costoPorSemestre": 3000.00,
	"costoTotal": 14600.00,
	"conceptosAdicionales": [
		{"concepto": "Matrícula", "monto": 300.00},
		{"concepto": "Biblioteca", "monto": 200.00},
		{"concepto": "Laboratorio", "monto": 150.00}
	]
}`

func newBackend(t *testing.T, routes map[string]func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handle, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handle(w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func body(s string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { _, _ = w.Write([]byte(s)) }
}

func TestCatalog_GetProgram(t *testing.T) {
	// GIVEN: A back end serving the bare program contract
	// WHEN: Fetching the program
	// THEN: It decodes into the domain program with PEN amounts
	srv := newBackend(t, map[string]func(http.ResponseWriter){
		"/api/programs/ing-sistemas": body(ingSistemasJSON),
	})
	catalog := remote.New(srv.URL + "/api/")

	p, err := catalog.GetProgram(context.Background(), "ing-sistemas")
	require.NoError(t, err)

	assert.Equal(t, "Ingeniería de Sistemas", p.Name)
	assert.Equal(t, 4, p.DurationSemesters)
	assert.Equal(t, tuition.CurrencyPEN, p.Currency())
	require.Len(t, p.AdditionalFees, 3)
	assert.Equal(t, "3650.00", p.SemesterTotal().String())
}

func TestCatalog_GetProgramNotFound(t *testing.T) {
	srv := newBackend(t, nil)
	catalog := remote.New(srv.URL)

	_, err := catalog.GetProgram(context.Background(), "missing")
	assert.True(t, errors.Is(err, tuition.ErrProgramNotFound))
}

func TestCatalog_EnvelopeRejected(t *testing.T) {
	// GIVEN: A back end that wraps the record in an envelope
	// THEN: The single documented contract is enforced
	srv := newBackend(t, map[string]func(http.ResponseWriter){
		"/programs/ing-sistemas": body(`{"data": ` + ingSistemasJSON + `}`),
		"/programs":              body(`{"content": [` + ingSistemasJSON + `]}`),
	})
	catalog := remote.New(srv.URL)

	_, err := catalog.GetProgram(context.Background(), "ing-sistemas")
	assert.True(t, errors.Is(err, tuition.ErrCatalogUnavailable))

	_, err = catalog.ListPrograms(context.Background())
	assert.True(t, errors.Is(err, tuition.ErrCatalogUnavailable))
}

func TestCatalog_ListPrograms(t *testing.T) {
	srv := newBackend(t, map[string]func(http.ResponseWriter){
		"/programs": body(`[` + ingSistemasJSON + `, {"id": "diplomado-datos", "duracion": 1, "costoPorSemestre": "2500.00", "costoTotal": "2500.00", "moneda": "usd"}]`),
	})
	catalog := remote.New(srv.URL)

	programs, err := catalog.ListPrograms(context.Background())
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.Equal(t, tuition.ProgramID("diplomado-datos"), programs[1].ID)
	assert.Equal(t, tuition.CurrencyUSD, programs[1].Currency())
	assert.Empty(t, programs[1].AdditionalFees)
}

func TestCatalog_ServerError(t *testing.T) {
	srv := newBackend(t, map[string]func(http.ResponseWriter){
		"/programs": func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) },
	})
	catalog := remote.New(srv.URL)

	_, err := catalog.ListPrograms(context.Background())
	assert.True(t, errors.Is(err, tuition.ErrCatalogUnavailable))
	assert.False(t, tuition.IsNotFound(err))
}

func TestCatalog_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	catalog := remote.New(srv.URL, remote.WithTimeout(50*time.Millisecond))

	_, err := catalog.GetProgram(context.Background(), "ing-sistemas")
	assert.True(t, errors.Is(err, tuition.ErrCatalogUnavailable))
}
