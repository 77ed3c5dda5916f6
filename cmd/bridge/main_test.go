package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikaSurendra/nasa-cad-bridge/internal/config"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/nasa"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestPrintAPOD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DEMO_KEY", r.URL.Query().Get("api_key"))
		assert.Equal(t, "2024-02-01", r.URL.Query().Get("date"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"title": "Comet over the Dunes",
			"url":   "https://apod.nasa.gov/apod/image/2402/comet.jpg",
		})
	}))
	defer srv.Close()

	cfg := &config.Config{NASA: config.NASAConfig{APIKey: "DEMO_KEY", APODURL: srv.URL}}
	var buf bytes.Buffer
	require.NoError(t, printAPOD(context.Background(), cfg, "2024-02-01", &buf, discardLogger()))
	assert.Equal(t, "Comet over the Dunes\nhttps://apod.nasa.gov/apod/image/2402/comet.jpg\n", buf.String())
}

func TestPrintAPOD_NoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"media_type": "other"}`)
	}))
	defer srv.Close()

	cfg := &config.Config{NASA: config.NASAConfig{APIKey: "k", APODURL: srv.URL}}
	var buf bytes.Buffer
	require.NoError(t, printAPOD(context.Background(), cfg, "", &buf, discardLogger()))
	assert.Contains(t, buf.String(), "no image")
}

func TestPrintAPOD_MissingKey(t *testing.T) {
	err := printAPOD(context.Background(), &config.Config{}, "", io.Discard, discardLogger())
	assert.ErrorIs(t, err, nasa.ErrMissingAPIKey)
}

func TestPrintAPOD_ErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := &config.Config{NASA: config.NASAConfig{APIKey: "SECRET123", APODURL: srv.URL}}
	err := printAPOD(context.Background(), cfg, "", io.Discard, discardLogger())
	require.ErrorIs(t, err, nasa.ErrTransport)
	assert.NotContains(t, err.Error(), "SECRET123")
}

func TestPrintQueries(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"count":"1","fields":["des","cd","dist"],"data":[["433","2024-Jan-31 21:00","0.15"]]}`)
	}))
	defer srv.Close()

	cfg := &config.Config{
		NASA: config.NASAConfig{CADURL: srv.URL},
		Source: config.SourceConfig{Queries: []config.QueryConfig{
			{Name: "eros", Params: map[string]any{"des": "433", "date_max": nil}},
			{Name: "close", Params: map[string]any{"dist_max": "1LD"}},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, printQueries(context.Background(), cfg, &buf, discardLogger()))

	out := buf.String()
	for _, want := range []string{"# eros (1)", "# close (1)", "433", "2024-Jan-31 21:00"} {
		assert.Contains(t, out, want)
	}
	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "des=433")
	assert.NotContains(t, queries[0], "date-max")
	assert.Contains(t, queries[1], "dist-max=1LD")
}

func TestPrintQueries_InvalidParams(t *testing.T) {
	cfg := &config.Config{
		Source: config.SourceConfig{Queries: []config.QueryConfig{
			{Name: "bad", Params: map[string]any{"limit": 0}},
		}},
	}
	err := printQueries(context.Background(), cfg, io.Discard, discardLogger())
	assert.ErrorIs(t, err, nasa.ErrInvalidRange)
}

func TestExampleConfig(t *testing.T) {
	t.Setenv("NASA_API_KEY", "")
	cfg, err := config.Load("../../config.example.yaml")
	require.NoError(t, err)
	assert.Equal(t, "DEMO_KEY", cfg.NASA.APIKey)

	for _, qc := range cfg.Source.Queries {
		q, err := nasa.QueryFromMap(qc.Params)
		if !assert.NoError(t, err, qc.Name) {
			continue
		}
		_, err = q.Params()
		assert.NoError(t, err, qc.Name)
	}
}
