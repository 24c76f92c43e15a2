package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/marine-enrich/internal/domain"
	"github.com/tidewatch/marine-enrich/internal/pipeline"
)

// --- fakes ---

type fakeBuilder struct {
	built *pipeline.Table
	err   error
}

func (f *fakeBuilder) Build(_ context.Context, table pipeline.Table) (*pipeline.Dataset, error) {
	f.built = &table
	if f.err != nil {
		return nil, f.err
	}
	rows := make([]domain.EnrichedRow, len(table.Rows))
	for i, in := range table.Rows {
		kt := 18.0
		rows[i] = domain.EnrichedRow{
			ID:          domain.RowID(in),
			Input:       in,
			Observation: domain.Observation{WindSpeedKt: &kt},
		}
	}
	return &pipeline.Dataset{ID: "batch-test", Rows: rows, ExtraColumns: table.ExtraColumns}, nil
}

type fakeEnricher struct{}

func (fakeEnricher) Enrich(_ context.Context, row domain.InputRow) domain.EnrichedRow {
	out := domain.EnrichedRow{ID: domain.RowID(row), Input: row}
	if _, err := domain.NormalizeTimestamp(row.Timestamp); err != nil {
		out.Err = err.Error()
		return out
	}
	kt := 25.0
	out.Observation.WindSpeedKt = &kt
	return out
}

type readyFunc func() error

func (f readyFunc) CheckReadiness(context.Context) error { return f() }

type fakeSink struct {
	published []*pipeline.Dataset
	err       error
}

func (f *fakeSink) PublishDataset(_ context.Context, ds *pipeline.Dataset) error {
	f.published = append(f.published, ds)
	return f.err
}

func testServer(builder DatasetBuilder, sink RowSink, readyErr error) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", builder, fakeEnricher{}, readyFunc(func() error { return readyErr }), sink, logger)
}

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// --- tests ---

func TestServer_Health(t *testing.T) {
	srv := testServer(&fakeBuilder{}, nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestServer_Readiness(t *testing.T) {
	srv := testServer(&fakeBuilder{}, nil, errors.New("no batch completed yet"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	srv = testServer(&fakeBuilder{}, nil, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Enrich_CSVDownload(t *testing.T) {
	builder := &fakeBuilder{}
	srv := testServer(builder, nil, nil)

	csv := "timestamp,lat,lon,vessel\n2024-04-26T15:00:00Z,59.95,24.5,MV Aino\n"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/v1/enrich", "route.csv", csv))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "enriched.csv")
	assert.Contains(t, rec.Body.String(), "windSpeed_kt")
	assert.Contains(t, rec.Body.String(), "MV Aino")

	require.NotNil(t, builder.built)
	assert.Equal(t, []string{"vessel"}, builder.built.ExtraColumns)
}

func TestServer_Enrich_JSONFormat(t *testing.T) {
	srv := testServer(&fakeBuilder{}, nil, nil)

	csv := "timestamp,lat,lon\n2024-04-26T15:00:00Z,59.95,24.5\n"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/v1/enrich?format=json", "route.csv", csv))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp datasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "batch-test", resp.BatchID)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "orange", resp.Rows[0].Color, "18 kt buckets orange")
}

func TestServer_Enrich_MissingColumnIsBadRequest(t *testing.T) {
	srv := testServer(&fakeBuilder{}, nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/v1/enrich", "route.csv", "lat,lon\n1,2\n"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "timestamp")
}

func TestServer_Enrich_MissingFileField(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/enrich", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	srv := testServer(&fakeBuilder{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Enrich_PublishesToSink(t *testing.T) {
	sink := &fakeSink{}
	srv := testServer(&fakeBuilder{}, sink, nil)

	csv := "timestamp,lat,lon\n2024-04-26T15:00:00Z,59.95,24.5\n"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/v1/enrich", "route.csv", csv))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sink.published, 1)
	assert.Equal(t, "batch-test", sink.published[0].ID)
}

func TestServer_Enrich_SinkFailureDoesNotFailRequest(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker down")}
	srv := testServer(&fakeBuilder{}, sink, nil)

	csv := "timestamp,lat,lon\n2024-04-26T15:00:00Z,59.95,24.5\n"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/v1/enrich", "route.csv", csv))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Point_Success(t *testing.T) {
	srv := testServer(&fakeBuilder{}, nil, nil)

	body := `{"timestamp":"2024-04-26T15:00:00Z","lat":59.95,"lon":24.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/point", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var row enrichedRowJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, "59.95", row.Input.Lat)
	assert.Equal(t, "red", row.Color, "25 kt buckets red")
}

func TestServer_Point_RowErrorStays200(t *testing.T) {
	srv := testServer(&fakeBuilder{}, nil, nil)

	body := `{"timestamp":"not-a-date","lat":"59.95","lon":"24.5"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/point", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var row enrichedRowJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Contains(t, row.Err, "invalid timestamp")
	assert.Empty(t, row.Color)
}

func TestServer_Point_MalformedBody(t *testing.T) {
	srv := testServer(&fakeBuilder{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/point", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
