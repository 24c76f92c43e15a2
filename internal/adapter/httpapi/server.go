package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidewatch/marine-enrich/internal/domain"
	"github.com/tidewatch/marine-enrich/internal/pipeline"
)

// maxUploadBytes caps multipart uploads; voyage files are small, anything
// bigger is a mistake.
const maxUploadBytes = 32 << 20

// DatasetBuilder enriches a decoded table into a dataset.
type DatasetBuilder interface {
	Build(ctx context.Context, table pipeline.Table) (*pipeline.Dataset, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RowSink receives enriched datasets after a batch completes. Optional.
type RowSink interface {
	PublishDataset(ctx context.Context, ds *pipeline.Dataset) error
}

// Server exposes the enrichment API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	builder    DatasetBuilder
	enricher   pipeline.RowEnricher
	sink       RowSink
	logger     *slog.Logger
}

// NewServer creates the HTTP server. sink may be nil when no Kafka sink is
// configured.
func NewServer(addr string, builder DatasetBuilder, enricher pipeline.RowEnricher, ready ReadinessChecker, sink RowSink, logger *slog.Logger) *Server {
	s := &Server{
		builder:  builder,
		enricher: enricher,
		sink:     sink,
		logger:   logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady(ready)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/enrich", s.handleEnrich).Methods(http.MethodPost)
	api.HandleFunc("/point", s.handlePoint).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // batches block on upstream weather calls
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleEnrich accepts a multipart CSV or XLSX upload and responds with the
// enriched table: CSV download by default, JSON rows with map color buckets
// when ?format=json.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed multipart request"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	var table pipeline.Table
	if isXLSX(header.Filename, header.Header.Get("Content-Type")) {
		table, err = pipeline.DecodeXLSX(file)
	} else {
		table, err = pipeline.DecodeCSV(file)
	}
	if err != nil {
		// The only batch-fatal input condition: structurally invalid file.
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ds, err := s.builder.Build(r.Context(), table)
	if err != nil {
		s.logger.Error("batch build failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "enrichment aborted"})
		return
	}

	s.publish(r.Context(), ds)

	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, datasetJSON(ds))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="enriched.csv"`)
	if err := pipeline.EncodeCSV(w, ds); err != nil {
		s.logger.Error("csv encode failed", "error", err, "batch_id", ds.ID)
	}
}

// scalar accepts a JSON number or string and keeps its text form; validation
// happens in the enricher, same as for file rows.
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = scalar(str)
		return nil
	}
	*s = scalar(b)
	return nil
}

// pointRequest is the single-entry form payload.
type pointRequest struct {
	Timestamp string `json:"timestamp"`
	Lat       scalar `json:"lat"`
	Lon       scalar `json:"lon"`
}

// handlePoint enriches a single point. Row-level failures (bad timestamp,
// out-of-range coordinates) still return 200 with the error on the row, the
// same semantics a one-line file upload would get.
func (s *Server) handlePoint(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return
	}

	row := s.enricher.Enrich(r.Context(), domain.InputRow{
		Timestamp: req.Timestamp,
		Lat:       string(req.Lat),
		Lon:       string(req.Lon),
	})
	writeJSON(w, http.StatusOK, rowJSON(row))
}

func (s *Server) publish(ctx context.Context, ds *pipeline.Dataset) {
	if s.sink == nil {
		return
	}
	if err := s.sink.PublishDataset(ctx, ds); err != nil {
		// Sink problems never fail the user's request.
		s.logger.Error("sink publish failed", "error", err, "batch_id", ds.ID)
	}
}

// enrichedRowJSON is an EnrichedRow plus the wind color bucket the map UI
// uses for markers.
type enrichedRowJSON struct {
	domain.EnrichedRow
	Color string `json:"color,omitempty"`
}

type datasetResponse struct {
	BatchID      string            `json:"batch_id"`
	ExtraColumns []string          `json:"extra_columns,omitempty"`
	Rows         []enrichedRowJSON `json:"rows"`
}

func rowJSON(row domain.EnrichedRow) enrichedRowJSON {
	out := enrichedRowJSON{EnrichedRow: row}
	if row.Observation.WindSpeedKt != nil {
		out.Color = domain.WindSpeedColor(*row.Observation.WindSpeedKt)
	}
	return out
}

func datasetJSON(ds *pipeline.Dataset) datasetResponse {
	resp := datasetResponse{
		BatchID:      ds.ID,
		ExtraColumns: ds.ExtraColumns,
		Rows:         make([]enrichedRowJSON, len(ds.Rows)),
	}
	for i, row := range ds.Rows {
		resp.Rows[i] = rowJSON(row)
	}
	return resp
}

func isXLSX(filename, contentType string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx") ||
		contentType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
