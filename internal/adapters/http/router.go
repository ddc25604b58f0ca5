// Package httpadapter exposes the query and ingestion pipelines as thin
// JSON endpoints. All orchestration lives in the use cases; handlers only
// decode, delegate, and encode.
package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/core/ports"
	"github.com/mfedorov/legalrag/internal/observability/metrics"
)

const documentTruncLen = 500

type Router struct {
	query   ports.QueryService
	ingest  ports.IngestService
	queue   ports.MessageQueue
	health  ports.HealthService
	metrics *metrics.HTTPServerMetrics
	service string
}

func NewRouter(
	query ports.QueryService,
	ingest ports.IngestService,
	queue ports.MessageQueue,
	health ports.HealthService,
	m *metrics.HTTPServerMetrics,
	service string,
) *Router {
	return &Router{
		query:   query,
		ingest:  ingest,
		queue:   queue,
		health:  health,
		metrics: m,
		service: service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", rt.healthCheck)
	mux.HandleFunc("/chat", rt.chat)
	mux.HandleFunc("/search", rt.search)
	mux.HandleFunc("/ingest", rt.requestIngest)
	mux.HandleFunc("/supersede", rt.supersede)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return loggingMiddleware(handler)
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	status, count := rt.health.Check(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           status,
		"collection_count": count,
	})
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	answer, err := rt.query.Answer(r.Context(), req.Query)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordQuery(
			rt.service, "/chat",
			len(answer.Sources),
			answer.ConfidenceScore,
			answer.Flags.LowConfidence,
			flagNames(answer.Flags),
			time.Since(start),
		)
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query    string `json:"query"`
		NResults int    `json:"n_results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	results, enhanced, err := rt.query.Search(r.Context(), req.Query, req.NResults)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	type searchHit struct {
		ID       string               `json:"id"`
		Document string               `json:"document"`
		Metadata domain.ChunkMetadata `json:"metadata"`
		Score    float64              `json:"score"`
	}
	hits := make([]searchHit, 0, len(results))
	for _, res := range results {
		doc := res.Document
		if len(doc) > documentTruncLen {
			doc = doc[:documentTruncLen]
		}
		hits = append(hits, searchHit{
			ID:       res.ID,
			Document: doc,
			Metadata: res.Metadata,
			Score:    res.Score(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":        hits,
		"enhanced_query": enhanced,
	})
}

// requestIngest queues an ingestion run; the worker picks it up off NATS.
func (rt *Router) requestIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		DataDir string `json:"data_dir"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.DataDir) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "data_dir is required"})
		return
	}

	if err := rt.queue.PublishIngestRequested(r.Context(), req.DataDir); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "data_dir": req.DataDir})
}

func (rt *Router) supersede(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		StatuteNumber string `json:"statute_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.StatuteNumber) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "statute_number is required"})
		return
	}

	retired, err := rt.ingest.MarkSuperseded(r.Context(), req.StatuteNumber)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"statute_number": req.StatuteNumber,
		"chunks_retired": retired,
	})
}

func flagNames(flags domain.ResponseFlags) []string {
	var names []string
	if flags.LowConfidence {
		names = append(names, "LOW_CONFIDENCE")
	}
	if flags.OutdatedPossible {
		names = append(names, "OUTDATED_POSSIBLE")
	}
	if flags.JurisdictionNote {
		names = append(names, "JURISDICTION_NOTE")
	}
	if flags.UseOfForceCaution {
		names = append(names, "USE_OF_FORCE_CAUTION")
	}
	return names
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("http_request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
