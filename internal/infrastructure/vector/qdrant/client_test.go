package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

func testMetadata() domain.ChunkMetadata {
	return domain.ChunkMetadata{
		DocID:          "abc123",
		SourceType:     domain.SourceStatute,
		Jurisdiction:   domain.JurisdictionState,
		Title:          "ch943",
		SourceFile:     "/data/statutes/ch943.pdf",
		ChunkIndex:     1,
		StartPage:      2,
		EndPage:        3,
		ContextHeader:  "Chapter 943 > 943.01",
		StatuteNumbers: []string{"943.01", "943.02"},
		TokenCount:     120,
	}
}

func TestUpsertEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	ids := []string{"a", "b"}
	docs := []string{"one", "two"}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	metas := []domain.ChunkMetadata{testMetadata(), testMetadata()}

	if err := client.Upsert(context.Background(), ids, docs, vectors, metas); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	if err := client.Upsert(context.Background(), ids, docs, vectors, metas); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestUpsertFlattensListMetadata(t *testing.T) {
	var upsertBody struct {
		Points []struct {
			ID      string         `json:"id"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			if err := json.NewDecoder(r.Body).Decode(&upsertBody); err != nil {
				t.Fatalf("decode upsert body: %v", err)
			}
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	err := client.Upsert(context.Background(), []string{"a"}, []string{"text"}, [][]float32{{0.1}}, []domain.ChunkMetadata{testMetadata()})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if len(upsertBody.Points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(upsertBody.Points))
	}
	payload := upsertBody.Points[0].Payload
	if payload["statute_numbers"] != "943.01,943.02" {
		t.Fatalf("statute list not comma-joined: %v", payload["statute_numbers"])
	}
	if payload["doc_id"] != "a" || payload["text"] != "text" {
		t.Fatalf("unexpected payload identity fields: %v", payload)
	}
	if strings.Count(upsertBody.Points[0].ID, "-") != 4 {
		t.Fatalf("point ID is not a UUID: %q", upsertBody.Points[0].ID)
	}
}

func TestUpsertPointIDsAreDeterministic(t *testing.T) {
	if pointID("chunk-1") != pointID("chunk-1") {
		t.Fatalf("same chunk ID produced different point IDs")
	}
	if pointID("chunk-1") == pointID("chunk-2") {
		t.Fatalf("different chunk IDs collided")
	}
}

func TestQueryDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/search" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":[{"score":0.9,"payload":{
			"doc_id":"a","text":"chunk text","source_type":"statute",
			"jurisdiction":"state","superseded":false,"title":"ch943",
			"statute_numbers":"943.01,943.02","chunk_index":1,"token_count":120}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	got, err := client.Query(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	c := got[0]
	if c.ID != "a" || c.Document != "chunk text" {
		t.Fatalf("unexpected identity: %+v", c)
	}
	if c.Metadata.SourceType != domain.SourceStatute || c.Metadata.ChunkIndex != 1 {
		t.Fatalf("metadata not decoded: %+v", c.Metadata)
	}
	if len(c.Metadata.StatuteNumbers) != 2 || c.Metadata.StatuteNumbers[0] != "943.01" {
		t.Fatalf("statute list not split: %v", c.Metadata.StatuteNumbers)
	}
}

func TestGetByMetadataContainsFiltersAndLimits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/scroll" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"points":[
			{"payload":{"doc_id":"a","text":"t1","statute_numbers":"940.01,940.02"}},
			{"payload":{"doc_id":"b","text":"t2","statute_numbers":"346.63"}},
			{"payload":{"doc_id":"c","text":"t3","statute_numbers":"940.01"}}
		],"next_page_offset":null}}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")

	got, err := client.GetByMetadataContains(context.Background(), "statute_numbers", "940.01", 0)
	if err != nil {
		t.Fatalf("GetByMetadataContains() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected matches: %+v", got)
	}

	got, err = client.GetByMetadataContains(context.Background(), "statute_numbers", "940.01", 1)
	if err != nil {
		t.Fatalf("GetByMetadataContains() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("limit not applied: %+v", got)
	}
}

func TestGetAllFollowsPagination(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/scroll" {
			http.NotFound(w, r)
			return
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			_, _ = w.Write([]byte(`{"result":{"points":[{"payload":{"doc_id":"a","text":"t1"}}],"next_page_offset":"cursor-2"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":{"points":[{"payload":{"doc_id":"b","text":"t2"}}],"next_page_offset":null}}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	got, err := client.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected chunks: %+v", got)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 scroll pages, got %d", calls)
	}
}

func TestCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/count" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"count":42}}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	n, err := client.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 42 {
		t.Fatalf("expected 42, got %d", n)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	err := client.Upsert(context.Background(), []string{"a"}, []string{"t"}, [][]float32{{0.1}}, []domain.ChunkMetadata{testMetadata()})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error with body, got %v", err)
	}
}

func TestSetSupersededTranslatesChunkIDs(t *testing.T) {
	var captured struct {
		Payload map[string]any `json:"payload"`
		Points  []string       `json:"points"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/chunks/points/payload" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	if err := client.SetSuperseded(context.Background(), []string{"chunk-a", "chunk-b"}); err != nil {
		t.Fatalf("SetSuperseded() error = %v", err)
	}

	if got, ok := captured.Payload["superseded"].(bool); !ok || !got {
		t.Fatalf("expected superseded=true payload, got %v", captured.Payload)
	}
	if len(captured.Points) != 2 {
		t.Fatalf("expected 2 points, got %v", captured.Points)
	}
	if captured.Points[0] != pointID("chunk-a") || captured.Points[1] != pointID("chunk-b") {
		t.Fatalf("point ids not derived from chunk ids: %v", captured.Points)
	}
	// Point ids must be UUIDs, not raw chunk ids.
	if strings.Count(captured.Points[0], "-") != 4 {
		t.Fatalf("expected uuid-shaped point id, got %q", captured.Points[0])
	}
}

func TestSetSupersededEmptyInputIsNoop(t *testing.T) {
	client := New("http://unreachable.invalid", "chunks")
	if err := client.SetSuperseded(context.Background(), nil); err != nil {
		t.Fatalf("SetSuperseded() error = %v", err)
	}
}
