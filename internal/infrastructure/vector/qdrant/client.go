// Package qdrant implements the chunk store over Qdrant's HTTP API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/core/ports"
)

const scrollPageSize = 256

// Namespace for deriving point UUIDs from chunk IDs. Deterministic so that
// re-ingesting a file overwrites its points instead of duplicating them.
var pointNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

var _ ports.VectorStore = (*Client)(nil)

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func pointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

func (c *Client) Upsert(ctx context.Context, ids []string, documents []string, embeddings [][]float32, metadatas []domain.ChunkMetadata) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(documents) || len(ids) != len(embeddings) || len(ids) != len(metadatas) {
		return fmt.Errorf("ids/documents/embeddings/metadatas length mismatch")
	}

	if err := c.ensureCollection(ctx, len(embeddings[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(ids))
	for i := range ids {
		points = append(points, point{
			ID:      pointID(ids[i]),
			Vector:  embeddings[i],
			Payload: payloadFromMetadata(ids[i], documents[i], metadatas[i]),
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return nil
}

func (c *Client) Query(ctx context.Context, embedding []float32, n int) ([]ports.StoredChunk, error) {
	body, err := json.Marshal(map[string]any{
		"vector":       embedding,
		"limit":        n,
		"with_payload": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]ports.StoredChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, chunkFromPayload(r.Payload))
	}
	return out, nil
}

// GetByMetadataContains scans the collection and returns chunks whose named
// metadata field contains value as a substring. Qdrant has no substring
// filter on plain payload fields, so matching happens client-side over
// scroll pages. limit 0 means no limit.
func (c *Client) GetByMetadataContains(ctx context.Context, field, value string, limit int) ([]ports.StoredChunk, error) {
	var out []ports.StoredChunk
	err := c.scroll(ctx, func(payload map[string]any) bool {
		if !strings.Contains(getString(payload, field), value) {
			return true
		}
		out = append(out, chunkFromPayload(payload))
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAll(ctx context.Context) ([]ports.StoredChunk, error) {
	var out []ports.StoredChunk
	err := c.scroll(ctx, func(payload map[string]any) bool {
		out = append(out, chunkFromPayload(payload))
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetSuperseded overwrites the superseded payload field on the given chunks.
// Vectors are untouched, so retirement never needs re-embedding.
func (c *Client) SetSuperseded(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	points := make([]string, 0, len(ids))
	for _, id := range ids {
		points = append(points, pointID(id))
	}
	body, err := json.Marshal(map[string]any{
		"payload": map[string]any{"superseded": true},
		"points":  points,
	})
	if err != nil {
		return fmt.Errorf("marshal set payload body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/payload?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create set payload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant set payload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant set payload status: %s", resp.Status)
	}
	return nil
}

func (c *Client) Count(ctx context.Context) (int, error) {
	body := bytes.NewReader([]byte(`{"exact":true}`))
	url := fmt.Sprintf("%s/collections/%s/points/count", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return 0, fmt.Errorf("create count request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant count request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("qdrant count status: %s", resp.Status)
	}

	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return countResp.Result.Count, nil
}

// scroll pages through every point's payload; visit returns false to stop.
func (c *Client) scroll(ctx context.Context, visit func(payload map[string]any) bool) error {
	var offset any
	for {
		reqBody := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			reqBody["offset"] = offset
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal scroll body: %w", err)
		}

		url := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create scroll request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant scroll request: %w", err)
		}

		var scrollResp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return fmt.Errorf("qdrant scroll status: %s", resp.Status)
		}
		err = json.NewDecoder(resp.Body).Decode(&scrollResp)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode scroll response: %w", err)
		}

		for _, p := range scrollResp.Result.Points {
			if !visit(p.Payload) {
				return nil
			}
		}

		if scrollResp.Result.NextPageOffset == nil {
			return nil
		}
		offset = scrollResp.Result.NextPageOffset
	}
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

// Payload values stay flat scalars; list fields are comma-joined.
func payloadFromMetadata(id, document string, m domain.ChunkMetadata) map[string]any {
	return map[string]any{
		"doc_id":          id,
		"text":            document,
		"source_type":     string(m.SourceType),
		"jurisdiction":    string(m.Jurisdiction),
		"superseded":      m.Superseded,
		"title":           m.Title,
		"source_file":     m.SourceFile,
		"chunk_index":     m.ChunkIndex,
		"start_page":      m.StartPage,
		"end_page":        m.EndPage,
		"context_header":  m.ContextHeader,
		"statute_numbers": strings.Join(m.StatuteNumbers, ","),
		"case_citations":  strings.Join(m.CaseCitations, ","),
		"chapter_numbers": strings.Join(m.ChapterNumbers, ","),
		"token_count":     m.TokenCount,
	}
}

func chunkFromPayload(payload map[string]any) ports.StoredChunk {
	return ports.StoredChunk{
		ID:       getString(payload, "doc_id"),
		Document: getString(payload, "text"),
		Metadata: domain.ChunkMetadata{
			DocID:          getString(payload, "doc_id"),
			SourceType:     domain.SourceType(getString(payload, "source_type")),
			Jurisdiction:   domain.Jurisdiction(getString(payload, "jurisdiction")),
			Superseded:     getBool(payload, "superseded"),
			Title:          getString(payload, "title"),
			SourceFile:     getString(payload, "source_file"),
			ChunkIndex:     getInt(payload, "chunk_index"),
			StartPage:      getInt(payload, "start_page"),
			EndPage:        getInt(payload, "end_page"),
			ContextHeader:  getString(payload, "context_header"),
			StatuteNumbers: splitList(getString(payload, "statute_numbers")),
			CaseCitations:  splitList(getString(payload, "case_citations")),
			ChapterNumbers: splitList(getString(payload, "chapter_numbers")),
			TokenCount:     getInt(payload, "token_count"),
		},
	}
}

func splitList(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

func getString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getBool(payload map[string]any, key string) bool {
	b, _ := payload[key].(bool)
	return b
}

func getInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
