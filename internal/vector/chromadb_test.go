// File path: internal/vector/chromadb_test.go
package vector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeChroma struct {
	t *testing.T

	mu                sync.Mutex
	collectionName    string
	collectionID      string
	heartbeatFailures int
	heartbeatCalls    int
	findCollectionErr error
	upsertUnsupported bool
	relevanceMode     bool
	addCalls          int
	upsertCalls       int
	queryCalls        int

	lastAddPayload    map[string]interface{}
	lastUpsertPayload map[string]interface{}

	heartbeatCalled chan struct{}
}

func newFakeChroma(t *testing.T) *fakeChroma {
	t.Helper()
	return &fakeChroma{
		t:               t,
		collectionName:  "rfp_knowledge",
		collectionID:    "col-123",
		heartbeatCalled: make(chan struct{}, 10),
	}
}

func (f *fakeChroma) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/heartbeat":
		f.handleHeartbeat(w)
	case r.URL.Path == "/api/v1/collections":
		f.handleCollections(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/collections/") && strings.HasSuffix(r.URL.Path, "/upsert"):
		f.handleUpsert(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/collections/") && strings.HasSuffix(r.URL.Path, "/add"):
		f.handleAdd(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/collections/") && strings.HasSuffix(r.URL.Path, "/query"):
		f.handleQuery(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeChroma) handleHeartbeat(w http.ResponseWriter) {
	f.mu.Lock()
	f.heartbeatCalls++
	shouldFail := f.heartbeatFailures > 0
	if shouldFail {
		f.heartbeatFailures--
	}
	f.mu.Unlock()
	select {
	case f.heartbeatCalled <- struct{}{}:
	default:
	}
	if shouldFail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("heartbeat failure"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (f *fakeChroma) handleCollections(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		f.mu.Lock()
		err := f.findCollectionErr
		name := r.URL.Query().Get("name")
		collectionName := f.collectionName
		collectionID := f.collectionID
		f.mu.Unlock()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(err.Error()))
			return
		}
		resp := map[string]interface{}{"collections": []map[string]string{}}
		if collectionID != "" && (name == "" || strings.EqualFold(name, collectionName)) {
			resp["collections"] = []map[string]string{{"id": collectionID, "name": collectionName}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
		return
	}
	if r.Method == http.MethodPost {
		f.mu.Lock()
		if f.collectionID == "" {
			f.collectionID = "generated"
		}
		id := f.collectionID
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
		return
	}
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func (f *fakeChroma) handleAdd(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid payload"))
		return
	}
	f.mu.Lock()
	f.addCalls++
	f.lastAddPayload = payload
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("added"))
}

func (f *fakeChroma) handleUpsert(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	f.mu.Lock()
	unsupported := f.upsertUnsupported
	f.mu.Unlock()
	if unsupported {
		http.NotFound(w, r)
		return
	}
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid payload"))
		return
	}
	f.mu.Lock()
	f.upsertCalls++
	f.lastUpsertPayload = payload
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("upserted"))
}

func (f *fakeChroma) handleQuery(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var body struct {
		Include []string `json:"include"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	wantsRelevance := false
	wantsDistances := false
	for _, field := range body.Include {
		if field == "relevance_scores" {
			wantsRelevance = true
		}
		if field == "distances" {
			wantsDistances = true
		}
	}
	f.mu.Lock()
	f.queryCalls++
	relevanceSupported := f.relevanceMode
	f.mu.Unlock()
	if wantsRelevance && !relevanceSupported {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("unsupported include field"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"ids":       [][]string{{"chunk-1"}},
		"metadatas": [][]map[string]interface{}{{{"doc_name": "RFP.pdf"}}},
		"documents": [][]string{{"passage text"}},
	}
	if wantsDistances {
		resp["distances"] = [][]float64{{0.3}}
	}
	if wantsRelevance {
		resp["relevance_scores"] = [][]float64{{0.85}}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeChroma) heartbeatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartbeatCalls
}

func (f *fakeChroma) addCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls
}

func (f *fakeChroma) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upsertCalls
}

func (f *fakeChroma) lastUpsert() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUpsertPayload
}

func newTestClient(server *httptest.Server, fake *fakeChroma) *Client {
	return &Client{
		httpClient: server.Client(),
		baseURL:    strings.TrimRight(server.URL, "/") + "/api/v1",
		collection: fake.collectionName,
	}
}

func TestEnsureReadyRetriesHeartbeat(t *testing.T) {
	fake := newFakeChroma(t)
	fake.heartbeatFailures = 1
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, fake)

	if err := client.ensureReady(context.Background()); err != nil {
		t.Fatalf("ensureReady returned error: %v", err)
	}
	if !client.Available() {
		t.Fatalf("client should be marked available")
	}
	if fake.heartbeatCount() < 2 {
		t.Fatalf("expected at least two heartbeat attempts, got %d", fake.heartbeatCount())
	}
}

func TestEnsureReadyContextCanceled(t *testing.T) {
	fake := newFakeChroma(t)
	fake.heartbeatFailures = 10
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, fake)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- client.ensureReady(ctx)
	}()

	select {
	case <-fake.heartbeatCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("expected heartbeat to be called")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ensureReady did not return after context cancellation")
	}
	if client.Available() {
		t.Fatal("client should not be marked available after cancellation")
	}
}

func TestEnsureReadyCollectionLookupFailure(t *testing.T) {
	fake := newFakeChroma(t)
	fake.findCollectionErr = errors.New("discovery failed")
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, fake)

	err := client.ensureReady(context.Background())
	if err == nil || !strings.Contains(err.Error(), "discovery failed") {
		t.Fatalf("expected discovery error, got %v", err)
	}
	if client.Available() {
		t.Fatal("client should remain unavailable on discovery failure")
	}
}

func TestUpsertChunksSendsPayload(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, fake)
	client.available = true
	client.collectionID = fake.collectionID

	chunk := Chunk{
		ID:   "chunk-1",
		Text: "passage text",
		Metadata: map[string]interface{}{
			"doc_name": "RFP.pdf",
			"source":   "/uploads/RFP.pdf",
		},
	}
	vectors := [][]float32{{0.1, 0.2, 0.3}}

	if err := client.UpsertChunks(context.Background(), []Chunk{chunk}, vectors); err != nil {
		t.Fatalf("UpsertChunks returned error: %v", err)
	}

	payload := fake.lastUpsert()
	if payload == nil {
		t.Fatal("expected payload to be captured")
	}
	ids, ok := payload["ids"].([]interface{})
	if !ok || len(ids) != 1 || ids[0] != "chunk-1" {
		t.Fatalf("unexpected ids payload: %v", payload["ids"])
	}
	metadatas, ok := payload["metadatas"].([]interface{})
	if !ok || len(metadatas) != 1 {
		t.Fatalf("expected one metadata entry, got %v", payload["metadatas"])
	}
	metadata, ok := metadatas[0].(map[string]interface{})
	if !ok || metadata["doc_name"] != "RFP.pdf" {
		t.Fatalf("unexpected metadata: %v", metadatas[0])
	}
}

func TestUpsertFallsBackToAdd(t *testing.T) {
	fake := newFakeChroma(t)
	fake.upsertUnsupported = true
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, fake)
	client.available = true
	client.collectionID = fake.collectionID

	chunk := Chunk{ID: "chunk-1", Text: "text"}
	if err := client.UpsertChunks(context.Background(), []Chunk{chunk}, [][]float32{{0.1}}); err != nil {
		t.Fatalf("UpsertChunks returned error: %v", err)
	}
	if fake.upsertCount() != 0 {
		t.Fatalf("upsert should have been rejected, got %d calls", fake.upsertCount())
	}
	if fake.addCount() != 1 {
		t.Fatalf("expected fallback add call, got %d", fake.addCount())
	}
}

func TestQueryScoredParsesDistances(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, fake)
	client.available = true
	client.collectionID = fake.collectionID

	results, err := client.QueryScored(context.Background(), []float32{0.5, 0.9}, 2)
	if err != nil {
		t.Fatalf("QueryScored failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "chunk-1" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if !results[0].HasScore || results[0].Score != 0.3 {
		t.Fatalf("expected distance 0.3, got %+v", results[0])
	}
	if results[0].Document != "passage text" {
		t.Fatalf("document not parsed: %+v", results[0])
	}
}

func TestQueryRelevanceUnsupported(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, fake)
	client.available = true
	client.collectionID = fake.collectionID

	_, err := client.QueryRelevance(context.Background(), []float32{0.5}, 2)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}

	fake.relevanceMode = true
	results, err := client.QueryRelevance(context.Background(), []float32{0.5}, 2)
	if err != nil {
		t.Fatalf("QueryRelevance failed once supported: %v", err)
	}
	if len(results) != 1 || !results[0].HasScore || results[0].Score != 0.85 {
		t.Fatalf("unexpected relevance results: %+v", results)
	}
}

func TestQueryPlainHasNoScores(t *testing.T) {
	fake := newFakeChroma(t)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := newTestClient(server, fake)
	client.available = true
	client.collectionID = fake.collectionID

	results, err := client.QueryPlain(context.Background(), []float32{0.5}, 2)
	if err != nil {
		t.Fatalf("QueryPlain failed: %v", err)
	}
	if len(results) != 1 || results[0].HasScore {
		t.Fatalf("plain query should carry no scores: %+v", results)
	}
}
