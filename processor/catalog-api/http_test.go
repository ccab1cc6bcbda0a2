package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/c360studio/catalogd/catalog"
	"github.com/c360studio/catalogd/storage"
)

// fakeStore implements CatalogStore in memory.
type fakeStore struct {
	catalogs map[string]*storage.StoredCatalog
	receipts map[string]*storage.Receipt
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		catalogs: make(map[string]*storage.StoredCatalog),
		receipts: make(map[string]*storage.Receipt),
	}
}

func (s *fakeStore) GetCatalog(_ context.Context, certname string) (*storage.StoredCatalog, error) {
	sc, ok := s.catalogs[certname]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return sc, nil
}

func (s *fakeStore) ListCertnames(_ context.Context) ([]string, error) {
	var names []string
	for name := range s.catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeStore) GetReceipt(_ context.Context, id string) (*storage.Receipt, error) {
	r, ok := s.receipts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) ListReceipts(_ context.Context) ([]*storage.Receipt, error) {
	receipts := make([]*storage.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		receipts = append(receipts, r)
	}
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].ReceivedAt.After(receipts[j].ReceivedAt)
	})
	return receipts, nil
}

// fakePublisher records published submissions.
type fakePublisher struct {
	subjects [][2]string // subject, payload
	err      error
}

func (p *fakePublisher) PublishToStream(_ context.Context, subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, [2]string{subject, string(data)})
	return nil
}

// setupTestComponent creates a Component wired to fakes.
func setupTestComponent(_ *testing.T, store CatalogStore, publisher SubmitPublisher) *Component {
	return &Component{
		name:      "catalog-api",
		config:    DefaultConfig(),
		logger:    slog.Default(),
		store:     store,
		publisher: publisher,
	}
}

// registerHandlers wires the component's handlers into a fresh mux and returns a test server.
func registerHandlers(c *Component) *httptest.Server {
	mux := http.NewServeMux()
	c.RegisterHTTPHandlers("api/catalog", mux)
	return httptest.NewServer(mux)
}

// storedCatalogFixture parses a small catalog and wraps it for storage.
func storedCatalogFixture(t *testing.T, certname string) *storage.StoredCatalog {
	t.Helper()
	data := []byte(`{
		"metadata": {"api_version": "1"},
		"data": {
			"certname": "` + certname + `",
			"version": "42",
			"classes": ["main"],
			"tags": ["node"],
			"resources": [
				{"type": "Class", "title": "main"},
				{"type": "Service", "title": "nginx", "parameters": {"ensure": "running"}},
				{"type": "File", "title": "/etc/motd", "parameters": {"mode": "0644"}}
			],
			"edges": [
				{"source": "Class[main]", "target": "Service[nginx]", "relationship": "contains"},
				{"source": "File[/etc/motd]", "target": "Service[nginx]", "relationship": "notifies"}
			]
		}
	}`)
	cat, err := catalog.Parse(data)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return &storage.StoredCatalog{
		SubmissionID: "sub-" + certname,
		ReceivedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Catalog:      cat,
	}
}

func TestHandleListNodes(t *testing.T) {
	store := newFakeStore()
	store.catalogs["web01"] = storedCatalogFixture(t, "web01")
	store.catalogs["db01"] = storedCatalogFixture(t, "db01")

	srv := registerHandlers(setupTestComponent(t, store, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/nodes")
	if err != nil {
		t.Fatalf("GET nodes: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var list NodeList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 2 {
		t.Errorf("expected count 2, got %d", list.Count)
	}
	if len(list.Certnames) != 2 || list.Certnames[0] != "db01" || list.Certnames[1] != "web01" {
		t.Errorf("expected sorted certnames [db01 web01], got %v", list.Certnames)
	}
}

func TestHandleListNodesEmpty(t *testing.T) {
	srv := registerHandlers(setupTestComponent(t, newFakeStore(), nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/nodes")
	if err != nil {
		t.Fatalf("GET nodes: %v", err)
	}
	defer resp.Body.Close()

	var list NodeList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 0 || list.Certnames == nil {
		t.Errorf("expected empty certname array, got %+v", list)
	}
}

func TestHandleGetNode(t *testing.T) {
	store := newFakeStore()
	store.catalogs["web01"] = storedCatalogFixture(t, "web01")

	srv := registerHandlers(setupTestComponent(t, store, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/nodes/web01")
	if err != nil {
		t.Fatalf("GET node: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var sc storage.StoredCatalog
	if err := json.NewDecoder(resp.Body).Decode(&sc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sc.SubmissionID != "sub-web01" {
		t.Errorf("expected submission sub-web01, got %s", sc.SubmissionID)
	}
	if sc.Catalog == nil || sc.Catalog.Certname != "web01" {
		t.Errorf("unexpected catalog: %+v", sc.Catalog)
	}
	if len(sc.Catalog.Resources) != 3 {
		t.Errorf("expected 3 resources, got %d", len(sc.Catalog.Resources))
	}
}

func TestHandleGetNodeNotFound(t *testing.T) {
	srv := registerHandlers(setupTestComponent(t, newFakeStore(), nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/nodes/ghost")
	if err != nil {
		t.Fatalf("GET node: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleNodeResources(t *testing.T) {
	store := newFakeStore()
	store.catalogs["web01"] = storedCatalogFixture(t, "web01")

	srv := registerHandlers(setupTestComponent(t, store, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/nodes/web01/resources")
	if err != nil {
		t.Fatalf("GET resources: %v", err)
	}
	defer resp.Body.Close()

	var list ResourceList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 3 {
		t.Errorf("expected 3 resources, got %d", list.Count)
	}
	// Sorted by (type, title): Class[main], File[/etc/motd], Service[nginx]
	if list.Resources[0].Type != "Class" || list.Resources[2].Type != "Service" {
		t.Errorf("resources not in sorted order: %+v", list.Resources)
	}
}

func TestHandleNodeResourcesTypeFilter(t *testing.T) {
	store := newFakeStore()
	store.catalogs["web01"] = storedCatalogFixture(t, "web01")

	srv := registerHandlers(setupTestComponent(t, store, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/nodes/web01/resources?type=Service")
	if err != nil {
		t.Fatalf("GET resources: %v", err)
	}
	defer resp.Body.Close()

	var list ResourceList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 1 || list.Resources[0].Title != "nginx" {
		t.Errorf("expected only Service[nginx], got %+v", list.Resources)
	}
	if list.Type != "Service" {
		t.Errorf("expected type echo Service, got %s", list.Type)
	}
}

func TestHandleNodeEdges(t *testing.T) {
	store := newFakeStore()
	store.catalogs["web01"] = storedCatalogFixture(t, "web01")

	srv := registerHandlers(setupTestComponent(t, store, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/nodes/web01/edges")
	if err != nil {
		t.Fatalf("GET edges: %v", err)
	}
	defer resp.Body.Close()

	var list EdgeList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 2 {
		t.Errorf("expected 2 edges, got %d", list.Count)
	}
	want := catalog.Edge{
		Source:       catalog.ResourceRef{Type: "Class", Title: "main"},
		Target:       catalog.ResourceRef{Type: "Service", Title: "nginx"},
		Relationship: catalog.RelationshipContains,
	}
	if list.Edges[0] != want {
		t.Errorf("expected first edge %v, got %v", want, list.Edges[0])
	}
}

func TestHandleReceipts(t *testing.T) {
	store := newFakeStore()
	older := &storage.Receipt{
		ID:         "r-old",
		Certname:   "web01",
		Status:     storage.ReceiptStatusAccepted,
		ReceivedAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
	}
	newer := &storage.Receipt{
		ID:         "r-new",
		Status:     storage.ReceiptStatusFailed,
		ErrorKind:  "malformed-payload",
		Error:      "data: missing required field",
		ReceivedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	store.receipts[older.ID] = older
	store.receipts[newer.ID] = newer

	srv := registerHandlers(setupTestComponent(t, store, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/receipts")
	if err != nil {
		t.Fatalf("GET receipts: %v", err)
	}
	defer resp.Body.Close()

	var list ReceiptList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 2 {
		t.Fatalf("expected 2 receipts, got %d", list.Count)
	}
	if list.Receipts[0].ID != "r-new" {
		t.Errorf("expected newest receipt first, got %s", list.Receipts[0].ID)
	}

	// Single receipt fetch
	resp2, err := http.Get(srv.URL + "/api/catalog/receipts/r-old")
	if err != nil {
		t.Fatalf("GET receipt: %v", err)
	}
	defer resp2.Body.Close()

	var got storage.Receipt
	if err := json.NewDecoder(resp2.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "r-old" || got.Status != storage.ReceiptStatusAccepted {
		t.Errorf("unexpected receipt: %+v", got)
	}

	// Missing receipt
	resp3, err := http.Get(srv.URL + "/api/catalog/receipts/nope")
	if err != nil {
		t.Fatalf("GET receipt: %v", err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp3.StatusCode)
	}
}

func TestHandleSubmit(t *testing.T) {
	publisher := &fakePublisher{}
	srv := registerHandlers(setupTestComponent(t, newFakeStore(), publisher))
	defer srv.Close()

	body := []byte(`{"metadata": {"api_version": "1"}, "data": {"certname": "web01", "version": "1", "resources": [], "edges": []}}`)
	resp, err := http.Post(srv.URL+"/api/catalog/submit", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST submit: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var sr SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sr.Status != "submitted" {
		t.Errorf("expected status submitted, got %s", sr.Status)
	}
	if sr.Certname != "web01" {
		t.Errorf("expected certname echo web01, got %q", sr.Certname)
	}

	if len(publisher.subjects) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(publisher.subjects))
	}
	if publisher.subjects[0][0] != "catalog.submit" {
		t.Errorf("expected subject catalog.submit, got %s", publisher.subjects[0][0])
	}
	if publisher.subjects[0][1] != string(body) {
		t.Error("published payload should be the raw request body")
	}
}

func TestHandleSubmitRejectsEmptyBody(t *testing.T) {
	publisher := &fakePublisher{}
	srv := registerHandlers(setupTestComponent(t, newFakeStore(), publisher))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/catalog/submit", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("POST submit: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if len(publisher.subjects) != 0 {
		t.Error("empty body should not be published")
	}
}

func TestHandleSubmitMethodNotAllowed(t *testing.T) {
	srv := registerHandlers(setupTestComponent(t, newFakeStore(), &fakePublisher{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/submit")
	if err != nil {
		t.Fatalf("GET submit: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestStoreNotReady(t *testing.T) {
	srv := registerHandlers(setupTestComponent(t, nil, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/catalog/nodes")
	if err != nil {
		t.Fatalf("GET nodes: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestNodePathParts(t *testing.T) {
	tests := []struct {
		path         string
		wantCertname string
		wantSub      string
	}{
		{"/api/catalog/nodes/web01", "web01", ""},
		{"/api/catalog/nodes/web01/", "web01", ""},
		{"/api/catalog/nodes/web01/resources", "web01", "resources"},
		{"/api/catalog/nodes/web01/edges", "web01", "edges"},
		{"/api/catalog/nodes/dc1/web01/edges", "dc1/web01", "edges"},
		{"/api/catalog/nodes/", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			certname, sub := nodePathParts(tt.path)
			if certname != tt.wantCertname || sub != tt.wantSub {
				t.Errorf("nodePathParts(%q) = (%q, %q), want (%q, %q)",
					tt.path, certname, sub, tt.wantCertname, tt.wantSub)
			}
		})
	}
}
