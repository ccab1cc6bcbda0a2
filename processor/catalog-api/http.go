package catalogapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/c360studio/catalogd/catalog"
	"github.com/c360studio/catalogd/events"
	"github.com/c360studio/catalogd/storage"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// RegisterHTTPHandlers registers all catalog-api HTTP handlers under the given
// prefix. The prefix should be the path segment without a trailing slash
// (e.g. "api/catalog"). Handlers are registered as:
//
//	GET  <prefix>/nodes
//	GET  <prefix>/nodes/<certname>
//	GET  <prefix>/nodes/<certname>/resources[?type=<type>]
//	GET  <prefix>/nodes/<certname>/edges
//	GET  <prefix>/receipts
//	GET  <prefix>/receipts/<id>
//	POST <prefix>/submit
func (c *Component) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	// Normalise: ensure leading slash and trailing slash.
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"nodes", c.handleListNodes)
	mux.HandleFunc(prefix+"nodes/", c.handleNode)
	mux.HandleFunc(prefix+"receipts", c.handleListReceipts)
	mux.HandleFunc(prefix+"receipts/", c.handleGetReceipt)
	mux.HandleFunc(prefix+"submit", c.handleSubmit)
}

// NodeList is the response body for GET nodes.
type NodeList struct {
	Certnames []string `json:"certnames"`
	Count     int      `json:"count"`
}

// ResourceList is the response body for GET nodes/<certname>/resources.
type ResourceList struct {
	Certname  string              `json:"certname"`
	Type      string              `json:"type,omitempty"`
	Resources []*catalog.Resource `json:"resources"`
	Count     int                 `json:"count"`
}

// EdgeList is the response body for GET nodes/<certname>/edges.
type EdgeList struct {
	Certname string         `json:"certname"`
	Edges    []catalog.Edge `json:"edges"`
	Count    int            `json:"count"`
}

// ReceiptList is the response body for GET receipts.
type ReceiptList struct {
	Receipts []*storage.Receipt `json:"receipts"`
	Count    int                `json:"count"`
}

// SubmitResponse is the response body for POST submit.
type SubmitResponse struct {
	Status   string `json:"status"`
	Certname string `json:"certname,omitempty"`
}

// handleListNodes handles GET nodes.
func (c *Component) handleListNodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	store := c.getStore()
	if store == nil {
		http.Error(w, "Store not ready", http.StatusServiceUnavailable)
		return
	}

	certnames, err := store.ListCertnames(r.Context())
	if err != nil {
		c.logger.Error("Failed to list nodes", "error", err)
		http.Error(w, "Failed to list nodes", http.StatusInternalServerError)
		return
	}
	if certnames == nil {
		certnames = []string{}
	}

	writeJSON(w, http.StatusOK, NodeList{Certnames: certnames, Count: len(certnames)})
}

// handleNode handles GET nodes/<certname> and its resources and edges
// sub-collections.
func (c *Component) handleNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	certname, sub := nodePathParts(r.URL.Path)
	if certname == "" {
		http.Error(w, "Certname required", http.StatusBadRequest)
		return
	}

	store := c.getStore()
	if store == nil {
		http.Error(w, "Store not ready", http.StatusServiceUnavailable)
		return
	}

	sc, err := store.GetCatalog(r.Context(), certname)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Node not found", http.StatusNotFound)
			return
		}
		c.logger.Error("Failed to get catalog", "certname", certname, "error", err)
		http.Error(w, "Failed to retrieve catalog", http.StatusInternalServerError)
		return
	}

	switch sub {
	case "":
		writeJSON(w, http.StatusOK, sc)
	case "resources":
		writeJSON(w, http.StatusOK, resourceList(sc.Catalog, r.URL.Query().Get("type")))
	case "edges":
		writeJSON(w, http.StatusOK, EdgeList{
			Certname: sc.Catalog.Certname,
			Edges:    sc.Catalog.Edges.Sorted(),
			Count:    sc.Catalog.Edges.Len(),
		})
	default:
		http.Error(w, "Unknown node collection", http.StatusNotFound)
	}
}

// resourceList slices a catalog's resources in sorted identifier order,
// optionally filtered by exact resource type.
func resourceList(cat *catalog.Catalog, typeFilter string) ResourceList {
	resources := make([]*catalog.Resource, 0, len(cat.Resources))
	for _, ref := range cat.ResourceRefs() {
		if typeFilter != "" && ref.Type != typeFilter {
			continue
		}
		resources = append(resources, cat.Resources[ref])
	}
	return ResourceList{
		Certname:  cat.Certname,
		Type:      typeFilter,
		Resources: resources,
		Count:     len(resources),
	}
}

// handleListReceipts handles GET receipts.
func (c *Component) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	store := c.getStore()
	if store == nil {
		http.Error(w, "Store not ready", http.StatusServiceUnavailable)
		return
	}

	receipts, err := store.ListReceipts(r.Context())
	if err != nil {
		c.logger.Error("Failed to list receipts", "error", err)
		http.Error(w, "Failed to list receipts", http.StatusInternalServerError)
		return
	}
	if receipts == nil {
		receipts = []*storage.Receipt{}
	}

	writeJSON(w, http.StatusOK, ReceiptList{Receipts: receipts, Count: len(receipts)})
}

// handleGetReceipt handles GET receipts/<id>.
func (c *Component) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := extractIDFromPath(r.URL.Path, "/receipts/")
	if id == "" {
		http.Error(w, "Receipt ID required", http.StatusBadRequest)
		return
	}

	store := c.getStore()
	if store == nil {
		http.Error(w, "Store not ready", http.StatusServiceUnavailable)
		return
	}

	receipt, err := store.GetReceipt(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Receipt not found", http.StatusNotFound)
			return
		}
		c.logger.Error("Failed to get receipt", "id", id, "error", err)
		http.Error(w, "Failed to retrieve receipt", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// handleSubmit handles POST submit. The raw body is republished to the
// submission subject; parsing happens in the ingester, so acceptance here
// only means the payload was queued.
func (c *Component) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	publisher := c.getPublisher()
	if publisher == nil {
		http.Error(w, "Publisher not ready", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		http.Error(w, "Empty submission", http.StatusBadRequest)
		return
	}

	if err := publisher.PublishToStream(r.Context(), events.SubjectSubmit, data); err != nil {
		c.logger.Error("Failed to publish submission", "error", err)
		http.Error(w, "Failed to submit catalog", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitResponse{
		Status:   "submitted",
		Certname: catalog.ExtractCertname(data),
	})
}

// nodePathParts splits a node path into certname and sub-collection.
// Certnames may contain slashes, so the sub-collection is recognized from
// the end of the path.
func nodePathParts(path string) (certname, sub string) {
	idx := strings.Index(path, "/nodes/")
	if idx == -1 {
		return "", ""
	}
	remainder := strings.Trim(path[idx+len("/nodes/"):], "/")
	if remainder == "" {
		return "", ""
	}
	if rest, ok := strings.CutSuffix(remainder, "/resources"); ok {
		return rest, "resources"
	}
	if rest, ok := strings.CutSuffix(remainder, "/edges"); ok {
		return rest, "edges"
	}
	return remainder, ""
}

// extractIDFromPath extracts an ID from a path segment.
// Example: extractIDFromPath("/api/catalog/receipts/abc123", "/receipts/") returns "abc123"
func extractIDFromPath(path, prefix string) string {
	idx := strings.Index(path, prefix)
	if idx == -1 {
		return ""
	}

	remainder := path[idx+len(prefix):]
	// Remove any trailing segments or slashes
	if slashIdx := strings.Index(remainder, "/"); slashIdx != -1 {
		remainder = remainder[:slashIdx]
	}

	return strings.TrimSpace(remainder)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; log only in callers.
		_ = err
	}
}
