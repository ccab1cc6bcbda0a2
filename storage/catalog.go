// Package storage persists canonical catalogs and submission receipts using
// NATS KV.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/catalogd/catalog"
)

// Bucket names.
const (
	BucketCatalogs = "CATALOGD_CATALOGS"
	BucketReceipts = "CATALOGD_RECEIPTS"
)

// ReceiptStatus represents the outcome of a submission.
type ReceiptStatus string

const (
	ReceiptStatusAccepted ReceiptStatus = "accepted"
	ReceiptStatusFailed   ReceiptStatus = "failed"
)

// StoredCatalog wraps a canonical catalog with submission bookkeeping. The
// store keeps one catalog per certname; a newer submission for the same node
// replaces the previous one, with KV history retaining recent revisions.
type StoredCatalog struct {
	SubmissionID string           `json:"submission_id"`
	ReceivedAt   time.Time        `json:"received_at"`
	Catalog      *catalog.Catalog `json:"catalog"`
}

// Receipt records the outcome of one submission, success or failure.
type Receipt struct {
	ID             string        `json:"id"`
	Certname       string        `json:"certname,omitempty"`
	Status         ReceiptStatus `json:"status"`
	ErrorKind      string        `json:"error_kind,omitempty"`
	Error          string        `json:"error,omitempty"`
	CatalogVersion string        `json:"catalog_version,omitempty"`
	ReceivedAt     time.Time     `json:"received_at"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// NewSubmissionID generates a unique ID for a submission. Receipts are keyed
// by it.
func NewSubmissionID() string {
	return uuid.New().String()
}

// validKey matches the NATS KV key character set. Certnames outside it
// cannot be stored.
var validKey = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

// ValidCertnameKey reports whether a certname can serve as a storage key.
func ValidCertnameKey(certname string) bool {
	return validKey.MatchString(certname)
}

// Store provides catalog and receipt storage backed by NATS KV.
type Store struct {
	catalogs jetstream.KeyValue
	receipts jetstream.KeyValue
}

// NewStore creates a Store with the given JetStream context. It creates the
// KV buckets if they don't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	catalogs, err := getOrCreateBucket(ctx, js, BucketCatalogs)
	if err != nil {
		return nil, fmt.Errorf("create catalogs bucket: %w", err)
	}

	receipts, err := getOrCreateBucket(ctx, js, BucketReceipts)
	if err != nil {
		return nil, fmt.Errorf("create receipts bucket: %w", err)
	}

	return &Store{
		catalogs: catalogs,
		receipts: receipts,
	}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Catalogd %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// PutCatalog stores the catalog for its node, replacing any previous one.
func (s *Store) PutCatalog(ctx context.Context, sc *StoredCatalog) error {
	if sc.Catalog == nil {
		return fmt.Errorf("stored catalog has no catalog")
	}
	key := sc.Catalog.Certname
	if !ValidCertnameKey(key) {
		return fmt.Errorf("certname %q is not a valid storage key", key)
	}

	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	if _, err := s.catalogs.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store catalog: %w", err)
	}

	return nil
}

// GetCatalog retrieves the stored catalog for a certname.
func (s *Store) GetCatalog(ctx context.Context, certname string) (*StoredCatalog, error) {
	entry, err := s.catalogs.Get(ctx, certname)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get catalog: %w", err)
	}

	var sc StoredCatalog
	if err := json.Unmarshal(entry.Value(), &sc); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	return &sc, nil
}

// ListCertnames returns the certnames with a stored catalog, sorted.
func (s *Store) ListCertnames(ctx context.Context) ([]string, error) {
	keys, err := s.catalogs.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list catalog keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteCatalog removes the stored catalog for a certname.
func (s *Store) DeleteCatalog(ctx context.Context, certname string) error {
	if err := s.catalogs.Delete(ctx, certname); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete catalog: %w", err)
	}
	return nil
}

// PutReceipt stores a submission receipt keyed by submission ID.
func (s *Store) PutReceipt(ctx context.Context, r *Receipt) error {
	if r.ID == "" {
		return fmt.Errorf("receipt has no ID")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	if _, err := s.receipts.Put(ctx, r.ID, data); err != nil {
		return fmt.Errorf("store receipt: %w", err)
	}

	return nil
}

// GetReceipt retrieves a receipt by submission ID.
func (s *Store) GetReceipt(ctx context.Context, id string) (*Receipt, error) {
	entry, err := s.receipts.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}

	var r Receipt
	if err := json.Unmarshal(entry.Value(), &r); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}

	return &r, nil
}

// ListReceipts returns all receipts, newest first.
func (s *Store) ListReceipts(ctx context.Context) ([]*Receipt, error) {
	keys, err := s.receipts.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list receipt keys: %w", err)
	}

	receipts := make([]*Receipt, 0, len(keys))
	for _, key := range keys {
		entry, err := s.receipts.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var r Receipt
		if err := json.Unmarshal(entry.Value(), &r); err != nil {
			continue
		}
		receipts = append(receipts, &r)
	}

	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].ReceivedAt.After(receipts[j].ReceivedAt)
	})
	return receipts, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
