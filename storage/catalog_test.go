package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/c360studio/catalogd/catalog"
)

func TestValidCertnameKey(t *testing.T) {
	t.Run("accepts hostnames", func(t *testing.T) {
		valid := []string{
			"web01.example.com",
			"db-primary",
			"node_1",
			"a",
			"host.sub.domain.io",
		}
		for _, name := range valid {
			if !ValidCertnameKey(name) {
				t.Errorf("expected %q to be a valid key", name)
			}
		}
	})

	t.Run("rejects invalid keys", func(t *testing.T) {
		invalid := []string{
			"",
			"has space",
			"star*name",
			"gt>name",
			"tab\tname",
		}
		for _, name := range invalid {
			if ValidCertnameKey(name) {
				t.Errorf("expected %q to be rejected", name)
			}
		}
	})
}

func TestPutCatalogValidation(t *testing.T) {
	// Validation runs before any KV access, so a zero Store suffices.
	s := &Store{}
	ctx := context.Background()

	t.Run("rejects missing catalog", func(t *testing.T) {
		err := s.PutCatalog(ctx, &StoredCatalog{SubmissionID: "x"})
		if err == nil {
			t.Fatal("expected error for missing catalog")
		}
	})

	t.Run("rejects invalid certname key", func(t *testing.T) {
		err := s.PutCatalog(ctx, &StoredCatalog{
			SubmissionID: "x",
			Catalog:      &catalog.Catalog{Certname: "bad name"},
		})
		if err == nil {
			t.Fatal("expected error for invalid certname")
		}
	})
}

func TestPutReceiptValidation(t *testing.T) {
	s := &Store{}
	if err := s.PutReceipt(context.Background(), &Receipt{}); err == nil {
		t.Fatal("expected error for receipt without ID")
	}
}

func TestNewSubmissionID(t *testing.T) {
	a := NewSubmissionID()
	b := NewSubmissionID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty submission IDs")
	}
	if a == b {
		t.Fatal("expected unique submission IDs")
	}
}

func TestStoredCatalogJSON(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	sc := &StoredCatalog{
		SubmissionID: "sub-1",
		ReceivedAt:   now,
		Catalog: &catalog.Catalog{
			Certname:      "n1",
			APIVersion:    "1",
			Version:       "7",
			FormatVersion: catalog.FormatVersion,
			Classes:       catalog.NewStringSet("main"),
			Tags:          catalog.NewStringSet(),
			Resources:     map[catalog.ResourceRef]*catalog.Resource{},
			Edges:         catalog.NewEdgeSet(),
		},
	}

	data, err := json.Marshal(sc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back StoredCatalog
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.SubmissionID != "sub-1" {
		t.Errorf("unexpected submission ID: %s", back.SubmissionID)
	}
	if back.Catalog == nil || back.Catalog.Certname != "n1" {
		t.Errorf("catalog did not survive round trip: %+v", back.Catalog)
	}
	if !back.ReceivedAt.Equal(now) {
		t.Errorf("unexpected received time: %v", back.ReceivedAt)
	}
}

func TestBucketNames(t *testing.T) {
	if BucketCatalogs != "CATALOGD_CATALOGS" {
		t.Errorf("unexpected catalogs bucket: %s", BucketCatalogs)
	}
	if BucketReceipts != "CATALOGD_RECEIPTS" {
		t.Errorf("unexpected receipts bucket: %s", BucketReceipts)
	}
}
