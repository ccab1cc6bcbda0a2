package catalogingester

import (
	"fmt"
	"time"

	"github.com/c360studio/catalogd/catalog"
	"github.com/c360studio/catalogd/events"
	"github.com/c360studio/catalogd/storage"
)

// errorKindUnstorableCertname marks catalogs that parsed cleanly but whose
// certname cannot serve as a storage key.
const errorKindUnstorableCertname = "unstorable-certname"

// Handler turns raw submission payloads into storage and event records. It
// performs no I/O, which keeps the processing path testable without NATS.
type Handler struct{}

// NewHandler creates a submission handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Result holds the outcome of processing one submission. Receipt is always
// set. On success Stored and Processed are populated; on failure Failed and
// Err are.
type Result struct {
	SubmissionID string
	Receipt      *storage.Receipt
	Stored       *storage.StoredCatalog
	Processed    *events.ProcessedPayload
	Failed       *events.FailedPayload
	Err          error
}

// Accepted reports whether the submission produced a canonical catalog.
func (r *Result) Accepted() bool {
	return r.Err == nil
}

// Process parses one raw submission and builds the records to persist and
// publish. Failures here are terminal: parsing is deterministic, so the same
// payload can never succeed on redelivery.
func (h *Handler) Process(submissionID string, data []byte, receivedAt time.Time) *Result {
	cat, err := catalog.Parse(data)
	if err != nil {
		return h.failed(submissionID, catalog.ExtractCertname(data), catalog.ErrorKind(err), err, receivedAt)
	}

	// The store keys catalogs by certname. A certname outside the key
	// character set would fail every redelivery, so reject it here.
	if !storage.ValidCertnameKey(cat.Certname) {
		err := fmt.Errorf("certname %q is not a valid storage key", cat.Certname)
		return h.failed(submissionID, cat.Certname, errorKindUnstorableCertname, err, receivedAt)
	}

	completedAt := time.Now().UTC()
	return &Result{
		SubmissionID: submissionID,
		Stored: &storage.StoredCatalog{
			SubmissionID: submissionID,
			ReceivedAt:   receivedAt,
			Catalog:      cat,
		},
		Receipt: &storage.Receipt{
			ID:             submissionID,
			Certname:       cat.Certname,
			Status:         storage.ReceiptStatusAccepted,
			CatalogVersion: cat.Version,
			ReceivedAt:     receivedAt,
			CompletedAt:    completedAt,
		},
		Processed: &events.ProcessedPayload{
			SubmissionID:  submissionID,
			Certname:      cat.Certname,
			Version:       cat.Version,
			FormatVersion: cat.FormatVersion,
			ResourceCount: len(cat.Resources),
			EdgeCount:     cat.Edges.Len(),
			AliasCount:    len(cat.Aliases),
			ReceivedAt:    receivedAt,
			CompletedAt:   completedAt,
		},
	}
}

func (h *Handler) failed(submissionID, certname, kind string, err error, receivedAt time.Time) *Result {
	return &Result{
		SubmissionID: submissionID,
		Err:          err,
		Receipt: &storage.Receipt{
			ID:          submissionID,
			Certname:    certname,
			Status:      storage.ReceiptStatusFailed,
			ErrorKind:   kind,
			Error:       err.Error(),
			ReceivedAt:  receivedAt,
			CompletedAt: time.Now().UTC(),
		},
		Failed: &events.FailedPayload{
			SubmissionID: submissionID,
			Certname:     certname,
			ErrorKind:    kind,
			Error:        err.Error(),
			ReceivedAt:   receivedAt,
		},
	}
}
