// Package events defines the NATS subjects and payloads for catalog
// submissions and their outcomes.
//
// Submissions arrive on SubjectSubmit carrying the raw wire payload bytes.
// Outcomes are published per node under "catalog.processed.<certname>" and
// "catalog.failed.<certname>", wrapped in a semstreams BaseMessage. Use
// ParseEventPayload[T] to unwrap into typed events on the consumer side.
package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	registrations := []*component.PayloadRegistration{
		{
			Domain:      "catalog",
			Category:    "processed",
			Version:     "v1",
			Description: "Outcome event for an accepted catalog submission",
			Factory:     func() any { return &ProcessedPayload{} },
		},
		{
			Domain:      "catalog",
			Category:    "failed",
			Version:     "v1",
			Description: "Outcome event for a rejected catalog submission",
			Factory:     func() any { return &FailedPayload{} },
		},
	}
	for _, reg := range registrations {
		if err := component.RegisterPayload(reg); err != nil {
			panic("failed to register catalog event payload: " + err.Error())
		}
	}
}

// Message types for catalog outcome events.
var (
	ProcessedType = message.Type{Domain: "catalog", Category: "processed", Version: "v1"}
	FailedType    = message.Type{Domain: "catalog", Category: "failed", Version: "v1"}
)

// Subjects on the CATALOGS stream.
const (
	// SubjectSubmit carries raw submission payload bytes, unwrapped.
	SubjectSubmit = "catalog.submit"

	// SubjectProcessedWildcard matches the processed events of all nodes.
	SubjectProcessedWildcard = "catalog.processed.>"

	// SubjectFailedWildcard matches the failed events of all nodes.
	SubjectFailedWildcard = "catalog.failed.>"
)

// SubjectProcessed returns the outcome subject for an accepted submission.
func SubjectProcessed(certname string) string {
	return "catalog.processed." + subjectToken(certname)
}

// SubjectFailed returns the outcome subject for a rejected submission.
// Submissions that failed before a certname could be extracted publish
// under the "unknown" token.
func SubjectFailed(certname string) string {
	return "catalog.failed." + subjectToken(certname)
}

// subjectToken sanitizes a certname for use in a NATS subject. Dots are
// fine (they split the name into subject tokens under the wildcard);
// whitespace and wildcard characters are not.
func subjectToken(certname string) string {
	if certname == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '*', '>':
			return '_'
		}
		return r
	}, certname)
}

// ProcessedPayload is the outcome event for an accepted submission.
type ProcessedPayload struct {
	SubmissionID  string    `json:"submission_id"`
	Certname      string    `json:"certname"`
	Version       string    `json:"version"`
	FormatVersion int       `json:"format_version"`
	ResourceCount int       `json:"resource_count"`
	EdgeCount     int       `json:"edge_count"`
	AliasCount    int       `json:"alias_count"`
	ReceivedAt    time.Time `json:"received_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Schema implements message.Payload.
func (p *ProcessedPayload) Schema() message.Type { return ProcessedType }

// Validate implements message.Payload.
func (p *ProcessedPayload) Validate() error {
	if p.SubmissionID == "" {
		return fmt.Errorf("submission_id is required")
	}
	if p.Certname == "" {
		return fmt.Errorf("certname is required")
	}
	return nil
}

func (p *ProcessedPayload) MarshalJSON() ([]byte, error) {
	type Alias ProcessedPayload
	return json.Marshal((*Alias)(p))
}

func (p *ProcessedPayload) UnmarshalJSON(data []byte) error {
	type Alias ProcessedPayload
	return json.Unmarshal(data, (*Alias)(p))
}

// FailedPayload is the outcome event for a rejected submission. Certname is
// best effort; a payload can fail before one is known.
type FailedPayload struct {
	SubmissionID string    `json:"submission_id"`
	Certname     string    `json:"certname,omitempty"`
	ErrorKind    string    `json:"error_kind"`
	Error        string    `json:"error"`
	ReceivedAt   time.Time `json:"received_at"`
}

// Schema implements message.Payload.
func (p *FailedPayload) Schema() message.Type { return FailedType }

// Validate implements message.Payload.
func (p *FailedPayload) Validate() error {
	if p.SubmissionID == "" {
		return fmt.Errorf("submission_id is required")
	}
	if p.Error == "" {
		return fmt.Errorf("error is required")
	}
	return nil
}

func (p *FailedPayload) MarshalJSON() ([]byte, error) {
	type Alias FailedPayload
	return json.Marshal((*Alias)(p))
}

func (p *FailedPayload) UnmarshalJSON(data []byte) error {
	type Alias FailedPayload
	return json.Unmarshal(data, (*Alias)(p))
}

// ParseEventPayload unwraps a BaseMessage envelope into a typed event.
func ParseEventPayload[T any](data []byte) (*T, error) {
	var rawMsg struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &rawMsg); err != nil {
		return nil, fmt.Errorf("unmarshal BaseMessage: %w", err)
	}
	if len(rawMsg.Payload) == 0 {
		return nil, fmt.Errorf("empty payload in BaseMessage")
	}

	var result T
	if err := json.Unmarshal(rawMsg.Payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal payload into %T: %w", result, err)
	}
	return &result, nil
}
