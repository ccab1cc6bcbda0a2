package catalog

import (
	"errors"
	"fmt"
)

// MalformedSpecError reports a resource specifier that does not match the
// "Type[Title]" form.
type MalformedSpecError struct {
	Spec string
}

func (e *MalformedSpecError) Error() string {
	return fmt.Sprintf("malformed resource specifier %q", e.Spec)
}

// InvalidRelationshipError reports an edge relationship keyword outside the
// closed keyword set.
type InvalidRelationshipError struct {
	Relationship string
}

func (e *InvalidRelationshipError) Error() string {
	return fmt.Sprintf("invalid relationship %q", e.Relationship)
}

// MalformedPayloadError reports a submission payload whose shape does not
// match the wire contract. Field is the canonical path of the offending
// field, such as "data.version" or "resources[3].title".
type MalformedPayloadError struct {
	Field  string
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload field %q: %s", e.Field, e.Reason)
}

// DanglingReferenceError reports an edge endpoint that names no declared
// resource after alias resolution.
type DanglingReferenceError struct {
	Edge    Edge
	Missing ResourceRef
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("edge %s references undeclared resource %s", e.Edge, e.Missing)
}

// DuplicateResourceError reports two resource records sharing one
// identifier.
type DuplicateResourceError struct {
	Ref ResourceRef
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("duplicate resource %s", e.Ref)
}

// AliasConflictError reports one alias identifier registered against two
// different canonical resources.
type AliasConflictError struct {
	Alias       ResourceRef
	Existing    ResourceRef
	Conflicting ResourceRef
}

func (e *AliasConflictError) Error() string {
	return fmt.Sprintf("alias %s already maps to %s, cannot remap to %s",
		e.Alias, e.Existing, e.Conflicting)
}

// InvalidAliasError reports an alias parameter whose value cannot be read
// as one or more titles.
type InvalidAliasError struct {
	Resource ResourceRef
	Reason   string
}

func (e *InvalidAliasError) Error() string {
	return fmt.Sprintf("invalid alias on %s: %s", e.Resource, e.Reason)
}

// ErrorKind returns a stable label for a pipeline error, for receipts,
// events and metric labels. It returns the empty string for errors the
// pipeline does not produce.
func ErrorKind(err error) string {
	var (
		specErr    *MalformedSpecError
		relErr     *InvalidRelationshipError
		payloadErr *MalformedPayloadError
		refErr     *DanglingReferenceError
		dupErr     *DuplicateResourceError
		aliasErr   *AliasConflictError
		badAlias   *InvalidAliasError
	)
	switch {
	case errors.As(err, &specErr):
		return "malformed-spec"
	case errors.As(err, &relErr):
		return "invalid-relationship"
	case errors.As(err, &payloadErr):
		return "malformed-payload"
	case errors.As(err, &refErr):
		return "dangling-reference"
	case errors.As(err, &dupErr):
		return "duplicate-resource"
	case errors.As(err, &aliasErr):
		return "alias-conflict"
	case errors.As(err, &badAlias):
		return "invalid-alias"
	}
	return ""
}

// IsPayloadError reports whether err is a terminal pipeline error caused by
// the payload itself. Payload errors must not be retried; the same bytes
// will fail the same way every time.
func IsPayloadError(err error) bool {
	return ErrorKind(err) != ""
}
