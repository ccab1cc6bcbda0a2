package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{&MalformedSpecError{Spec: "Classfoo"}, "malformed-spec"},
		{&InvalidRelationshipError{Relationship: "triggers"}, "invalid-relationship"},
		{&MalformedPayloadError{Field: "data.version", Reason: "missing"}, "malformed-payload"},
		{&DanglingReferenceError{}, "dangling-reference"},
		{&DuplicateResourceError{}, "duplicate-resource"},
		{&AliasConflictError{}, "alias-conflict"},
		{&InvalidAliasError{}, "invalid-alias"},
		{errors.New("disk on fire"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, ErrorKind(tt.err))
	}
}

func TestErrorKindSeesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("processing submission: %w", &MalformedSpecError{Spec: "x"})
	assert.Equal(t, "malformed-spec", ErrorKind(err))
	assert.True(t, IsPayloadError(err))
	assert.False(t, IsPayloadError(errors.New("nats timeout")))
}

func TestErrorMessages(t *testing.T) {
	edge := Edge{
		Source:       ResourceRef{Type: "Class", Title: "a"},
		Target:       ResourceRef{Type: "Class", Title: "ghost"},
		Relationship: RelationshipNotifies,
	}
	err := &DanglingReferenceError{Edge: edge, Missing: edge.Target}
	assert.Contains(t, err.Error(), "Class[ghost]")
	assert.Contains(t, err.Error(), "Class[a] -[notifies]-> Class[ghost]")

	assert.Equal(t, `malformed resource specifier "Classfoo"`, (&MalformedSpecError{Spec: "Classfoo"}).Error())
	assert.Equal(t, `invalid relationship "triggers"`, (&InvalidRelationshipError{Relationship: "triggers"}).Error())
}
