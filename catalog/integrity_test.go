package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyEdgeIntegrity(t *testing.T) {
	cat := &Catalog{
		Resources: map[ResourceRef]*Resource{
			{Type: "Class", Title: "a"}: testResource("Class", "a", nil),
			{Type: "Class", Title: "b"}: testResource("Class", "b", nil),
		},
		Edges: NewEdgeSet(
			Edge{Source: ResourceRef{Type: "Class", Title: "a"}, Target: ResourceRef{Type: "Class", Title: "b"}, Relationship: RelationshipContains},
		),
	}
	require.NoError(t, verifyEdgeIntegrity(cat))
}

func TestVerifyEdgeIntegrityDanglingTarget(t *testing.T) {
	edge := Edge{
		Source:       ResourceRef{Type: "Class", Title: "a"},
		Target:       ResourceRef{Type: "Class", Title: "ghost"},
		Relationship: RelationshipNotifies,
	}
	cat := &Catalog{
		Resources: map[ResourceRef]*Resource{
			{Type: "Class", Title: "a"}: testResource("Class", "a", nil),
		},
		Edges: NewEdgeSet(edge),
	}
	err := verifyEdgeIntegrity(cat)
	var refErr *DanglingReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, edge, refErr.Edge, "the error names the offending edge")
	assert.Equal(t, edge.Target, refErr.Missing, "the error names the missing identifier")
}

func TestVerifyEdgeIntegrityDanglingSource(t *testing.T) {
	edge := Edge{
		Source:       ResourceRef{Type: "File", Title: "/missing"},
		Target:       ResourceRef{Type: "Class", Title: "a"},
		Relationship: RelationshipBefore,
	}
	cat := &Catalog{
		Resources: map[ResourceRef]*Resource{
			{Type: "Class", Title: "a"}: testResource("Class", "a", nil),
		},
		Edges: NewEdgeSet(edge),
	}
	err := verifyEdgeIntegrity(cat)
	var refErr *DanglingReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, edge.Source, refErr.Missing)
}

func TestVerifyEdgeIntegrityReportsFirstInSortedOrder(t *testing.T) {
	cat := &Catalog{
		Resources: map[ResourceRef]*Resource{},
		Edges: NewEdgeSet(
			Edge{Source: ResourceRef{Type: "Class", Title: "z"}, Target: ResourceRef{Type: "Class", Title: "z2"}, Relationship: RelationshipBefore},
			Edge{Source: ResourceRef{Type: "Class", Title: "a"}, Target: ResourceRef{Type: "Class", Title: "a2"}, Relationship: RelationshipBefore},
		),
	}
	err := verifyEdgeIntegrity(cat)
	var refErr *DanglingReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, ResourceRef{Type: "Class", Title: "a"}, refErr.Missing)
}
