package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexResources(t *testing.T) {
	raw := []wireResource{
		{resType: "Class", title: "foo", tags: []string{"a", "a", "b"}},
		{resType: "Class", title: "bar"},
		{resType: "File", title: "foo", parameters: map[string]any{"mode": "0644"}},
	}
	resources, err := indexResources(raw)
	require.NoError(t, err)
	assert.Len(t, resources, 3, "one entry per distinct type/title pair")

	foo := resources[ResourceRef{Type: "Class", Title: "foo"}]
	require.NotNil(t, foo)
	assert.True(t, foo.Tags.Equal(NewStringSet("a", "b")), "tags collapse to a set")

	bar := resources[ResourceRef{Type: "Class", Title: "bar"}]
	require.NotNil(t, bar)
	assert.NotNil(t, bar.Parameters, "absent parameters become an empty map")
	assert.Empty(t, bar.Parameters)

	file := resources[ResourceRef{Type: "File", Title: "foo"}]
	require.NotNil(t, file, "same title under a different type is a distinct resource")
	assert.Equal(t, "0644", file.Parameters["mode"])
}

func TestIndexResourcesRejectsDuplicates(t *testing.T) {
	raw := []wireResource{
		{resType: "Class", title: "foo"},
		{resType: "Class", title: "foo", tags: []string{"x"}},
	}
	_, err := indexResources(raw)
	var dupErr *DuplicateResourceError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, ResourceRef{Type: "Class", Title: "foo"}, dupErr.Ref)
}
