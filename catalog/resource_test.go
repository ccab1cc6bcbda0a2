package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceJSONSplicesExtra(t *testing.T) {
	res := &Resource{
		Type:       "File",
		Title:      "/etc/hosts",
		Tags:       NewStringSet("file", "node"),
		Parameters: map[string]any{"mode": "0644"},
		Extra: map[string]any{
			"exported": false,
			"file":     "/manifests/site.pp",
			"line":     json.Number("17"),
		},
	}
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "File",
		"title": "/etc/hosts",
		"tags": ["file", "node"],
		"parameters": {"mode": "0644"},
		"exported": false,
		"file": "/manifests/site.pp",
		"line": 17
	}`, string(data))

	var back Resource
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "File", back.Type)
	assert.Equal(t, "/etc/hosts", back.Title)
	assert.True(t, back.Tags.Equal(NewStringSet("file", "node")))
	assert.Equal(t, "0644", back.Parameters["mode"])
	assert.Equal(t, false, back.Extra["exported"])
	assert.Equal(t, "/manifests/site.pp", back.Extra["file"])
}

func TestResourceJSONNilMaps(t *testing.T) {
	res := &Resource{Type: "Class", Title: "foo"}
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Class","title":"foo","tags":[],"parameters":{}}`, string(data))
}
