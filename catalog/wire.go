package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FormatVersion is the canonical catalog format produced by Parse.
const FormatVersion = 6

// wireEnvelope is a decoded, key-canonicalized submission payload. It holds
// the raw material for the normalization stages.
type wireEnvelope struct {
	apiVersion string
	certname   string
	version    string
	classes    []string
	tags       []string
	resources  []wireResource
	edges      []wireEdge
}

type wireResource struct {
	resType    string
	title      string
	tags       []string
	parameters map[string]any
	extra      map[string]any
}

type wireEdge struct {
	source       string
	target       string
	relationship string
}

// decodeEnvelope validates the payload against the wire contract: a JSON
// object with a metadata section carrying api_version and a data section
// carrying certname, version, optional classes and tags, and the resource
// and edge arrays. Unknown envelope fields are rejected; unknown resource
// attributes are preserved verbatim.
func decodeEnvelope(data []byte) (*wireEnvelope, error) {
	root, err := decodeObject(data, "payload")
	if err != nil {
		return nil, err
	}
	for key := range root {
		if key != "metadata" && key != "data" {
			return nil, &MalformedPayloadError{Field: key, Reason: "unknown field"}
		}
	}

	meta, err := objectSection(root, "metadata")
	if err != nil {
		return nil, err
	}
	env := &wireEnvelope{}
	env.apiVersion, err = versionString(meta, "metadata", "api_version")
	if err != nil {
		return nil, err
	}
	for key := range meta {
		if key != "api_version" {
			return nil, &MalformedPayloadError{Field: "metadata." + key, Reason: "unknown field"}
		}
	}

	payload, err := objectSection(root, "data")
	if err != nil {
		return nil, err
	}
	if raw, ok := payload["name"]; ok {
		if _, both := payload["certname"]; both {
			return nil, &MalformedPayloadError{Field: "data.name", Reason: "conflicts with certname"}
		}
		payload["certname"] = raw
		delete(payload, "name")
	}
	for key := range payload {
		switch key {
		case "certname", "version", "classes", "tags", "resources", "edges":
		default:
			return nil, &MalformedPayloadError{Field: "data." + key, Reason: "unknown field"}
		}
	}

	env.certname, err = requiredString(payload, "data", "certname")
	if err != nil {
		return nil, err
	}
	env.version, err = versionString(payload, "data", "version")
	if err != nil {
		return nil, err
	}
	env.classes, err = stringList(payload, "data", "classes")
	if err != nil {
		return nil, err
	}
	env.tags, err = stringList(payload, "data", "tags")
	if err != nil {
		return nil, err
	}
	env.resources, err = decodeResources(payload)
	if err != nil {
		return nil, err
	}
	env.edges, err = decodeEdges(payload)
	if err != nil {
		return nil, err
	}
	return env, nil
}

func decodeResources(payload map[string]json.RawMessage) ([]wireResource, error) {
	items, err := requiredArray(payload, "data", "resources")
	if err != nil {
		return nil, err
	}
	resources := make([]wireResource, 0, len(items))
	for i, item := range items {
		section := fmt.Sprintf("resources[%d]", i)
		rec, err := decodeObject(item, section)
		if err != nil {
			return nil, err
		}
		wr := wireResource{}
		wr.resType, err = requiredString(rec, section, "type")
		if err != nil {
			return nil, err
		}
		wr.title, err = requiredString(rec, section, "title")
		if err != nil {
			return nil, err
		}
		wr.tags, err = stringList(rec, section, "tags")
		if err != nil {
			return nil, err
		}
		wr.parameters, err = objectAny(rec, section, "parameters")
		if err != nil {
			return nil, err
		}
		for key, raw := range rec {
			switch key {
			case "type", "title", "tags", "parameters":
				continue
			}
			v, err := decodeAny(raw)
			if err != nil {
				return nil, &MalformedPayloadError{Field: section + "." + key, Reason: "not a valid JSON value"}
			}
			if wr.extra == nil {
				wr.extra = map[string]any{}
			}
			wr.extra[key] = v
		}
		resources = append(resources, wr)
	}
	return resources, nil
}

func decodeEdges(payload map[string]json.RawMessage) ([]wireEdge, error) {
	items, err := requiredArray(payload, "data", "edges")
	if err != nil {
		return nil, err
	}
	edges := make([]wireEdge, 0, len(items))
	for i, item := range items {
		section := fmt.Sprintf("edges[%d]", i)
		rec, err := decodeObject(item, section)
		if err != nil {
			return nil, err
		}
		for key := range rec {
			switch key {
			case "source", "target", "relationship":
			default:
				return nil, &MalformedPayloadError{Field: section + "." + key, Reason: "unknown field"}
			}
		}
		we := wireEdge{}
		we.source, err = rawString(rec, section, "source")
		if err != nil {
			return nil, err
		}
		we.target, err = rawString(rec, section, "target")
		if err != nil {
			return nil, err
		}
		we.relationship, err = rawString(rec, section, "relationship")
		if err != nil {
			return nil, err
		}
		edges = append(edges, we)
	}
	return edges, nil
}

// ExtractCertname pulls the node name out of a submission payload without
// running the pipeline. Best effort, for failure diagnostics only; returns
// the empty string when the payload does not yield one.
func ExtractCertname(data []byte) string {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil || root == nil {
		return ""
	}
	root, err := canonicalKeys(root, "payload")
	if err != nil {
		return ""
	}
	section, err := objectSection(root, "data")
	if err != nil {
		return ""
	}
	for _, key := range []string{"certname", "name"} {
		raw, ok := section[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// canonicalKey maps a wire key to its canonical field identifier:
// lower-case, hyphens folded to underscores. Values are never transformed.
func canonicalKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(k), "-", "_")
}

// canonicalKeys rewrites a record's keys to canonical form. Two distinct
// keys collapsing onto one identifier make the record ambiguous.
func canonicalKeys(m map[string]json.RawMessage, section string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		ck := canonicalKey(k)
		if _, dup := out[ck]; dup {
			return nil, &MalformedPayloadError{
				Field:  section + "." + ck,
				Reason: "duplicate key after canonicalization",
			}
		}
		out[ck] = v
	}
	return out, nil
}

func decodeObject(data []byte, section string) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return nil, &MalformedPayloadError{Field: section, Reason: "not a JSON object"}
	}
	return canonicalKeys(m, section)
}

func objectSection(root map[string]json.RawMessage, name string) (map[string]json.RawMessage, error) {
	raw, ok := root[name]
	if !ok {
		return nil, &MalformedPayloadError{Field: name, Reason: "required section missing"}
	}
	return decodeObject(raw, name)
}

// requiredString reads a mandatory non-empty string field.
func requiredString(m map[string]json.RawMessage, section, key string) (string, error) {
	s, err := rawString(m, section, key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &MalformedPayloadError{Field: section + "." + key, Reason: "must not be empty"}
	}
	return s, nil
}

// rawString reads a mandatory string field, empty permitted. Downstream
// stages decide whether an empty value is meaningful.
func rawString(m map[string]json.RawMessage, section, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", &MalformedPayloadError{Field: section + "." + key, Reason: "required field missing"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &MalformedPayloadError{Field: section + "." + key, Reason: "must be a string"}
	}
	return s, nil
}

// versionString reads a mandatory field that producers send as either a
// string or a number, normalized to its string form.
func versionString(m map[string]json.RawMessage, section, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", &MalformedPayloadError{Field: section + "." + key, Reason: "required field missing"}
	}
	v, err := decodeAny(raw)
	if err != nil {
		return "", &MalformedPayloadError{Field: section + "." + key, Reason: "not a valid JSON value"}
	}
	switch v := v.(type) {
	case string:
		if v == "" {
			return "", &MalformedPayloadError{Field: section + "." + key, Reason: "must not be empty"}
		}
		return v, nil
	case json.Number:
		return v.String(), nil
	}
	return "", &MalformedPayloadError{Field: section + "." + key, Reason: "must be a string or number"}
}

// stringList reads an optional array-of-strings field. Absent and null both
// mean empty; duplicates are tolerated here and collapse later.
func stringList(m map[string]json.RawMessage, section, key string) ([]string, error) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &MalformedPayloadError{Field: section + "." + key, Reason: "must be an array of strings"}
	}
	return out, nil
}

// requiredArray reads a mandatory array field as raw elements.
func requiredArray(m map[string]json.RawMessage, section, key string) ([]json.RawMessage, error) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil, &MalformedPayloadError{Field: section + "." + key, Reason: "required field missing"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &MalformedPayloadError{Field: section + "." + key, Reason: "must be an array"}
	}
	return items, nil
}

// objectAny reads an optional object field into a generic map. Numbers are
// kept as json.Number so values survive re-serialization verbatim.
func objectAny(m map[string]json.RawMessage, section, key string) (map[string]any, error) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, &MalformedPayloadError{Field: section + "." + key, Reason: "must be an object"}
	}
	return out, nil
}

func decodeAny(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
