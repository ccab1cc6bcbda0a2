package catalog

import (
	"encoding/json"
)

// Resource is one declared configuration resource in a catalog. Parameters
// holds the resource's declared parameter map. Extra carries any additional
// wire attributes verbatim; they survive serialization unchanged but the
// pipeline never interprets them.
type Resource struct {
	Type       string
	Title      string
	Tags       StringSet
	Parameters map[string]any
	Extra      map[string]any
}

// Ref returns the resource's identifier.
func (r *Resource) Ref() ResourceRef {
	return ResourceRef{Type: r.Type, Title: r.Title}
}

// MarshalJSON serializes the canonical fields and splices the extra wire
// attributes back in beside them.
func (r *Resource) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+4)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["type"] = r.Type
	m["title"] = r.Title
	m["tags"] = r.Tags
	params := r.Parameters
	if params == nil {
		params = map[string]any{}
	}
	m["parameters"] = params
	return json.Marshal(m)
}

// UnmarshalJSON reads the canonical fields and collects everything else
// into Extra.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Resource{
		Tags:       NewStringSet(),
		Parameters: map[string]any{},
		Extra:      map[string]any{},
	}
	for key, value := range raw {
		switch key {
		case "type":
			if err := json.Unmarshal(value, &out.Type); err != nil {
				return err
			}
		case "title":
			if err := json.Unmarshal(value, &out.Title); err != nil {
				return err
			}
		case "tags":
			if err := json.Unmarshal(value, &out.Tags); err != nil {
				return err
			}
		case "parameters":
			if err := json.Unmarshal(value, &out.Parameters); err != nil {
				return err
			}
		default:
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return err
			}
			out.Extra[key] = v
		}
	}
	*r = out
	return nil
}
