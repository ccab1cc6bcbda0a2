package catalog

// indexResources keys resource records by identifier and canonicalizes
// their tag lists into sets. Two records sharing one identifier make the
// catalog ambiguous and fail the payload.
func indexResources(raw []wireResource) (map[ResourceRef]*Resource, error) {
	resources := make(map[ResourceRef]*Resource, len(raw))
	for _, wr := range raw {
		ref := ResourceRef{Type: wr.resType, Title: wr.title}
		if _, exists := resources[ref]; exists {
			return nil, &DuplicateResourceError{Ref: ref}
		}
		params := wr.parameters
		if params == nil {
			params = map[string]any{}
		}
		extra := wr.extra
		if extra == nil {
			extra = map[string]any{}
		}
		resources[ref] = &Resource{
			Type:       wr.resType,
			Title:      wr.title,
			Tags:       NewStringSet(wr.tags...),
			Parameters: params,
			Extra:      extra,
		}
	}
	return resources, nil
}
