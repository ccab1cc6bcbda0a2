package catalog

import (
	"fmt"
	"sort"
)

// AliasTable maps alternate resource identifiers to their canonical form.
// Aliases never cross resource types.
type AliasTable map[ResourceRef]ResourceRef

// buildAliasTable collects the alias parameters of every resource. A
// resource may declare a single alias title or a list of them; each
// registers an identifier of the resource's own type pointing back at the
// declaring resource. Registering the identical mapping twice is a no-op;
// registering one alias against two different resources fails the payload.
// Resources are visited in sorted order so failures are deterministic.
func buildAliasTable(resources map[ResourceRef]*Resource) (AliasTable, error) {
	table := make(AliasTable)
	for _, ref := range sortedRefs(resources) {
		titles, err := aliasTitles(resources[ref])
		if err != nil {
			return nil, err
		}
		for _, title := range titles {
			alias := ResourceRef{Type: ref.Type, Title: title}
			if existing, ok := table[alias]; ok {
				if existing == ref {
					continue
				}
				return nil, &AliasConflictError{Alias: alias, Existing: existing, Conflicting: ref}
			}
			table[alias] = ref
		}
	}
	return table, nil
}

// aliasTitles reads a resource's alias parameter as zero or more titles.
// An absent parameter contributes nothing.
func aliasTitles(res *Resource) ([]string, error) {
	v, ok := res.Parameters["alias"]
	if !ok || v == nil {
		return nil, nil
	}
	var titles []string
	switch v := v.(type) {
	case string:
		titles = []string{v}
	case []any:
		titles = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &InvalidAliasError{
					Resource: res.Ref(),
					Reason:   fmt.Sprintf("alias entries must be strings, got %T", item),
				}
			}
			titles = append(titles, s)
		}
	default:
		return nil, &InvalidAliasError{
			Resource: res.Ref(),
			Reason:   fmt.Sprintf("alias must be a string or list of strings, got %T", v),
		}
	}
	for _, title := range titles {
		if title == "" {
			return nil, &InvalidAliasError{Resource: res.Ref(), Reason: "alias title must not be empty"}
		}
	}
	return titles, nil
}

// resolveEdges rewrites edge endpoints through the alias table. Source and
// target resolve independently; identifiers absent from the table pass
// through unchanged. Resolution never removes an edge, but distinct records
// that resolve to the same triple collapse into one set member.
func resolveEdges(edges EdgeSet, aliases AliasTable) EdgeSet {
	resolved := make(EdgeSet, len(edges))
	for edge := range edges {
		if canonical, ok := aliases[edge.Source]; ok {
			edge.Source = canonical
		}
		if canonical, ok := aliases[edge.Target]; ok {
			edge.Target = canonical
		}
		resolved.Add(edge)
	}
	return resolved
}

func sortedRefs(resources map[ResourceRef]*Resource) []ResourceRef {
	refs := make([]ResourceRef, 0, len(resources))
	for ref := range resources {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		return lessRef(refs[i], refs[j])
	})
	return refs
}
