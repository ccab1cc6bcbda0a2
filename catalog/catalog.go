package catalog

// Catalog is the canonical, integrity-checked form of a submitted
// configuration catalog. It is built once by Parse and never mutated
// afterwards. Resources are keyed by identifier; Edges hold the resolved
// dependency set; Aliases records the table that resolution used.
type Catalog struct {
	Certname      string                    `json:"certname"`
	APIVersion    string                    `json:"api_version"`
	Version       string                    `json:"version"`
	FormatVersion int                       `json:"format_version"`
	Classes       StringSet                 `json:"classes"`
	Tags          StringSet                 `json:"tags"`
	Resources     map[ResourceRef]*Resource `json:"resources"`
	Edges         EdgeSet                   `json:"edges"`
	Aliases       AliasTable                `json:"aliases,omitempty"`
}

// ResourceRefs returns the catalog's resource identifiers in sorted order.
func (c *Catalog) ResourceRefs() []ResourceRef {
	return sortedRefs(c.Resources)
}

// Resource looks up a resource by identifier, resolving aliases the same
// way edge resolution does.
func (c *Catalog) Resource(ref ResourceRef) (*Resource, bool) {
	if canonical, ok := c.Aliases[ref]; ok {
		ref = canonical
	}
	res, ok := c.Resources[ref]
	return res, ok
}
