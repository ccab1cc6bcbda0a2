package catalog

// Parse runs the full normalization pipeline over a submission payload and
// returns the canonical catalog. The stage order is fixed:
//
//  1. decode the envelope and extract metadata
//  2. canonicalize record keys
//  3. normalize edges
//  4. index resources
//  5. build the alias table and resolve edge endpoints
//  6. canonicalize classes and tags into sets
//  7. verify edge integrity
//
// Any stage failure aborts the payload; Parse never returns a partial
// catalog alongside an error.
func Parse(data []byte) (*Catalog, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	edges, err := normalizeEdges(env.edges)
	if err != nil {
		return nil, err
	}
	resources, err := indexResources(env.resources)
	if err != nil {
		return nil, err
	}
	aliases, err := buildAliasTable(resources)
	if err != nil {
		return nil, err
	}
	cat := &Catalog{
		Certname:      env.certname,
		APIVersion:    env.apiVersion,
		Version:       env.version,
		FormatVersion: FormatVersion,
		Classes:       NewStringSet(env.classes...),
		Tags:          NewStringSet(env.tags...),
		Resources:     resources,
		Edges:         resolveEdges(edges, aliases),
		Aliases:       aliases,
	}
	if err := verifyEdgeIntegrity(cat); err != nil {
		return nil, err
	}
	return cat, nil
}
