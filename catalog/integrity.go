package catalog

// verifyEdgeIntegrity checks that every edge endpoint, after alias
// resolution, names a declared resource. Edges are visited in sorted order
// and the first violation aborts the payload, so the reported edge is
// deterministic.
func verifyEdgeIntegrity(cat *Catalog) error {
	for _, edge := range cat.Edges.Sorted() {
		if _, ok := cat.Resources[edge.Source]; !ok {
			return &DanglingReferenceError{Edge: edge, Missing: edge.Source}
		}
		if _, ok := cat.Resources[edge.Target]; !ok {
			return &DanglingReferenceError{Edge: edge, Missing: edge.Target}
		}
	}
	return nil
}
