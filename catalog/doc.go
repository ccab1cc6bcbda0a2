// Package catalog normalizes submitted configuration catalogs into a
// canonical, integrity-checked form.
//
// A catalog names the resources declared for one node and the dependency
// edges between them. Parse is the single entry point: it decodes a wire
// payload, canonicalizes field keys, indexes resources, resolves aliased
// edge endpoints and verifies that every edge references a declared
// resource. The pipeline is purely computational. Any stage failure aborts
// the payload and no partial catalog is returned, so concurrent Parse calls
// over independent payloads need no coordination.
package catalog
