// Package catalog provides vocabulary predicates for catalog entities.
//
// Catalogs describe the desired state of a node: the resources that should
// exist on it and the ordering relationships between them. Each accepted
// submission contributes one catalog entity per node plus one entity per
// declared resource.
//
// Import this package to auto-register predicates:
//
//	import _ "github.com/c360studio/catalogd/vocabulary/catalog"
package catalog
