// Package export renders canonical catalogs into interchange formats.
//
// Three formats are supported: the canonical catalog as indented JSON,
// a Graphviz digraph of the resolved edge set, and N-Triples over the
// knowledge-graph vocabulary. Output is deterministic for a given
// catalog: resources and edges are emitted in canonical sorted order.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/c360studio/catalogd/catalog"
	"github.com/c360studio/catalogd/graph"
	vocab "github.com/c360studio/catalogd/vocabulary/catalog"
)

// Format identifies an output format.
type Format string

const (
	// FormatJSON renders the canonical catalog as indented JSON.
	FormatJSON Format = "json"

	// FormatDOT renders the resolved edge set as a Graphviz digraph.
	FormatDOT Format = "dot"

	// FormatNTriples renders the catalog's knowledge-graph triples,
	// one statement per line.
	FormatNTriples Format = "ntriples"
)

// Export renders cat in the given format.
func Export(cat *catalog.Catalog, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return exportJSON(cat)
	case FormatDOT:
		return exportDOT(cat), nil
	case FormatNTriples:
		return exportNTriples(cat), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func exportJSON(cat *catalog.Catalog) (string, error) {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling catalog: %w", err)
	}
	return string(data) + "\n", nil
}

func exportDOT(cat *catalog.Catalog) string {
	w := NewDOTWriter(cat.Certname)
	for _, ref := range cat.ResourceRefs() {
		w.WriteNode(ref.String())
	}
	for _, edge := range cat.Edges.Sorted() {
		w.WriteEdge(edge.Source.String(), edge.Target.String(), string(edge.Relationship))
	}
	return w.String()
}

func exportNTriples(cat *catalog.Catalog) string {
	w := NewNTriplesWriter()
	for _, entity := range graph.BuildCatalogEntities(cat, time.Time{}) {
		w.WriteTypeTriple(entityIRI(entity.EntityID()), entityClassIRI(entity.EntityID()))
		for _, t := range entity.Triples() {
			// Ingestion provenance; not part of the catalog itself.
			if t.Predicate == vocab.PredicateReceivedAt {
				continue
			}
			w.WriteTriple(entityIRI(t.Subject), predicateIRI(t.Predicate), t.Object)
		}
	}
	return w.String()
}

// entityNamespace is the IRI base for exported entity identifiers.
const entityNamespace = "https://catalogd.dev/entity/"

// entityIRI anchors a dotted entity ID in the entity namespace.
func entityIRI(entityID string) string {
	return entityNamespace + entityID
}

// predicateIRI anchors a dotted predicate in the vocabulary namespace.
func predicateIRI(predicate string) string {
	return vocab.Namespace + strings.TrimPrefix(predicate, "catalogd.")
}

// entityClassIRI returns the class IRI for an entity ID.
func entityClassIRI(entityID string) string {
	if strings.Contains(entityID, ".catalog.resource.") {
		return vocab.Namespace + "Resource"
	}
	return vocab.Namespace + "Node"
}

// escapeString escapes special characters for N-Triples literals.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}
