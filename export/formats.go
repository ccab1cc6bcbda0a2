package export

import (
	"fmt"
	"strings"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "Canonical catalog as indented JSON",
	},
	FormatDOT: {
		Name:        FormatDOT,
		MIMEType:    "text/vnd.graphviz",
		Extension:   ".dot",
		Description: "Graphviz digraph of the resolved edge set",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// DOTWriter writes a Graphviz digraph.
type DOTWriter struct {
	sb       strings.Builder
	hasEdges bool
}

// NewDOTWriter starts a digraph named after the catalog's node.
func NewDOTWriter(name string) *DOTWriter {
	w := &DOTWriter{}
	w.sb.WriteString(fmt.Sprintf("digraph %s {\n", dotQuote(name)))
	w.sb.WriteString("  rankdir=LR;\n")
	w.sb.WriteString("  node [shape=box];\n\n")
	return w
}

// WriteNode declares a node. Declaring every resource keeps isolated
// resources visible in the rendered graph.
func (w *DOTWriter) WriteNode(id string) {
	w.sb.WriteString(fmt.Sprintf("  %s;\n", dotQuote(id)))
}

// WriteEdge writes a labeled directed edge.
func (w *DOTWriter) WriteEdge(source, target, label string) {
	if !w.hasEdges {
		w.sb.WriteString("\n")
		w.hasEdges = true
	}
	w.sb.WriteString(fmt.Sprintf("  %s -> %s [label=%s];\n",
		dotQuote(source), dotQuote(target), dotQuote(label)))
}

// String closes the digraph and returns the accumulated document.
func (w *DOTWriter) String() string {
	return w.sb.String() + "}\n"
}

// dotQuote wraps s in a DOT quoted string. Only the double quote is
// special inside DOT quoted strings.
func dotQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// NTriplesWriter writes RDF in N-Triples format.
type NTriplesWriter struct {
	sb strings.Builder
}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter() *NTriplesWriter {
	return &NTriplesWriter{}
}

// WriteTriple writes a single triple. Subject and predicate are IRIs.
func (w *NTriplesWriter) WriteTriple(subjectIRI, predicateIRI string, object any) {
	objectStr := formatObjectNTriples(object)
	w.sb.WriteString(fmt.Sprintf("<%s> <%s> %s .\n", subjectIRI, predicateIRI, objectStr))
}

// WriteTypeTriple writes a type assertion triple.
func (w *NTriplesWriter) WriteTypeTriple(subjectIRI, typeIRI string) {
	rdfType := "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	w.sb.WriteString(fmt.Sprintf("<%s> <%s> <%s> .\n", subjectIRI, rdfType, typeIRI))
}

// String returns the accumulated N-Triples output.
func (w *NTriplesWriter) String() string {
	return w.sb.String()
}

// formatObjectNTriples renders a triple object. Strings carrying an
// entity ID become IRI references; everything else is a literal.
func formatObjectNTriples(object any) string {
	switch v := object.(type) {
	case string:
		if strings.HasPrefix(v, "catalogd.local.") {
			return fmt.Sprintf("<%s>", entityIRI(v))
		}
		return fmt.Sprintf(`"%s"`, escapeString(v))
	case bool:
		return fmt.Sprintf(`"%t"^^<http://www.w3.org/2001/XMLSchema#boolean>`, v)
	case int, int32, int64:
		return fmt.Sprintf(`"%d"^^<http://www.w3.org/2001/XMLSchema#integer>`, v)
	case float32, float64:
		return fmt.Sprintf(`"%v"^^<http://www.w3.org/2001/XMLSchema#decimal>`, v)
	default:
		return fmt.Sprintf(`"%s"`, escapeString(fmt.Sprintf("%v", object)))
	}
}
