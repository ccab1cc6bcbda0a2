package catalog

import "fmt"

// Edge is a directed dependency between two resources. It is comparable, so
// an EdgeSet collapses duplicate records naturally.
type Edge struct {
	Source       ResourceRef  `json:"source"`
	Target       ResourceRef  `json:"target"`
	Relationship Relationship `json:"relationship"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.Source, e.Relationship, e.Target)
}

// normalizeEdges parses raw edge records into a canonical edge set. Both
// endpoints must be well-formed specifiers and the relationship must be one
// of the closed keyword set. Duplicate records collapse to a single edge.
func normalizeEdges(raw []wireEdge) (EdgeSet, error) {
	edges := make(EdgeSet, len(raw))
	for _, we := range raw {
		source, err := ParseResourceRef(we.source)
		if err != nil {
			return nil, err
		}
		target, err := ParseResourceRef(we.target)
		if err != nil {
			return nil, err
		}
		rel, err := ParseRelationship(we.relationship)
		if err != nil {
			return nil, err
		}
		edges.Add(Edge{Source: source, Target: target, Relationship: rel})
	}
	return edges, nil
}
