// Package graph publishes accepted catalogs to the knowledge graph.
//
// Every accepted submission becomes one catalog node entity plus one entity
// per declared resource, each carrying triples built from the canonical
// form. Resolved edges surface as relationship triples on the source
// resource, so graph queries can walk the dependency structure without
// reparsing catalogs.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/catalogd/catalog"
	vocab "github.com/c360studio/catalogd/vocabulary/catalog"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
)

// GraphIngestSubject is the subject for graph ingestion.
const GraphIngestSubject = "graph.ingest.entity"

// TripleSource identifies catalogd as the origin of published triples.
const TripleSource = "catalogd.ingest"

// BuildCatalogEntities converts a canonical catalog into graph entities.
// The first entity is the catalog node itself; the rest are its resources
// in sorted reference order. Output is deterministic for a given catalog
// and timestamp.
func BuildCatalogEntities(cat *catalog.Catalog, receivedAt time.Time) []*EntityPayload {
	nodeID := CatalogEntityID(cat.Certname)

	entities := []*EntityPayload{buildNodeEntity(cat, nodeID, receivedAt)}

	edgesBySource := make(map[catalog.ResourceRef][]catalog.Edge)
	for _, edge := range cat.Edges.Sorted() {
		edgesBySource[edge.Source] = append(edgesBySource[edge.Source], edge)
	}

	aliasesByCanonical := make(map[catalog.ResourceRef][]string)
	for alias, canonical := range cat.Aliases {
		if alias == canonical {
			continue
		}
		aliasesByCanonical[canonical] = append(aliasesByCanonical[canonical], alias.Title)
	}
	for _, titles := range aliasesByCanonical {
		sort.Strings(titles)
	}

	for _, ref := range cat.ResourceRefs() {
		res, _ := cat.Resource(ref)
		entities = append(entities, buildResourceEntity(
			cat.Certname, res, edgesBySource[ref], aliasesByCanonical[ref], receivedAt))
	}

	return entities
}

func buildNodeEntity(cat *catalog.Catalog, nodeID string, receivedAt time.Time) *EntityPayload {
	triples := []message.Triple{
		triple(nodeID, vocab.PredicateCertname, cat.Certname, receivedAt),
		triple(nodeID, vocab.PredicateVersion, cat.Version, receivedAt),
		triple(nodeID, vocab.PredicateAPIVersion, cat.APIVersion, receivedAt),
		triple(nodeID, vocab.PredicateFormatVersion, cat.FormatVersion, receivedAt),
		triple(nodeID, vocab.PredicateResourceCount, len(cat.Resources), receivedAt),
		triple(nodeID, vocab.PredicateEdgeCount, cat.Edges.Len(), receivedAt),
		triple(nodeID, vocab.PredicateReceivedAt, receivedAt.Format(time.RFC3339), receivedAt),
	}

	for _, class := range cat.Classes.Sorted() {
		triples = append(triples, triple(nodeID, vocab.PredicateClass, class, receivedAt))
	}
	for _, tag := range cat.Tags.Sorted() {
		triples = append(triples, triple(nodeID, vocab.PredicateTag, tag, receivedAt))
	}
	for _, ref := range cat.ResourceRefs() {
		triples = append(triples, triple(
			nodeID, vocab.PredicateResource, ResourceEntityID(cat.Certname, ref), receivedAt))
	}

	return &EntityPayload{
		EntityID_:  nodeID,
		TripleData: triples,
		UpdatedAt:  receivedAt,
	}
}

func buildResourceEntity(certname string, res *catalog.Resource, edges []catalog.Edge, aliases []string, receivedAt time.Time) *EntityPayload {
	entityID := ResourceEntityID(certname, res.Ref())

	triples := []message.Triple{
		triple(entityID, vocab.PredicateResourceType, res.Type, receivedAt),
		triple(entityID, vocab.PredicateResourceTitle, res.Title, receivedAt),
	}

	for _, tag := range res.Tags.Sorted() {
		triples = append(triples, triple(entityID, vocab.PredicateResourceTag, tag, receivedAt))
	}
	for _, alias := range aliases {
		triples = append(triples, triple(entityID, vocab.PredicateResourceAlias, alias, receivedAt))
	}
	for _, edge := range edges {
		pred, ok := vocab.ForRelationship(string(edge.Relationship))
		if !ok {
			continue
		}
		triples = append(triples, triple(
			entityID, pred, ResourceEntityID(certname, edge.Target), receivedAt))
	}

	return &EntityPayload{
		EntityID_:  entityID,
		TripleData: triples,
		UpdatedAt:  receivedAt,
	}
}

func triple(subject, predicate string, object any, at time.Time) message.Triple {
	return message.Triple{
		Subject:    subject,
		Predicate:  predicate,
		Object:     object,
		Source:     TripleSource,
		Timestamp:  at,
		Confidence: 1.0,
	}
}

// PublishCatalog publishes a catalog and its resources to the knowledge graph.
func PublishCatalog(ctx context.Context, nc *natsclient.Client, cat *catalog.Catalog, receivedAt time.Time) error {
	if nc == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	for _, entity := range BuildCatalogEntities(cat, receivedAt) {
		data, err := json.Marshal(entity)
		if err != nil {
			return fmt.Errorf("marshal catalog entity %s: %w", entity.EntityID_, err)
		}
		if err := nc.PublishToStream(ctx, GraphIngestSubject, data); err != nil {
			return fmt.Errorf("publish catalog entity %s: %w", entity.EntityID_, err)
		}
	}

	return nil
}

// CatalogEntityID generates a consistent entity ID for a node's catalog.
// Format: catalogd.local.catalog.node.<certname>
func CatalogEntityID(certname string) string {
	return fmt.Sprintf("catalogd.local.catalog.node.%s", certname)
}

// ResourceEntityID generates a consistent entity ID for a declared resource.
// Format: catalogd.local.catalog.resource.<certname>.<type>.<title-slug>
func ResourceEntityID(certname string, ref catalog.ResourceRef) string {
	return fmt.Sprintf("catalogd.local.catalog.resource.%s.%s.%s",
		certname, ref.Type, slugify(ref.Title))
}

// slugify keeps entity IDs to the character set the rest of the platform
// uses. Titles are free-form, so anything outside [A-Za-z0-9._-] maps to
// an underscore.
func slugify(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
