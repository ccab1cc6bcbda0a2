package catalog

import "github.com/c360studio/semstreams/vocabulary"

// Namespace for catalog predicates.
const Namespace = "https://catalogd.dev/vocabulary/catalog#"

// PROV-O IRI constants for temporal predicates.
const (
	// ProvGeneratedAtTime indicates when an entity was generated.
	ProvGeneratedAtTime = "http://www.w3.org/ns/prov#generatedAtTime"
)

// Catalog node predicates.
const (
	// PredicateCertname is the node the catalog belongs to.
	PredicateCertname = "catalogd.catalog.certname"

	// PredicateVersion is the submitter's catalog version.
	PredicateVersion = "catalogd.catalog.version"

	// PredicateAPIVersion is the wire format version declared by the submitter.
	PredicateAPIVersion = "catalogd.catalog.api_version"

	// PredicateFormatVersion is the canonical format version stamped on ingest.
	PredicateFormatVersion = "catalogd.catalog.format_version"

	// PredicateClass is a class carried by the catalog. Repeated per class.
	PredicateClass = "catalogd.catalog.class"

	// PredicateTag is a catalog-level tag. Repeated per tag.
	PredicateTag = "catalogd.catalog.tag"

	// PredicateResourceCount is the number of distinct resources.
	PredicateResourceCount = "catalogd.catalog.resource_count"

	// PredicateEdgeCount is the number of distinct resolved edges.
	PredicateEdgeCount = "catalogd.catalog.edge_count"

	// PredicateReceivedAt is the RFC3339 timestamp the submission was accepted.
	PredicateReceivedAt = "catalogd.catalog.received_at"

	// PredicateResource links a catalog to the resource entities it declares.
	PredicateResource = "catalogd.catalog.resource"
)

// Resource predicates.
const (
	// PredicateResourceType is the resource type, e.g. "File".
	PredicateResourceType = "catalogd.resource.type"

	// PredicateResourceTitle is the resource title, e.g. "/etc/hosts".
	PredicateResourceTitle = "catalogd.resource.title"

	// PredicateResourceTag is a resource-level tag. Repeated per tag.
	PredicateResourceTag = "catalogd.resource.tag"

	// PredicateResourceAlias is an alternate title the resource answers to.
	PredicateResourceAlias = "catalogd.resource.alias"
)

// Relationship predicates. One per edge relationship; the object is the
// target resource entity.
const (
	// PredicateContains links a container resource to its members.
	PredicateContains = "catalogd.resource.contains"

	// PredicateRequiredBy points from a dependency to its dependent.
	PredicateRequiredBy = "catalogd.resource.required_by"

	// PredicateNotifies links a resource to the resources it refreshes.
	PredicateNotifies = "catalogd.resource.notifies"

	// PredicateBefore orders a resource ahead of another.
	PredicateBefore = "catalogd.resource.before"

	// PredicateSubscriptionOf points from a subscriber to its watched resource.
	PredicateSubscriptionOf = "catalogd.resource.subscription_of"
)

// relationshipPredicates maps wire relationship names onto predicates.
var relationshipPredicates = map[string]string{
	"contains":        PredicateContains,
	"required-by":     PredicateRequiredBy,
	"notifies":        PredicateNotifies,
	"before":          PredicateBefore,
	"subscription-of": PredicateSubscriptionOf,
}

// ForRelationship returns the predicate for a wire relationship name.
func ForRelationship(name string) (string, bool) {
	pred, ok := relationshipPredicates[name]
	return pred, ok
}

func init() {
	// Register catalog node predicates
	vocabulary.Register(PredicateCertname,
		vocabulary.WithDescription("Node the catalog belongs to"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"certname"))

	vocabulary.Register(PredicateVersion,
		vocabulary.WithDescription("Submitter's catalog version"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"version"))

	vocabulary.Register(PredicateAPIVersion,
		vocabulary.WithDescription("Wire format version declared by the submitter"),
		vocabulary.WithDataType("string"))

	vocabulary.Register(PredicateFormatVersion,
		vocabulary.WithDescription("Canonical format version stamped on ingest"),
		vocabulary.WithDataType("int"))

	vocabulary.Register(PredicateClass,
		vocabulary.WithDescription("Class carried by the catalog"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"class"))

	vocabulary.Register(PredicateTag,
		vocabulary.WithDescription("Catalog-level tag"),
		vocabulary.WithDataType("string"))

	vocabulary.Register(PredicateResourceCount,
		vocabulary.WithDescription("Number of distinct resources"),
		vocabulary.WithDataType("int"))

	vocabulary.Register(PredicateEdgeCount,
		vocabulary.WithDescription("Number of distinct resolved edges"),
		vocabulary.WithDataType("int"))

	vocabulary.Register(PredicateReceivedAt,
		vocabulary.WithDescription("Acceptance timestamp (RFC3339)"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(ProvGeneratedAtTime))

	vocabulary.Register(PredicateResource,
		vocabulary.WithDescription("Link to a declared resource entity"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Namespace+"hasResource"))

	// Register resource predicates
	vocabulary.Register(PredicateResourceType,
		vocabulary.WithDescription("Resource type"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"resourceType"))

	vocabulary.Register(PredicateResourceTitle,
		vocabulary.WithDescription("Resource title"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"resourceTitle"))

	vocabulary.Register(PredicateResourceTag,
		vocabulary.WithDescription("Resource-level tag"),
		vocabulary.WithDataType("string"))

	vocabulary.Register(PredicateResourceAlias,
		vocabulary.WithDescription("Alternate title the resource answers to"),
		vocabulary.WithDataType("string"))

	// Register relationship predicates
	vocabulary.Register(PredicateContains,
		vocabulary.WithDescription("Container resource to member resource"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Namespace+"contains"))

	vocabulary.Register(PredicateRequiredBy,
		vocabulary.WithDescription("Dependency to dependent resource"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Namespace+"requiredBy"))

	vocabulary.Register(PredicateNotifies,
		vocabulary.WithDescription("Resource to the resources it refreshes"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Namespace+"notifies"))

	vocabulary.Register(PredicateBefore,
		vocabulary.WithDescription("Resource ordered ahead of another"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Namespace+"before"))

	vocabulary.Register(PredicateSubscriptionOf,
		vocabulary.WithDescription("Subscriber to its watched resource"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Namespace+"subscriptionOf"))
}
