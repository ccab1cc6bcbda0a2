package catalog

// Relationship names the dependency kind a catalog edge asserts between its
// source and target resources. The keyword set is closed and matching is
// exact: no case folding, no synonyms.
type Relationship string

const (
	// RelationshipContains marks structural containment of the target
	// within the source.
	RelationshipContains Relationship = "contains"

	// RelationshipRequiredBy marks the source as a requirement of the
	// target.
	RelationshipRequiredBy Relationship = "required-by"

	// RelationshipNotifies propagates refresh events from the source to
	// the target.
	RelationshipNotifies Relationship = "notifies"

	// RelationshipBefore orders the source ahead of the target.
	RelationshipBefore Relationship = "before"

	// RelationshipSubscriptionOf marks the target as a subscriber of the
	// source.
	RelationshipSubscriptionOf Relationship = "subscription-of"
)

// ParseRelationship validates a relationship keyword.
func ParseRelationship(s string) (Relationship, error) {
	switch Relationship(s) {
	case RelationshipContains,
		RelationshipRequiredBy,
		RelationshipNotifies,
		RelationshipBefore,
		RelationshipSubscriptionOf:
		return Relationship(s), nil
	}
	return "", &InvalidRelationshipError{Relationship: s}
}
