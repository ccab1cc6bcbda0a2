package catalog

import (
	"fmt"
	"strings"
)

// ResourceRef identifies a resource by type and title. It is comparable and
// serves as the map key for resource lookups. In JSON it serializes as its
// specifier form, "Type[Title]".
type ResourceRef struct {
	Type  string
	Title string
}

// ParseResourceRef parses a resource specifier of the form "Type[Title]".
// The title runs to the final closing bracket and may itself contain bracket
// characters, so "File[/etc/foo[1]]" refers to the title "/etc/foo[1]".
// Both type and title must be non-empty.
func ParseResourceRef(s string) (ResourceRef, error) {
	open := strings.Index(s, "[")
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return ResourceRef{}, &MalformedSpecError{Spec: s}
	}
	title := s[open+1 : len(s)-1]
	if title == "" {
		return ResourceRef{}, &MalformedSpecError{Spec: s}
	}
	return ResourceRef{Type: s[:open], Title: title}, nil
}

// String formats the reference back to its specifier form. ParseResourceRef
// and String round-trip.
func (r ResourceRef) String() string {
	return fmt.Sprintf("%s[%s]", r.Type, r.Title)
}

// MarshalText implements encoding.TextMarshaler so references can key JSON
// maps.
func (r ResourceRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *ResourceRef) UnmarshalText(text []byte) error {
	ref, err := ParseResourceRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

func lessRef(a, b ResourceRef) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Title < b.Title
}
