package catalog

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseResourceRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ResourceRef
		wantErr bool
	}{
		{"simple", "Class[foo]", ResourceRef{Type: "Class", Title: "foo"}, false},
		{"path title", "File[/etc/nginx/nginx.conf]", ResourceRef{Type: "File", Title: "/etc/nginx/nginx.conf"}, false},
		{"bracket in title", "File[/etc/foo[1]]", ResourceRef{Type: "File", Title: "/etc/foo[1]"}, false},
		{"space in title", "Exec[run [now]]", ResourceRef{Type: "Exec", Title: "run [now]"}, false},
		{"no brackets", "Classfoo", ResourceRef{}, true},
		{"empty type", "[foo]", ResourceRef{}, true},
		{"empty title", "Class[]", ResourceRef{}, true},
		{"trailing text", "Class[foo]bar", ResourceRef{}, true},
		{"unclosed", "Class[foo", ResourceRef{}, true},
		{"empty string", "", ResourceRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResourceRef(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.input, got)
				}
				var specErr *MalformedSpecError
				if !errors.As(err, &specErr) {
					t.Fatalf("expected MalformedSpecError, got %T", err)
				}
				if specErr.Spec != tt.input {
					t.Errorf("error carries spec %q, want %q", specErr.Spec, tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseResourceRef(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResourceRefRoundTrip(t *testing.T) {
	specs := []string{
		"Class[foo]",
		"File[/etc/hosts]",
		"File[/etc/foo[1]]",
		"Exec[apt-get update]",
	}
	for _, spec := range specs {
		ref, err := ParseResourceRef(spec)
		if err != nil {
			t.Fatalf("ParseResourceRef(%q): %v", spec, err)
		}
		if got := ref.String(); got != spec {
			t.Errorf("round trip %q -> %q", spec, got)
		}
	}
}

func TestResourceRefAsMapKey(t *testing.T) {
	m := map[ResourceRef]string{
		{Type: "Class", Title: "foo"}: "a",
		{Type: "File", Title: "/etc/hosts"}: "b",
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Class[foo]":"a","File[/etc/hosts]":"b"}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}

	var back map[ResourceRef]string
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[ResourceRef{Type: "Class", Title: "foo"}] != "a" {
		t.Errorf("unmarshal lost key Class[foo]: %v", back)
	}
}
