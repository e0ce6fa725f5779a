package textutil

import "testing"

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"main", "Main"},
		{"mainPlate", "Mainplate"},
		{"MAIN", "Main"},
		{"élan", "Élan"},
		{"1st", "1st"},
	}
	for _, tc := range tests {
		if got := Capitalize(tc.in); got != tc.want {
			t.Errorf("Capitalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProductNames(t *testing.T) {
	tests := []struct {
		layer       string
		variant     string
		productType string
		want        string
	}{
		{"screen", "main", "trackpoints", "trackpointsScreenMain"},
		{"left screen", "Main", "trackpoints", "trackpointsLeft_screenMain"},
		{"car", "mainPlate", "matteshapes", "matteshapesCarMainplate"},
	}
	for _, tc := range tests {
		got := ProductName(tc.productType, LayerVariant(tc.layer, tc.variant))
		if got != tc.want {
			t.Errorf("product name for %q/%q = %q, want %q", tc.layer, tc.variant, got, tc.want)
		}
	}
	if got := ProductName("workfile", "Main"); got != "workfileMain" {
		t.Errorf("workfile product = %q", got)
	}
}
