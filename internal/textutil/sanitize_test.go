package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Shape Point List", "Shape Point List"},
		{"  Nuke Ascii  ", "Nuke Ascii"},
		{"Corner/Pin: Export*", "Corner-Pin- Export-"},
		{`what?"<is>|this`, "whatisthis"},
		{"tab\there", "tabhere"},
		{"trailing. . ", "trailing"},
		{"con", "_con"},
		{"LPT1", "_LPT1"},
		{"console", "console"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hole", "hole"},
		{"Screen Left", "screen_left"},
		{"Car Body", "car_body"},
		{"wheel-L_1", "wheel-l_1"},
		{"a  &  b", "a_b"},
		{"__x__", "x"},
		{"layer-2_mask", "layer-2_mask"},
		{"***", "unknown"},
		{"  ", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
