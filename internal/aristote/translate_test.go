package aristote

import "testing"

func TestTranslationTarget(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"en", "fr"},
		{"EN", "fr"},
		{"fr", "en"},
		{"de", "en"},
		{"pt", "en"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := TranslationTarget(tc.source); got != tc.want {
			t.Errorf("TranslationTarget(%q) = %q, want %q", tc.source, got, tc.want)
		}
	}
}
