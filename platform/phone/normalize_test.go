package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"already e164", "+5491155551234", "+5491155551234"},
		{"local argentine mobile", "011 15-5555-1234", "+5491155551234"},
		{"international with spaces", "+1 415 555 2671", "+14155552671"},
		{"whitespace trimmed", "  +5491155551234  ", "+5491155551234"},
		{"empty", "", ""},
		{"garbage passes through", "not a number", "not a number"},
		{"invalid number passes through", "+54 11 1", "+54 11 1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164(tc.input); got != tc.want {
				t.Errorf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
