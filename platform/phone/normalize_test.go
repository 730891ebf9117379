package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"(212) 555-0100", "+12125550100"},
		{"+31 6 12345678", "+31612345678"},
		{"ext. 42", "ext. 42"},
		{"  +1 212 555 0100  ", "+12125550100"},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.input); got != tc.want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
