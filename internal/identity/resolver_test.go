package identity

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Premier League", "premier league"},
		{"  Premier League  ", "premier league"},
		{"ARSENAL", "arsenal"},
		{"arsenal", "arsenal"},
		{"\tSão Paulo\n", "são paulo"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
