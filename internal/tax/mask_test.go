package tax

import "testing"

func TestMaskIDNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A123456789", "A123****89"},
		{"A12", "A12"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskIDNumber(tt.in); got != tt.want {
			t.Errorf("MaskIDNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskBankAccount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0123456789012", "****9012"},
		{"123", "123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskBankAccount(tt.in); got != tt.want {
			t.Errorf("MaskBankAccount(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
