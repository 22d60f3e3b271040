package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "bayesian-inference", false},
		{"valid with spaces", "Monte Carlo", false},
		{"valid unicode", "Sensitivität", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxNodeIDLength+1), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidNodeID) {
				t.Errorf("ValidateNodeID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidNodeID)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.org/docs/mcs", false},
		{"http", "http://example.org", false},

		{"empty", "", true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"relative", "docs/mcs.html", true},
		{"ftp", "ftp://example.org", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRoute(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"root", "/", false},
		{"explorer", "/flowchart_explorer", false},
		{"unknown but valid", "/does/not/exist", false},

		{"relative", "flowchart_explorer", true},
		{"empty", "", true},
		{"control char", "/foo\x7f", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoute(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRoute(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
