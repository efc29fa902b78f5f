package server

import (
	"strings"
	"testing"
)

func TestValidateTextNormalizesAndBounds(t *testing.T) {
	cases := []struct {
		label   string
		in      string
		max     int
		want    string
		wantErr bool
	}{
		{"trims", "  Ada  ", 20, "Ada", false},
		{"collapses whitespace", "Ada   Lovelace", 20, "Ada Lovelace", false},
		{"empty", "", 20, "", true},
		{"only spaces", "   ", 20, "", true},
		{"at limit", strings.Repeat("a", 20), 20, strings.Repeat("a", 20), false},
		{"over limit", strings.Repeat("a", 21), 20, "", true},
	}
	for _, tc := range cases {
		got, err := validateText("name", tc.in, tc.max)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.label)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.label, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.label, tc.want, got)
		}
	}
}

func TestValidateSessionID(t *testing.T) {
	if err := validateSessionID("b2cfa24e-9d8f-4f3e-a716-malformed"); err == nil {
		t.Fatal("expected error for malformed id")
	}
	if err := validateSessionID(""); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := validateSessionID("c56a4180-65aa-42ec-a945-5fd21dec0538"); err != nil {
		t.Fatalf("unexpected error for well-formed id: %v", err)
	}
}
