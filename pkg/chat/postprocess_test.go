package chat

import (
	"reflect"
	"testing"
)

func TestExtractProductIDs(t *testing.T) {
	cases := []struct {
		name        string
		raw         string
		wantIDs     []string
		wantCleaned string
	}{
		{
			name:        "no markers",
			raw:         "  Hi there, how may I help you today?  ",
			wantIDs:     []string{},
			wantCleaned: "Hi there, how may I help you today?",
		},
		{
			name:        "numeric ordering",
			raw:         "**Product ID: 9** **Product ID: 10** hi",
			wantIDs:     []string{"9", "10"},
			wantCleaned: "hi",
		},
		{
			name:        "duplicates preserved",
			raw:         "**Product ID: 5** a **Product ID: 5** b",
			wantIDs:     []string{"5", "5"},
			wantCleaned: "a b",
		},
		{
			name:        "mid-sentence removal keeps words intact",
			raw:         "The Jabra Elite 3 **Product ID: 17** is a solid budget pick.",
			wantIDs:     []string{"17"},
			wantCleaned: "The Jabra Elite 3 is a solid budget pick.",
		},
		{
			name:        "malformed markers untouched",
			raw:         "**Product ID: abc** and **Product ID: 7",
			wantIDs:     []string{},
			wantCleaned: "**Product ID: abc** and **Product ID: 7",
		},
		{
			name:        "whitespace collapsed after removal",
			raw:         "Top picks:\n\n**Product ID: 3**\n**Product ID: 12**\nEnjoy!",
			wantIDs:     []string{"3", "12"},
			wantCleaned: "Top picks: Enjoy!",
		},
		{
			name:        "line-start residue stripped",
			raw:         "*Product ID: 4*\nBose Sport Earbuds are comfortable.",
			wantIDs:     []string{},
			wantCleaned: "Bose Sport Earbuds are comfortable.",
		},
		{
			name:        "single newline kept as-is",
			raw:         "line one\nline two",
			wantIDs:     []string{},
			wantCleaned: "line one\nline two",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ids, cleaned := ExtractProductIDs(tc.raw)
			if !reflect.DeepEqual(ids, tc.wantIDs) {
				t.Fatalf("ids: got %v want %v", ids, tc.wantIDs)
			}
			if cleaned != tc.wantCleaned {
				t.Fatalf("cleaned: got %q want %q", cleaned, tc.wantCleaned)
			}
		})
	}
}

func TestExtractProductIDsLeadingZeros(t *testing.T) {
	ids, _ := ExtractProductIDs("**Product ID: 010** **Product ID: 9**")
	want := []string{"9", "010"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids: got %v want %v", ids, want)
	}
}
