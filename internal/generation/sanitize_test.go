package generation

import (
	"encoding/json"
	"testing"
)

func TestSanitizeStripsJSONFence(t *testing.T) {
	raw := "```json\n[{\"question\":\"x\",\"options\":[\"True\",\"False\"],\"answer\":\"True\"}]\n```"
	got := Sanitize(raw)

	var parsed []map[string]interface{}
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("sanitized text does not parse: %v\n%s", err, got)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected one element, got %d", len(parsed))
	}
}

func TestSanitizeStripsBareFence(t *testing.T) {
	if got := Sanitize("```\n[]\n```"); got != "[]" {
		t.Fatalf("expected [], got %q", got)
	}
}

func TestSanitizeTrimsWhitespace(t *testing.T) {
	if got := Sanitize("  \n[1,2]\n  "); got != "[1,2]" {
		t.Fatalf("expected [1,2], got %q", got)
	}
}

func TestSanitizeLeavesPlainTextAlone(t *testing.T) {
	// Not a guarantee of valid JSON; downstream parsing handles that.
	if got := Sanitize("not json at all"); got != "not json at all" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}
