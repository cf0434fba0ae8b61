package querygen

import (
	"testing"

	"github.com/hyperjump/apiquery/internal/models"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		query   string
		summary string
		want    bool
	}{
		{"find pets by status", "Finds Pets by status", true},
		{"pets with tag red", "Finds Pets by tags", true},
		{"find pets by status", "Returns pet inventories", false},
		{"get current weather", "Get current weather", false},
		{"STATUS of order", "Order status lookup", true},
	}
	for _, tt := range tests {
		got := Relevant(tt.query, &models.Endpoint{Summary: tt.summary})
		if got != tt.want {
			t.Errorf("Relevant(%q, %q) = %v, want %v", tt.query, tt.summary, got, tt.want)
		}
	}
	if Relevant("find pets by status", nil) {
		t.Error("a missing match is never relevant")
	}
}

func TestIntentOf_StatusWins(t *testing.T) {
	ep := &models.Endpoint{Summary: "Filter by status and tag"}
	if got := intentOf("status and tag", ep); got != IntentStatus {
		t.Errorf("intentOf = %q, want %q", got, IntentStatus)
	}
}

func TestAlternates(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Find pets by status", []string{"Finds Pets by status", "pet findByStatus", "GET /pet/findByStatus"}},
		{"find PETS with tag", []string{"Finds Pets by tags", "pet findByTags", "GET /pet/findByTags"}},
		{"find pet by status", nil},
		{"get current weather", nil},
	}
	for _, tt := range tests {
		got := Alternates(tt.query)
		if len(got) != len(tt.want) {
			t.Errorf("Alternates(%q) = %q, want %q", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Alternates(%q)[%d] = %q, want %q", tt.query, i, got[i], tt.want[i])
			}
		}
	}
	if n := len(Alternates("find pets by status or tag")); n != 6 {
		t.Errorf("both rows should apply, got %d alternates", n)
	}
}
