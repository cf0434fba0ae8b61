package ranking

import (
	"testing"

	"github.com/hyperjump/apiquery/internal/models"
	"pgregory.net/rapid"
)

func petstore() []*models.Endpoint {
	return []*models.Endpoint{
		{Method: "POST", Path: "/pet", Summary: "Add a new pet to the store"},
		{Method: "GET", Path: "/pet/findByStatus", Summary: "Finds Pets by status", Description: "Multiple status values can be provided"},
		{Method: "GET", Path: "/pet/findByTags", Summary: "Finds Pets by tags"},
		{Method: "DELETE", Path: "/pet/{petId}", Summary: "Deletes a pet"},
	}
}

func TestKeywordMatcher_BestMatch(t *testing.T) {
	m := NewKeywordMatcher(nil)
	tests := []struct {
		query string
		want  string
	}{
		{"find pets by status", "/pet/findByStatus"},
		{"Find all PETS with tags", "/pet/findByTags"},
		{"delete a pet", "/pet/{petId}"},
		{"create a new pet", "/pet"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := m.BestMatch(tt.query, petstore())
			if got == nil {
				t.Fatal("no match")
			}
			if got.Path != tt.want {
				t.Errorf("BestMatch = %s %s, want %s", got.Method, got.Path, tt.want)
			}
		})
	}
}

func TestKeywordMatcher_NoCandidates(t *testing.T) {
	m := NewKeywordMatcher(nil)
	if got := m.BestMatch("find pets", nil); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	if got := m.BestMatch("find pets", []*models.Endpoint{}); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestKeywordMatcher_ZeroScoreIsNoMatch(t *testing.T) {
	m := NewKeywordMatcher(nil)
	eps := []*models.Endpoint{{Method: "POST", Path: "/orders", Summary: "Place an order"}}
	if got := m.BestMatch("weather tomorrow", eps); got != nil {
		t.Errorf("unrelated endpoint matched: %+v", got)
	}
}

func TestKeywordMatcher_TieKeepsFirst(t *testing.T) {
	m := NewKeywordMatcher(nil)
	a := &models.Endpoint{Method: "GET", Path: "/users", Summary: "List users"}
	b := &models.Endpoint{Method: "GET", Path: "/users", Summary: "List users"}
	if got := m.BestMatch("list users", []*models.Endpoint{a, b}); got != a {
		t.Error("tie should resolve to the first candidate")
	}
}

func TestKeywordMatcher_Score(t *testing.T) {
	m := NewKeywordMatcher(nil)
	ep := &models.Endpoint{Method: "GET", Path: "/pet/findByStatus", Summary: "Finds Pets by status", Description: "Multiple status values"}
	b := m.Score("get pets status", ep)

	// keyword: status~summary (10) + pets~path (10); method: get~GET (5)
	// words: "get" -> none; "pets" -> summary (2); "status" -> path (3), summary (2), description (1)
	if b.Keyword != 20 || b.Method != 5 {
		t.Errorf("keyword=%v method=%v", b.Keyword, b.Method)
	}
	if b.Path != 3 || b.Summary != 4 || b.Description != 1 {
		t.Errorf("path=%v summary=%v description=%v", b.Path, b.Summary, b.Description)
	}
	if b.Total != 33 {
		t.Errorf("total = %v", b.Total)
	}
	if len(b.Rules) != 3 {
		t.Errorf("rules = %v", b.Rules)
	}
}

func TestKeywordMatcher_UpdateMatchesPutAndPatch(t *testing.T) {
	m := NewKeywordMatcher(nil)
	for _, method := range []string{"PUT", "PATCH"} {
		b := m.Score("update", &models.Endpoint{Method: method, Path: "/x"})
		if b.Method != 5 {
			t.Errorf("%s method score = %v", method, b.Method)
		}
	}
}

func TestKeywordMatcher_CustomConfig(t *testing.T) {
	m := NewKeywordMatcher(&MatchConfig{
		MethodWeight: 50,
		KeywordRules: []KeywordRule{},
	})
	if m.Config().KeywordWeight != 10 {
		t.Errorf("zero weight should default, got %v", m.Config().KeywordWeight)
	}
	eps := []*models.Endpoint{
		{Method: "GET", Path: "/pet/findByStatus", Summary: "Finds Pets by status"},
		{Method: "DELETE", Path: "/pet/{petId}", Summary: "Deletes a pet"},
	}
	if got := m.BestMatch("delete pets by status", eps); got == nil || got.Method != "DELETE" {
		t.Errorf("heavy method weight should win, got %+v", got)
	}
}

func TestKeywordMatcher_Properties(t *testing.T) {
	m := NewKeywordMatcher(nil)
	words := []string{"get", "find", "pets", "status", "tags", "create", "user", "delete", "update", "by"}
	genEndpoint := rapid.Custom(func(t *rapid.T) *models.Endpoint {
		return &models.Endpoint{
			Method:  rapid.SampledFrom([]string{"GET", "POST", "PUT", "PATCH", "DELETE"}).Draw(t, "method"),
			Path:    "/" + rapid.SampledFrom(words).Draw(t, "path"),
			Summary: rapid.SampledFrom(words).Draw(t, "summary"),
		}
	})
	rapid.Check(t, func(t *rapid.T) {
		eps := rapid.SliceOfN(genEndpoint, 0, 6).Draw(t, "endpoints")
		qw := rapid.SliceOfN(rapid.SampledFrom(words), 1, 4).Draw(t, "query")
		query := ""
		for _, w := range qw {
			query += w + " "
		}

		got := m.BestMatch(query, eps)
		if again := m.BestMatch(query, eps); again != got {
			t.Fatalf("not deterministic")
		}
		if got == nil {
			for _, ep := range eps {
				if m.Score(query, ep).Total > 0 {
					t.Fatalf("nil match although %+v scores", ep)
				}
			}
			return
		}
		best := m.Score(query, got).Total
		if best <= 0 {
			t.Fatalf("returned a zero-score match")
		}
		for _, ep := range eps {
			s := m.Score(query, ep).Total
			if s > best {
				t.Fatalf("%+v outscores the match", ep)
			}
			if ep == got {
				break
			}
			if s == best {
				t.Fatalf("earlier candidate %+v ties the match", ep)
			}
		}
	})
}

func TestAnalyze(t *testing.T) {
	q := Analyze("  Find PETS, by Status ")
	if q.Lower != "  find pets, by status " {
		t.Errorf("Lower = %q", q.Lower)
	}
	if len(q.Words) != 4 || q.Words[1] != "pets," {
		t.Errorf("Words = %v", q.Words)
	}
	if !q.Contains("STATUS") || q.Contains("") {
		t.Error("Contains is case-insensitive and rejects empty terms")
	}
}
