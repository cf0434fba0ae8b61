package embedding

import (
	"reflect"
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize("hello world", 10)
	if len(ids) != 10 {
		t.Errorf("len(ids)=%d", len(ids))
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS 101, got %d", ids[0])
	}
	if ids[3] != 102 || attn[3] != 1 {
		t.Errorf("expected SEP after two terms, got ids=%v", ids)
	}
	if attn[4] != 0 {
		t.Error("padding must not be attended")
	}
}

func TestTerms(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"GET /pet/findByStatus", []string{"get", "pet", "find", "by", "status", "findbystatus"}},
		{"Finds Pets by status", []string{"find", "pet", "by", "status"}},
		{"v2 OAuth2Token", []string{"v2", "auth", "token", "oauth2token"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Terms(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Terms(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
}
