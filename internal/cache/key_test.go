package cache

import "testing"

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"lowercases", "How OFTEN do I feel Anxious", "how often do i feel anxious"},
		{"strips punctuation", "what's up?! (really)", "whats up really"},
		{"caps at ten tokens", "one two three four five six seven eight nine ten eleven twelve", "one two three four five six seven eight nine ten"},
		{"collapses whitespace", "  spaced \t out\nquery ", "spaced out query"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeQuery(tt.query); got != tt.want {
				t.Errorf("NormalizeQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestKey_TokenSimilarQueriesCollide(t *testing.T) {
	// Two differently-worded queries sharing the leading tokens map to the
	// same entry. Intentional recall-oriented behavior.
	a := Key("How was my week, overall?", "user-1", 3, ComplexitySimple)
	b := Key("how was my week overall", "user-1", 4, ComplexitySimple)
	if a != b {
		t.Errorf("expected colliding keys, got %q vs %q", a, b)
	}
}

func TestKey_DiffersByOwnerAndBucketAndTag(t *testing.T) {
	base := Key("how was my week", "user-1", 3, ComplexitySimple)

	if k := Key("how was my week", "user-2", 3, ComplexitySimple); k == base {
		t.Error("expected different key for different owner")
	}
	if k := Key("how was my week", "user-1", 7, ComplexitySimple); k == base {
		t.Error("expected different key for different context bucket")
	}
	if k := Key("how was my week", "user-1", 3, ComplexityComplex); k == base {
		t.Error("expected different key for different complexity tag")
	}
}

func TestResponseCache_RoundTrip(t *testing.T) {
	c := NewResponseCache[string](10, DefaultTTLPolicy(), nil)

	if _, ok := c.Get("how was my week", "u", 0, ComplexitySimple); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("how was my week", "u", 0, ComplexitySimple, false, "answer")

	got, ok := c.Get("how was my week", "u", 0, ComplexitySimple)
	if !ok || got != "answer" {
		t.Fatalf("expected cached answer, got %q (hit=%v)", got, ok)
	}
}
