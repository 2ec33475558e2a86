package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestForCoversEveryPair(t *testing.T) {
	t.Parallel()

	for _, c := range Categories() {
		for _, o := range Operations() {
			if For(c, o).Empty() {
				t.Errorf("For(%q, %q) is empty", c, o)
			}
		}
	}
}

func TestForUnknownPairIsEmpty(t *testing.T) {
	t.Parallel()

	cases := []struct{ category, operation string }{
		{"unknown_category", "search"},
		{"restaurant", "delete"},
		{"", ""},
		{"bar", "book"},
	}
	for _, tc := range cases {
		if s := For(tc.category, tc.operation); !s.Empty() {
			t.Errorf("For(%q, %q) = %v, want empty", tc.category, tc.operation, s)
		}
	}
}

func TestForNormalizesCategory(t *testing.T) {
	t.Parallel()

	if _, ok := For("RESTAURANT", "search").Lookup("cuisine"); !ok {
		t.Error("uppercase category should resolve")
	}
	if _, ok := For("Hair Salon", "BOOK").Lookup("service"); !ok {
		t.Error("spaces should normalize to underscores")
	}
}

func TestForReturnsACopy(t *testing.T) {
	t.Parallel()

	s := For("restaurant", "book")
	s[0] = Parameter{Name: "mutated", Spec: ChoiceFilter{}}
	if _, ok := For("restaurant", "book").Lookup("party_size"); !ok {
		t.Fatal("mutating a returned schema changed the registry")
	}
}

func TestHairSalonBookHasNoPartySize(t *testing.T) {
	t.Parallel()

	s := For("hair_salon", "book")
	if _, ok := s.Lookup("party_size"); ok {
		t.Error("hair_salon book should not declare party_size")
	}
	spec, ok := s.Lookup("service")
	if !ok {
		t.Fatal("hair_salon book must declare service")
	}
	if f, ok := spec.(FieldSchema); !ok || !f.Required {
		t.Errorf("service spec = %#v, want required field", spec)
	}
}

func TestSearchEntriesAreChoiceFilters(t *testing.T) {
	t.Parallel()

	for _, c := range Categories() {
		for _, p := range For(c, "search") {
			if _, ok := p.Spec.(ChoiceFilter); !ok {
				t.Errorf("%s search %s is %T, want ChoiceFilter", c, p.Name, p.Spec)
			}
		}
	}
}

func TestIsValidCategory(t *testing.T) {
	t.Parallel()

	valid := []string{"restaurant", "hair_salon", "spa", "fitness", "RESTAURANT", "Hair_Salon"}
	for _, c := range valid {
		if !IsValidCategory(c) {
			t.Errorf("IsValidCategory(%q) = false", c)
		}
	}
	invalid := []string{"bar", "", "restaurant "}
	for _, c := range invalid {
		if IsValidCategory(c) {
			t.Errorf("IsValidCategory(%q) = true", c)
		}
	}
}

func TestSchemaJSONKeepsOrderAndShape(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(For("restaurant", "book"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(b)
	want := `{"party_size":{"type":"integer","min":1,"max":20,"required":true},` +
		`"date":{"type":"date","format":"YYYY-MM-DD","required":true},` +
		`"time":{"type":"time","format":"HH:MM","required":true}}`
	if got != want {
		t.Fatalf("json =\n%s\nwant\n%s", got, want)
	}

	b, err = json.Marshal(For("fitness", "search"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.HasPrefix(string(b), `{"activity":["Gym",`) {
		t.Errorf("choice filter json = %s", b)
	}
}
