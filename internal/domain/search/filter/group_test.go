package filter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
)

func TestParseGroup_Partitions(t *testing.T) {
	g, err := ParseGroup([]string{
		"distance:<=:1000",
		"is_hazardous:=:True",
		"speed:>:5",
		"diameter:>=:0.5",
	}, Typed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Object()) != 2 || len(g.Approach()) != 2 {
		t.Fatalf("partition = %d object, %d approach", len(g.Object()), len(g.Approach()))
	}
	if g.Object()[0].Field().Name() != "is_hazardous" || g.Object()[1].Field().Name() != "diameter" {
		t.Error("object-level order not preserved")
	}
	if g.Approach()[0].Field().Name() != "distance" || g.Approach()[1].Field().Name() != "speed" {
		t.Error("approach-level order not preserved")
	}
	if g.Len() != 4 || g.IsEmpty() {
		t.Errorf("Len() = %d", g.Len())
	}
	want := []string{"is_hazardous:=:True", "diameter:>=:0.5", "distance:<=:1000", "speed:>:5"}
	for i, tok := range g.Tokens() {
		if tok != want[i] {
			t.Errorf("Tokens()[%d] = %q, want %q", i, tok, want[i])
		}
	}
}

func TestParseGroup_Empty(t *testing.T) {
	g, err := ParseGroup(nil, Typed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.IsEmpty() || g.Object() != nil || g.Approach() != nil {
		t.Error("empty group expected")
	}
}

func TestParseGroup_UnknownField(t *testing.T) {
	_, err := ParseGroup([]string{"is_hazardous:=:True", "colour:=:red"}, Typed)
	if !errors.Is(err, domain.ErrUnsupportedFeature) {
		t.Fatalf("error = %v, want ErrUnsupportedFeature", err)
	}
}

func TestNewGroup_TooMany(t *testing.T) {
	tokens := make([]string, MaxFilters+1)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("distance:>:%d", i)
	}
	if _, err := ParseGroup(tokens, Typed); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("error = %v, want ErrInvalidQuery", err)
	}
}

func TestGroupApply_ObjectFiltersRunFirst(t *testing.T) {
	a := newObject("A", true, 1, 100, 5000)
	b := newObject("B", false, 1, 100)
	c := newObject("C", true, 1, 9000)

	g, err := ParseGroup([]string{"distance:<:1000", "is_hazardous:=:True"}, Typed)
	if err != nil {
		t.Fatalf("ParseGroup: %v", err)
	}

	got := g.Apply([]*neo.Object{a, b, c})
	if names(got) != "A" {
		t.Fatalf("Apply = %s, want A", names(got))
	}
	if len(got[0].Approaches()) != 1 {
		t.Errorf("approaches = %d, want 1", len(got[0].Approaches()))
	}
	if len(a.Approaches()) != 2 {
		t.Error("group apply mutated its input")
	}
}

func TestGroupApply_ChainedApproachFilters(t *testing.T) {
	a := newObject("A", false, 1, 100, 500, 900)
	g, _ := ParseGroup([]string{"distance:>:200", "distance:<:800"}, Typed)

	got := g.Apply([]*neo.Object{a})
	if len(got) != 1 || len(got[0].Approaches()) != 1 || got[0].Approaches()[0].MissDistanceKm() != 500 {
		t.Errorf("chained filters = %+v", got)
	}
}
