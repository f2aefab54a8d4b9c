package projection

import (
	"reflect"
	"testing"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type provider struct {
	Name  string
	Skill string
	Addr  string
}

func nameField(p provider) (string, bool)  { return p.Name, p.Name != "" }
func skillField(p provider) (string, bool) { return p.Skill, p.Skill != "" }
func addrField(p provider) (string, bool)  { return p.Addr, p.Addr != "" }

func names(ps []provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestFilterStability(t *testing.T) {
	in := []provider{
		{Name: "Ana", Skill: "Cooking", Addr: "Leiria"},
		{Name: "Bo", Skill: "Gardening", Addr: "Lisbon"},
		{Name: "Cy", Skill: "cooking classes", Addr: "Leiria"},
		{Name: "Dee", Skill: "Tutoring", Addr: "Porto"},
	}
	got := Filter(in, []Predicate[provider]{{Field: skillField, Needle: "COOK"}})
	want := []string{"Ana", "Cy"}
	if !reflect.DeepEqual(names(got), want) {
		t.Fatalf("filter order: got %v, want %v", names(got), want)
	}
}

func TestFilterMultiplePredicates(t *testing.T) {
	in := []provider{
		{Name: "Ana", Skill: "Cooking", Addr: "Leiria"},
		{Name: "Bo", Skill: "Cooking", Addr: "Lisbon"},
		{Name: "Cy", Skill: "Gardening", Addr: "Leiria"},
	}
	got := Filter(in, []Predicate[provider]{
		{Field: skillField, Needle: "cook"},
		{Field: addrField, Needle: "leiria"},
	})
	if !reflect.DeepEqual(names(got), []string{"Ana"}) {
		t.Fatalf("got %v, want [Ana]", names(got))
	}
}

func TestFilterMissingFieldNeverMatches(t *testing.T) {
	in := []provider{
		{Name: "Ana"},
		{Name: "Bo", Skill: "Cooking"},
	}
	got := Filter(in, []Predicate[provider]{{Field: skillField, Needle: "c"}})
	if !reflect.DeepEqual(names(got), []string{"Bo"}) {
		t.Fatalf("missing field matched non-empty needle: got %v", names(got))
	}
}

func TestFilterEmptyNeedleMatchesAll(t *testing.T) {
	in := []provider{
		{Name: "Ana"},
		{Name: "Bo", Skill: "Cooking"},
	}
	got := Filter(in, []Predicate[provider]{{Field: skillField, Needle: ""}})
	if len(got) != 2 {
		t.Fatalf("empty needle: got %d items, want 2", len(got))
	}
}

func TestGroupByCompleteness(t *testing.T) {
	in := []provider{
		{Name: "Ana", Skill: "Cooking"},
		{Name: "Bo", Skill: "cooking"},
		{Name: "Cy", Skill: "Gardening"},
		{Name: "Dee"}, // no skill, dropped
	}
	g := GroupBy(in, skillField, "")

	if g.Total() != 3 {
		t.Fatalf("total members: got %d, want 3", g.Total())
	}
	if !reflect.DeepEqual(g.Keys(), []string{"cooking", "gardening"}) {
		t.Fatalf("insertion-order keys: got %v", g.Keys())
	}
	if !reflect.DeepEqual(names(g.Group("cooking")), []string{"Ana", "Bo"}) {
		t.Fatalf("cooking group: got %v", names(g.Group("cooking")))
	}
}

func TestGroupByFallback(t *testing.T) {
	in := []provider{
		{Name: "Ana", Skill: "Cooking"},
		{Name: "Dee"},
	}
	g := GroupBy(in, skillField, "other")
	if g.Total() != 2 {
		t.Fatalf("total with fallback: got %d, want 2", g.Total())
	}
	if !reflect.DeepEqual(names(g.Group("other")), []string{"Dee"}) {
		t.Fatalf("fallback group: got %v", names(g.Group("other")))
	}
}

func TestPartitionKeepsKeysVerbatim(t *testing.T) {
	// Identifier keys must not be case-folded: a mixed-case id has to
	// round-trip through a lookup map keyed by the original value.
	in := []provider{
		{Name: "Ana", Addr: "User-A"},
		{Name: "Bo", Addr: "user-a"},
		{Name: "Cy", Addr: "User-A"},
		{Name: "Dee"}, // no key, dropped
	}
	g := Partition(in, addrField)

	if !reflect.DeepEqual(g.Keys(), []string{"User-A", "user-a"}) {
		t.Fatalf("verbatim keys: got %v", g.Keys())
	}
	if !reflect.DeepEqual(names(g.Group("User-A")), []string{"Ana", "Cy"}) {
		t.Fatalf("User-A group: got %v", names(g.Group("User-A")))
	}
	if g.Total() != 3 {
		t.Fatalf("total members: got %d, want 3", g.Total())
	}
}

func TestSortGroupsAndMembers(t *testing.T) {
	// Scenario from the favorites view: skills normalize into the same
	// group regardless of case, keys sort ascending, members by name.
	in := []provider{
		{Name: "Cy", Skill: "Gardening"},
		{Name: "Bo", Skill: "cooking"},
		{Name: "Ana", Skill: "Cooking"},
	}
	g := GroupBy(in, skillField, "")
	g.Sort(nameField, collate.New(language.Portuguese))

	if !reflect.DeepEqual(g.Keys(), []string{"cooking", "gardening"}) {
		t.Fatalf("sorted keys: got %v", g.Keys())
	}
	if !reflect.DeepEqual(names(g.Group("cooking")), []string{"Ana", "Bo"}) {
		t.Fatalf("cooking members: got %v", names(g.Group("cooking")))
	}
	if !reflect.DeepEqual(names(g.Group("gardening")), []string{"Cy"}) {
		t.Fatalf("gardening members: got %v", names(g.Group("gardening")))
	}
}

func TestSortMissingNamesLast(t *testing.T) {
	in := []provider{
		{Name: "", Skill: "Cooking", Addr: "first-unnamed"},
		{Name: "Zoe", Skill: "Cooking"},
		{Name: "", Skill: "Cooking", Addr: "second-unnamed"},
		{Name: "Ana", Skill: "Cooking"},
	}
	g := GroupBy(in, skillField, "")
	g.Sort(nameField, nil)

	members := g.Group("cooking")
	if members[0].Name != "Ana" || members[1].Name != "Zoe" {
		t.Fatalf("named members first: got %v", names(members))
	}
	// Unnamed members keep their relative input order.
	if members[2].Addr != "first-unnamed" || members[3].Addr != "second-unnamed" {
		t.Fatalf("unnamed tie-break not stable: got %v %v", members[2].Addr, members[3].Addr)
	}
}

func TestSortDeterminism(t *testing.T) {
	in := []provider{
		{Name: "Bo", Skill: "b"},
		{Name: "", Skill: "a"},
		{Name: "Ana", Skill: "a"},
		{Name: "", Skill: "a"},
	}
	col := collate.New(language.Portuguese)

	run := func() ([]string, []string) {
		g := GroupBy(in, skillField, "")
		g.Sort(nameField, col)
		return g.Keys(), names(g.Group("a"))
	}

	keys1, a1 := run()
	keys2, a2 := run()
	if !reflect.DeepEqual(keys1, keys2) || !reflect.DeepEqual(a1, a2) {
		t.Fatalf("sort not deterministic: %v/%v vs %v/%v", keys1, a1, keys2, a2)
	}
}
