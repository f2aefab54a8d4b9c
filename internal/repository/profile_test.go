package repository

import (
	"reflect"
	"testing"

	"timebank-backend/internal/models"
)

func TestChunkIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		size int
		want [][]string
	}{
		{
			name: "empty input",
			ids:  nil,
			size: 10,
			want: nil,
		},
		{
			name: "under the cap",
			ids:  []string{"a", "b", "c"},
			size: 10,
			want: [][]string{{"a", "b", "c"}},
		},
		{
			name: "exactly the cap",
			ids:  []string{"a", "b", "c"},
			size: 3,
			want: [][]string{{"a", "b", "c"}},
		},
		{
			name: "one over the cap",
			ids:  []string{"a", "b", "c", "d"},
			size: 3,
			want: [][]string{{"a", "b", "c"}, {"d"}},
		},
		{
			name: "zero size",
			ids:  []string{"a"},
			size: 0,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkIDs(tt.ids, tt.size)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ChunkIDs(%v, %d) = %v, want %v", tt.ids, tt.size, got, tt.want)
			}
		})
	}
}

func TestChunkIDsCount(t *testing.T) {
	// ceil(N/10) sub-queries for N ids.
	ids := make([]string, 25)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	chunks := ChunkIDs(ids, inQueryLimit)
	if len(chunks) != 3 {
		t.Fatalf("chunk count: got %d, want 3", len(chunks))
	}

	total := 0
	for _, c := range chunks {
		if len(c) > inQueryLimit {
			t.Fatalf("chunk over limit: %d", len(c))
		}
		total += len(c)
	}
	if total != len(ids) {
		t.Fatalf("union size: got %d, want %d", total, len(ids))
	}
}

func TestMergeUnique(t *testing.T) {
	mk := func(id string) *models.Profile { return &models.Profile{ID: id} }

	seen := make(map[string]bool)
	out := mergeUnique(nil, []*models.Profile{mk("a"), mk("b")}, seen)
	out = mergeUnique(out, []*models.Profile{mk("b"), mk("c"), mk("a")}, seen)

	got := make([]string, 0, len(out))
	for _, p := range out {
		got = append(got, p.ID)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merged ids: got %v, want %v", got, want)
	}
}
