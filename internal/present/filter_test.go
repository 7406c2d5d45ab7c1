package present

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/records/internal/model"
)

var fixture = []model.Record{
	{ID: "1", Name: "Alpha"},
	{ID: "2", Name: "Beta", Description: "second ALPHABET entry"},
	{ID: "3", Name: "Gamma", Description: "third"},
}

func TestFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  []model.Record
	}{
		{name: "empty query", query: "", want: fixture},
		{name: "whitespace query", query: "   ", want: fixture},
		{name: "name prefix", query: "gam", want: fixture[2:3]},
		{name: "case insensitive across fields", query: "  ALP ", want: fixture[0:2]},
		{name: "description only", query: "third", want: fixture[2:3]},
		{name: "no match", query: "zzz", want: []model.Record{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, Filter(fixture, tt.query)); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestFilterScenario(t *testing.T) {
	t.Parallel()

	recs := []model.Record{{Name: "Alpha"}, {Name: "Beta"}}
	if diff := cmp.Diff([]model.Record{{Name: "Alpha"}}, Filter(recs, "alp")); diff != "" {
		t.Errorf("search alp (-want +got):\n%s", diff)
	}
	if got := Filter(recs, ""); len(got) != 2 {
		t.Errorf("search empty returned %d rows, want 2", len(got))
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := append([]model.Record(nil), fixture...)
	_ = Filter(in, "beta")
	if diff := cmp.Diff(fixture, in); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestView(t *testing.T) {
	t.Parallel()

	if r := View(nil, "x"); !r.Empty || r.NoMatches {
		t.Errorf("View(nil) = %+v, want Empty only", r)
	}
	if r := View(fixture, "zzz"); r.Empty || !r.NoMatches {
		t.Errorf("View(no match) = %+v, want NoMatches only", r)
	}
	if r := View(fixture, "beta"); r.Empty || r.NoMatches || len(r.Rows) != 1 {
		t.Errorf("View(beta) = %+v", r)
	}
}
