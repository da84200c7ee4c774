package clientsel

import "testing"

func TestIndexClampedAndOneBased(t *testing.T) {
	clients := []string{"A", "B", "C"}
	r := SelectClientIdsForNode("n1", clients, Inputs{Index: 0, Range: 1})
	if r.Index != 1 || len(r.SelectedIDs) != 1 || r.SelectedIDs[0] != "A" {
		t.Fatalf("expected index defaulted to 1 selecting A, got %+v", r)
	}

	r = SelectClientIdsForNode("n1", clients, Inputs{Index: 99, Range: 1})
	if r.Index != 3 || r.SelectedIDs[0] != "C" {
		t.Fatalf("expected index clamped to N=3, got %+v", r)
	}
}

func TestRangeWrapsModuloN(t *testing.T) {
	clients := []string{"A", "B", "C"}
	r := SelectClientIdsForNode("n1", clients, Inputs{Index: 3, Range: 2})
	want := []string{"C", "A"}
	if len(r.SelectedIDs) != 2 || r.SelectedIDs[0] != want[0] || r.SelectedIDs[1] != want[1] {
		t.Fatalf("expected wraparound selection %v, got %v", want, r.SelectedIDs)
	}
}

func TestRandomSelectionIsDeterministic(t *testing.T) {
	clients := []string{"A", "B", "C", "D", "E"}
	r1 := SelectClientIdsForNode("node-42", clients, Inputs{Random: true, Range: 3})
	r2 := SelectClientIdsForNode("node-42", clients, Inputs{Random: true, Range: 3})

	if len(r1.SelectedIDs) != 3 || len(r2.SelectedIDs) != 3 {
		t.Fatalf("expected 3 ids selected, got %v / %v", r1.SelectedIDs, r2.SelectedIDs)
	}
	for i := range r1.SelectedIDs {
		if r1.SelectedIDs[i] != r2.SelectedIDs[i] {
			t.Fatalf("expected identical selection on repeated calls: %v vs %v", r1.SelectedIDs, r2.SelectedIDs)
		}
	}
}

func TestRandomSelectionDiffersAcrossNodeIDs(t *testing.T) {
	clients := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	r1 := SelectClientIdsForNode("alpha", clients, Inputs{Random: true, Range: 4})
	r2 := SelectClientIdsForNode("beta", clients, Inputs{Random: true, Range: 4})

	identical := true
	for i := range r1.SelectedIDs {
		if r1.SelectedIDs[i] != r2.SelectedIDs[i] {
			identical = false
		}
	}
	if identical {
		t.Fatal("expected different node ids to (almost certainly) produce different permutations")
	}
}

func TestEmptyClientListYieldsNoSelection(t *testing.T) {
	r := SelectClientIdsForNode("n1", nil, Inputs{Index: 1, Range: 1})
	if len(r.SelectedIDs) != 0 {
		t.Fatalf("expected no selection from empty client list, got %v", r.SelectedIDs)
	}
}
