package service

import "testing"

func TestMergeThreeWayDisjointEdits(t *testing.T) {
	base := "alpha\nbeta\ngamma\ndelta"
	ours := "alpha changed\nbeta\ngamma\ndelta"
	theirs := "alpha\nbeta\ngamma\ndelta changed"

	result := mergeThreeWay(base, ours, theirs)
	if len(result.Conflicts) != 0 {
		t.Fatalf("disjoint edits should merge cleanly, got conflicts: %+v", result.Conflicts)
	}
	want := "alpha changed\nbeta\ngamma\ndelta changed"
	if result.Content != want {
		t.Fatalf("expected %q, got %q", want, result.Content)
	}
}

func TestMergeThreeWayOneSidedEdit(t *testing.T) {
	base := "one\ntwo\nthree"
	ours := base
	theirs := "one\ntwo rewritten\nthree"

	result := mergeThreeWay(base, ours, theirs)
	if len(result.Conflicts) != 0 {
		t.Fatalf("one-sided edit should merge cleanly, got %+v", result.Conflicts)
	}
	if result.Content != theirs {
		t.Fatalf("expected their side verbatim, got %q", result.Content)
	}
}

func TestMergeThreeWayIdenticalEditsCollapse(t *testing.T) {
	base := "one\ntwo\nthree"
	edited := "one\ntwo rewritten\nthree"

	result := mergeThreeWay(base, edited, edited)
	if len(result.Conflicts) != 0 {
		t.Fatalf("identical edits should not conflict, got %+v", result.Conflicts)
	}
	if result.Content != edited {
		t.Fatalf("expected %q, got %q", edited, result.Content)
	}
}

func TestMergeThreeWayDivergentEditsConflict(t *testing.T) {
	base := "stable\ncontested line\nstable tail"
	ours := "stable\nour version\nstable tail"
	theirs := "stable\ntheir version\nstable tail"

	result := mergeThreeWay(base, ours, theirs)
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected exactly one conflict, got %d", len(result.Conflicts))
	}
	c := result.Conflicts[0]
	if c.Base != "contested line" || c.Ours != "our version" || c.Theirs != "their version" {
		t.Fatalf("conflict should carry all three sides, got %+v", c)
	}
}

func TestMergeThreeWayBlankLineInsertOneSided(t *testing.T) {
	base := "a\nb"
	ours := "a\n\nb"
	theirs := base

	result := mergeThreeWay(base, ours, theirs)
	if len(result.Conflicts) != 0 {
		t.Fatalf("a blank-line insert should merge cleanly, got %+v", result.Conflicts)
	}
	if result.Content != ours {
		t.Fatalf("expected %q, got %q", ours, result.Content)
	}
}

func TestMergeThreeWayBlankLineInsertDisjoint(t *testing.T) {
	base := "a\nb"
	ours := "a\n\nb"
	theirs := "a\nb\nc"

	result := mergeThreeWay(base, ours, theirs)
	if len(result.Conflicts) != 0 {
		t.Fatalf("disjoint edits should merge cleanly, got %+v", result.Conflicts)
	}
	want := "a\n\nb\nc"
	if result.Content != want {
		t.Fatalf("expected %q, got %q", want, result.Content)
	}
}

func TestMergeThreeWayBlankLineInsertBothSides(t *testing.T) {
	base := "a\nb"
	edited := "a\n\nb"

	result := mergeThreeWay(base, edited, edited)
	if len(result.Conflicts) != 0 {
		t.Fatalf("identical blank-line inserts should collapse, got %+v", result.Conflicts)
	}
	if result.Content != edited {
		t.Fatalf("expected %q, got %q", edited, result.Content)
	}
}

func TestRunLineCount(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"\n", 1},
		{"a\n", 1},
		{"a", 1},
		{"a\n\nb", 3},
		{"a\nb\n", 2},
	}
	for _, c := range cases {
		if got := runLineCount(c.text); got != c.want {
			t.Errorf("runLineCount(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}

func TestMergeThreeWayAdditionsAtEnd(t *testing.T) {
	base := "intro"
	ours := "intro\nour appendix"
	theirs := "intro"

	result := mergeThreeWay(base, ours, theirs)
	if len(result.Conflicts) != 0 {
		t.Fatalf("an addition on one side should merge, got %+v", result.Conflicts)
	}
	if result.Content != "intro\nour appendix" {
		t.Fatalf("expected appendix kept, got %q", result.Content)
	}
}
