package token

import "testing"

func TestMergeTakesMinStartMaxEnd(t *testing.T) {
	a := At("f.mc", 2, 5, 3)  // 2:5..2:7
	b := At("f.mc", 4, 1, 10) // 4:1..4:10
	m := a.Merge(b)
	if m.Line != 2 || m.Column != 5 || m.EndLine != 4 || m.EndColumn != 10 {
		t.Fatalf("merge = %+v", m)
	}
	// composition is symmetric
	if b.Merge(a) != m {
		t.Fatal("merge is not symmetric")
	}
}

func TestMergeSameLine(t *testing.T) {
	a := At("f.mc", 3, 8, 2)
	b := At("f.mc", 3, 1, 4)
	m := a.Merge(b)
	if m.Line != 3 || m.Column != 1 || m.EndLine != 3 || m.EndColumn != 9 {
		t.Fatalf("merge = %+v", m)
	}
}

func TestMergeIgnoresZeroLocation(t *testing.T) {
	a := At("f.mc", 7, 2, 5)
	if a.Merge(Location{}) != a || (Location{}).Merge(a) != a {
		t.Fatal("zero location must not affect the span")
	}
}

func TestKeywordRoundTrip(t *testing.T) {
	for word, typ := range KeywordMap {
		if TypeStrings[typ] != word {
			t.Errorf("keyword %q does not round-trip", word)
		}
		if typ.String() != word {
			t.Errorf("String() for %q = %q", word, typ.String())
		}
	}
	if Plus.String() != "+" || EqEq.String() != "==" {
		t.Error("operator names broken")
	}
}
