package models

import "testing"

func TestHealthFlagsRoundTrip(t *testing.T) {
	for _, c := range AllConditions {
		var f HealthFlags
		f.Set(c, true)
		got := f.Conditions()
		if len(got) != 1 || got[0] != c {
			t.Fatalf("Set(%s) -> Conditions() = %v", c, got)
		}
		if back := FlagsFromConditions(got); back != f {
			t.Fatalf("FlagsFromConditions(%v) = %+v", got, back)
		}
	}
}

func TestHealthFlagsAsMap(t *testing.T) {
	f := FlagsFromConditions([]Condition{ConditionStroke})
	m := f.AsMap()
	if len(m) != len(AllConditions) {
		t.Fatalf("map has %d keys", len(m))
	}
	if !m["has_stroke"] || m["has_anemia"] {
		t.Fatalf("map = %v", m)
	}
}

func TestParseCondition(t *testing.T) {
	if c, ok := ParseCondition("has_fatty_liver"); !ok || c != ConditionFattyLiver {
		t.Fatalf("ParseCondition = %q, %v", c, ok)
	}
	if _, ok := ParseCondition("is_vegetarian"); ok {
		t.Fatal("is_vegetarian is not a condition")
	}
	var f HealthFlags
	f.Set(Condition("has_nothing"), true)
	if len(f.Conditions()) != 0 || f.Has(Condition("has_nothing")) {
		t.Fatal("unknown condition changed the flags")
	}
}

func TestDailyHistorySnapshotConditions(t *testing.T) {
	var h DailyHistory
	if got := h.SnapshotConditions(); len(got) != 0 {
		t.Fatalf("empty snapshot = %v", got)
	}
	h.SetSnapshotConditions(nil)
	if string(h.Conditions) != "[]" {
		t.Fatalf("nil encodes as %s", h.Conditions)
	}
	h.SetSnapshotConditions([]Condition{ConditionGout, ConditionAnemia})
	got := h.SnapshotConditions()
	if len(got) != 2 || got[0] != ConditionGout || got[1] != ConditionAnemia {
		t.Fatalf("snapshot = %v", got)
	}
}
